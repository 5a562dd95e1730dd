// template.go: source template of the generated bindings
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package codegen

// The output is passed through go/format, so spacing here only needs to be
// syntactically valid.
const bindingsTemplate = `// Code generated by tpgen. DO NOT EDIT.

// Package {{.Package}} holds the typed bindings of the {{.PluginName}} plugin.
package {{.Package}}

import (
	"context"
{{- if .NeedFmt}}
	"fmt"
{{- end}}
{{- if .NeedStrconv}}
	"strconv"
{{- end}}

	touchportal {{quote .RuntimeImport}}
)

// PluginID is the identifier the plugin pairs with.
const PluginID = {{quote .PluginID}}
{{if .ActionIDs}}
// Action identifiers.
const (
{{- range .ActionIDs}}
	{{.Name}} = {{quote .Value}}
{{- end}}
)
{{end}}
{{- if .EventIDs}}
// Event identifiers.
const (
{{- range .EventIDs}}
	{{.Name}} = {{quote .Value}}
{{- end}}
)
{{end}}
{{- if .StateIDs}}
// State identifiers.
const (
{{- range .StateIDs}}
	{{.Name}} = {{quote .Value}}
{{- end}}
)
{{end}}
{{- if .ConnectorIDs}}
// Connector identifiers.
const (
{{- range .ConnectorIDs}}
	{{.Name}} = {{quote .Value}}
{{- end}}
)
{{end}}
{{- range .Enums}}{{$enum := .Name}}
// {{.Name}} is {{.Doc}}.
type {{.Name}} string

const (
{{- range .Consts}}
	{{.Name}} {{$enum}} = {{quote .Value}}
{{- end}}
)

// Parse{{.Name}} converts a wire value to a {{.Name}}.
func Parse{{.Name}}(s string) ({{.Name}}, error) {
	switch v := {{.Name}}(s); v {
	case {{range $i, $c := .Consts}}{{if $i}}, {{end}}{{$c.Name}}{{end}}:
		return v, nil
	}
	return "", fmt.Errorf("invalid {{.Name}} %q", s)
}

// String returns the wire value.
func (v {{.Name}}) String() string { return string(v) }

// Valid reports whether v is one of the declared choices.
func (v {{.Name}}) Valid() bool {
	_, err := Parse{{.Name}}(string(v))
	return err == nil
}
{{end}}
{{- if .NeedChoice}}
func choiceValue[T ~string](data touchportal.ActionData, id string, parse func(string) (T, error)) (T, error) {
	s, err := data.Text(id)
	if err != nil {
		var zero T
		return zero, err
	}
	return parse(s)
}
{{end}}
// Callbacks receives the frames the host sends to the plugin. Methods may be
// called concurrently.
type Callbacks interface {
{{- range .Callbacks}}
	// {{.Method}} {{.Doc}}
	{{.Method}}(ctx context.Context{{range .Params}}, {{.Name}} {{.Type}}{{end}}) error
{{- end}}
	// OnClose is called once when the session ends. clean is false when the
	// connection was lost.
	OnClose(clean bool)
}

// SettingsListener is implemented by Callbacks that want settings updates.
type SettingsListener interface {
	OnSettings(ctx context.Context, settings Settings) error
}

// ListChangeListener is implemented by Callbacks that want to know when the
// user picks a value in a choice list while editing an action.
type ListChangeListener interface {
	OnListChange(ctx context.Context, msg touchportal.ListChangeMessage) error
}

// BroadcastListener is implemented by Callbacks that want host broadcasts
// such as page changes.
type BroadcastListener interface {
	OnBroadcast(ctx context.Context, msg touchportal.BroadcastMessage) error
}

// NotificationListener is implemented by Callbacks that want clicks on
// notification options.
type NotificationListener interface {
	OnNotificationClicked(ctx context.Context, msg touchportal.NotificationClickedMessage) error
}

// Settings mirrors the declared plugin settings.
type Settings struct {
{{- range .Settings}}
	{{.Field}} {{.Type}}
{{- end}}
}

func defaultSettings() Settings {
	return Settings{
{{- range .Settings}}
		{{.Field}}: {{.Default}},
{{- end}}
	}
}

func settingsFrom(values touchportal.SettingValues) Settings {
	s := defaultSettings()
{{- range .Settings}}
	if v, ok := values.Lookup({{quote .Name}}); ok {
{{- if .Number}}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.{{.Field}} = f
		}
{{- else}}
		s.{{.Field}} = v
{{- end}}
	}
{{- end}}
	return s
}

// Handle sends typed updates to the host.
type Handle struct {
	raw *touchportal.Handle
}

// NewHandle wraps a runtime handle.
func NewHandle(raw *touchportal.Handle) Handle { return Handle{raw: raw} }

// Raw returns the untyped runtime handle.
func (h Handle) Raw() *touchportal.Handle { return h.raw }
{{range .States}}
// {{.Method}} sets the {{quote .Desc}} state.
func (h Handle) {{.Method}}(value {{.Type}}) error {
	return h.raw.UpdateState({{.Const}}, {{.Convert}})
}
{{end}}
{{- range .Settings}}
// {{.Method}} updates the {{quote .Name}} setting.
func (h Handle) {{.Method}}(value {{.Type}}) error {
	return h.raw.UpdateSetting({{quote .Name}}, {{.Convert}})
}
{{end}}
{{- range .Events}}
// {{.Method}} fires the {{quote .Name}} event.
func (h Handle) {{.Method}}(states map[string]string) error {
	return h.raw.TriggerEvent({{.Const}}, states)
}
{{end}}
// UpdateConnector moves a connector. Data qualifies which instance is meant.
func (h Handle) UpdateConnector(connectorID string, value int, data ...touchportal.ConnectorData) error {
	return h.raw.UpdateConnector(connectorID, value, data...)
}

// UpdateChoices replaces the choices of a choice field or state.
func (h Handle) UpdateChoices(id string, values []string) error {
	return h.raw.UpdateChoices(id, values)
}

// UpdateChoicesFor replaces the choices for one action instance.
func (h Handle) UpdateChoicesFor(id, instanceID string, values []string) error {
	return h.raw.UpdateChoicesFor(id, instanceID, values)
}

// ShowNotification displays a notification in the host.
func (h Handle) ShowNotification(n touchportal.ShowNotification) error {
	return h.raw.ShowNotification(n)
}

// NewBinding builds the dispatch table that decodes frames and calls cb.
func NewBinding(cb Callbacks) touchportal.Binding {
	b := touchportal.Binding{
		Actions: map[string]touchportal.ActionFunc{
{{- range .Callbacks}}{{if .Action}}
			{{.Const}}: func(ctx context.Context, inv touchportal.ActionInvocation) error {
{{- range .Params}}{{if .Decode}}
				{{.Name}}, err := {{.Decode}}
				if err != nil {
					return err
				}
{{- end}}{{end}}
				return cb.{{.Method}}(ctx{{range .Params}}, {{.Arg}}{{end}})
			},
{{- end}}{{end}}
		},
		Connectors: map[string]touchportal.ConnectorFunc{
{{- range .Callbacks}}{{if not .Action}}
			{{.Const}}: func(ctx context.Context, change touchportal.ConnectorChange) error {
{{- range .Params}}{{if .Decode}}
				{{.Name}}, err := {{.Decode}}
				if err != nil {
					return err
				}
{{- end}}{{end}}
				return cb.{{.Method}}(ctx{{range .Params}}, {{.Arg}}{{end}})
			},
{{- end}}{{end}}
		},
		OnClose: cb.OnClose,
	}
	if l, ok := cb.(SettingsListener); ok {
		b.OnSettings = func(ctx context.Context, values touchportal.SettingValues) error {
			return l.OnSettings(ctx, settingsFrom(values))
		}
	}
	if l, ok := cb.(ListChangeListener); ok {
		b.OnListChange = l.OnListChange
	}
	if l, ok := cb.(BroadcastListener); ok {
		b.OnBroadcast = l.OnBroadcast
	}
	if l, ok := cb.(NotificationListener); ok {
		b.OnNotificationClicked = l.OnNotificationClicked
	}
	return b
}

// Factory creates the callbacks once pairing succeeded.
type Factory func(ctx context.Context, settings Settings, handle Handle) (Callbacks, error)

// Run pairs with the host as PluginID and dispatches frames to the
// callbacks returned by factory until the session ends.
//
// If pairing fails or times out, factory is never called and no OnClose
// follows; Run returns the error. OnClose is likewise skipped when factory
// itself fails.
func Run(ctx context.Context, cfg touchportal.Config, factory Factory) error {
	cfg.PluginID = PluginID
	engine, err := touchportal.NewEngine(cfg)
	if err != nil {
		return err
	}
	return engine.Run(ctx, func(ctx context.Context, info touchportal.PairInfo, raw *touchportal.Handle) (touchportal.Binding, error) {
		cb, err := factory(ctx, settingsFrom(info.Settings), NewHandle(raw))
		if err != nil {
			return touchportal.Binding{}, err
		}
		return NewBinding(cb), nil
	})
}
`
