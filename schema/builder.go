// builder.go: accumulating builders for plugin descriptions
//
// Builders check field-local invariants eagerly. A missing or malformed
// required field is a programming mistake in the description, so builders
// panic with a coded *errors.Error instead of returning it. Cross-entity
// checks belong to Validate.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"regexp"
	"strconv"

	"github.com/agilira/go-errors"
)

var colorPattern = regexp.MustCompile(`^#([0-9A-Fa-f]{6}|[0-9A-Fa-f]{8})$`)

func requireID(entity, id string) {
	if id == "" {
		panic(NewEmptyIDError(entity))
	}
}

func requireName(entity, id, name string) {
	if name == "" {
		panic(NewEmptyNameError(entity, id))
	}
}

func requireColor(field string, c Color) {
	if !colorPattern.MatchString(string(c)) {
		panic(NewInvalidColorError(field, string(c)))
	}
}

func requireChoices(entity, id string, choices []string) {
	if len(choices) == 0 {
		panic(NewEmptyChoicesError(entity, id))
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

func cloneFields(fields []DataField) []DataField {
	if fields == nil {
		return nil
	}
	out := make([]DataField, len(fields))
	for i, f := range fields {
		f.Choices = cloneStrings(f.Choices)
		f.Extensions = cloneStrings(f.Extensions)
		out[i] = f
	}
	return out
}

// PluginBuilder assembles a PluginDescription.
type PluginBuilder struct {
	desc PluginDescription
}

// NewPlugin starts a description with version 1 and the default API version.
func NewPlugin(id, name string) *PluginBuilder {
	requireID("plugin", id)
	requireName("plugin", id, name)
	return &PluginBuilder{desc: PluginDescription{
		ID:      id,
		Name:    name,
		Version: 1,
		API:     DefaultSDKVersion,
		Configuration: Configuration{
			ParentCategory: ParentMisc,
		},
	}}
}

// Version sets the plugin version; it must be at least 1.
func (b *PluginBuilder) Version(v uint) *PluginBuilder {
	if v < 1 {
		panic(NewInvalidVersionError(v))
	}
	b.desc.Version = v
	return b
}

// API sets the host API version tag.
func (b *PluginBuilder) API(v APIVersion) *PluginBuilder {
	b.desc.API = v
	return b
}

// Colors sets the dark and light theme colours.
func (b *PluginBuilder) Colors(dark, light Color) *PluginBuilder {
	requireColor("colorDark", dark)
	requireColor("colorLight", light)
	b.desc.Configuration.ColorDark = dark
	b.desc.Configuration.ColorLight = light
	return b
}

// Parent sets the parent category in the host UI.
func (b *PluginBuilder) Parent(p ParentCategory) *PluginBuilder {
	b.desc.Configuration.ParentCategory = p
	return b
}

// StartCmd sets the command the host runs to start the plugin.
func (b *PluginBuilder) StartCmd(cmd string) *PluginBuilder {
	b.desc.StartCmd = cmd
	return b
}

// Setting appends settings.
func (b *PluginBuilder) Setting(settings ...Setting) *PluginBuilder {
	b.desc.Settings = append(b.desc.Settings, settings...)
	return b
}

// Category appends categories.
func (b *PluginBuilder) Category(categories ...Category) *PluginBuilder {
	b.desc.Categories = append(b.desc.Categories, categories...)
	return b
}

// Build returns the assembled description. The builder may be reused.
func (b *PluginBuilder) Build() *PluginDescription {
	out := b.desc
	out.Settings = append([]Setting(nil), b.desc.Settings...)
	out.Categories = append([]Category(nil), b.desc.Categories...)
	return &out
}

// CategoryBuilder assembles a Category.
type CategoryBuilder struct {
	cat Category
}

// NewCategory starts a category.
func NewCategory(id, name string) *CategoryBuilder {
	requireID("category", id)
	requireName("category", id, name)
	return &CategoryBuilder{cat: Category{ID: id, Name: name}}
}

// ImagePath sets the category icon, usually under %TP_PLUGIN_FOLDER%.
func (b *CategoryBuilder) ImagePath(path string) *CategoryBuilder {
	b.cat.ImagePath = path
	return b
}

func (b *CategoryBuilder) Action(actions ...Action) *CategoryBuilder {
	b.cat.Actions = append(b.cat.Actions, actions...)
	return b
}

func (b *CategoryBuilder) Event(events ...Event) *CategoryBuilder {
	b.cat.Events = append(b.cat.Events, events...)
	return b
}

func (b *CategoryBuilder) State(states ...State) *CategoryBuilder {
	b.cat.States = append(b.cat.States, states...)
	return b
}

func (b *CategoryBuilder) Connector(connectors ...Connector) *CategoryBuilder {
	b.cat.Connectors = append(b.cat.Connectors, connectors...)
	return b
}

// Build returns the category. Emptiness is reported by Validate.
func (b *CategoryBuilder) Build() Category {
	out := b.cat
	out.Actions = append([]Action(nil), b.cat.Actions...)
	out.Events = append([]Event(nil), b.cat.Events...)
	out.States = append([]State(nil), b.cat.States...)
	out.Connectors = append([]Connector(nil), b.cat.Connectors...)
	return out
}

// ActionBuilder assembles an Action.
type ActionBuilder struct {
	action Action
}

// NewAction starts a dynamic, execute-mode action.
func NewAction(id, name string) *ActionBuilder {
	requireID("action", id)
	requireName("action", id, name)
	return &ActionBuilder{action: Action{ID: id, Name: name}}
}

func (b *ActionBuilder) Prefix(prefix string) *ActionBuilder {
	b.action.Prefix = prefix
	return b
}

func (b *ActionBuilder) Description(desc string) *ActionBuilder {
	b.action.Description = desc
	return b
}

// Hold enables down/up frames while the button is held.
func (b *ActionBuilder) Hold() *ActionBuilder {
	b.action.Mode = ModeHold
	return b
}

// Static maps the action to a host-executed command.
func (b *ActionBuilder) Static(cmd string) *ActionBuilder {
	if cmd == "" {
		panic(NewMissingExecutionCmdError(b.action.ID))
	}
	b.action.Implementation = Static
	b.action.ExecutionCmd = cmd
	return b
}

// Line appends a format line. Data fields are embedded as {$id$}.
func (b *ActionBuilder) Line(format string) *ActionBuilder {
	b.action.Lines = append(b.action.Lines, format)
	return b
}

// Data appends data fields.
func (b *ActionBuilder) Data(fields ...DataField) *ActionBuilder {
	b.action.Data = append(b.action.Data, fields...)
	return b
}

// Build returns the action. Line and field closure is checked by Validate.
func (b *ActionBuilder) Build() Action {
	out := b.action
	out.Lines = cloneStrings(b.action.Lines)
	out.Data = cloneFields(b.action.Data)
	return out
}

// FieldOption configures a data field.
type FieldOption func(*DataField)

// WithRange bounds a number field.
func WithRange(min, max float64) FieldOption {
	return func(f *DataField) {
		if min > max {
			panic(NewInvalidRangeError(f.ID, min, max))
		}
		f.Min, f.Max = &min, &max
	}
}

// WithDecimals allows non-integer input in a number field.
func WithDecimals() FieldOption {
	return func(f *DataField) { f.AllowDecimals = true }
}

func newField(kind DataKind, id, label string) DataField {
	requireID("data field", id)
	return DataField{ID: id, Label: label, Kind: kind}
}

// TextField declares a free text input.
func TextField(id, label, def string) DataField {
	f := newField(KindText, id, label)
	f.Default = def
	return f
}

// NumberField declares a numeric input.
func NumberField(id, label string, def float64, opts ...FieldOption) DataField {
	f := newField(KindNumber, id, label)
	f.Default = strconv.FormatFloat(def, 'f', -1, 64)
	for _, opt := range opts {
		opt(&f)
	}
	if (f.Min != nil && def < *f.Min) || (f.Max != nil && def > *f.Max) {
		panic(NewDefaultOutOfRangeError(id, def, deref(f.Min), deref(f.Max)))
	}
	return f
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// SwitchField declares an on/off input.
func SwitchField(id, label string, def bool) DataField {
	f := newField(KindSwitch, id, label)
	f.Default = strconv.FormatBool(def)
	return f
}

// ChoiceField declares a drop-down. An empty default selects the first choice.
func ChoiceField(id, label string, choices []string, def string) DataField {
	f := newField(KindChoice, id, label)
	requireChoices("data field", id, choices)
	if def == "" {
		def = choices[0]
	}
	if !contains(choices, def) {
		panic(NewDefaultNotInChoicesError(id, def))
	}
	f.Choices = cloneStrings(choices)
	f.Default = def
	return f
}

// FileField declares a file picker limited to the given extensions.
func FileField(id, label, def string, extensions ...string) DataField {
	f := newField(KindFile, id, label)
	f.Default = def
	f.Extensions = cloneStrings(extensions)
	return f
}

// FolderField declares a folder picker.
func FolderField(id, label, def string) DataField {
	f := newField(KindFolder, id, label)
	f.Default = def
	return f
}

// ColorField declares a colour picker.
func ColorField(id, label string, def Color) DataField {
	f := newField(KindColor, id, label)
	requireColor(id, def)
	f.Default = string(def)
	return f
}

// EventBuilder assembles an Event.
type EventBuilder struct {
	event Event
}

// NewEvent starts an event with a text value.
func NewEvent(id, name string) *EventBuilder {
	requireID("event", id)
	requireName("event", id, name)
	return &EventBuilder{event: Event{ID: id, Name: name, Value: ValueSpec{Type: ValueText}}}
}

// Format sets the text shown in the host's event editor, e.g. "When volume becomes $val".
func (b *EventBuilder) Format(format string) *EventBuilder {
	b.event.Format = format
	return b
}

func (b *EventBuilder) Text() *EventBuilder {
	b.event.Value = ValueSpec{Type: ValueText}
	return b
}

func (b *EventBuilder) Number() *EventBuilder {
	b.event.Value = ValueSpec{Type: ValueNumber}
	return b
}

// Choice compares against one of the given choices.
func (b *EventBuilder) Choice(choices ...string) *EventBuilder {
	requireChoices("event", b.event.ID, choices)
	b.event.Value = ValueSpec{Type: ValueChoice, Choices: cloneStrings(choices)}
	return b
}

// State binds the event to a state.
func (b *EventBuilder) State(stateID string) *EventBuilder {
	b.event.StateRef = stateID
	return b
}

func (b *EventBuilder) Build() Event {
	out := b.event
	out.Value.Choices = cloneStrings(b.event.Value.Choices)
	return out
}

// StateBuilder assembles a State.
type StateBuilder struct {
	state State
}

// NewState starts a text state.
func NewState(id, description string) *StateBuilder {
	requireID("state", id)
	return &StateBuilder{state: State{ID: id, Description: description, Type: ValueText}}
}

func (b *StateBuilder) Initial(v string) *StateBuilder {
	b.state.Initial = v
	return b
}

func (b *StateBuilder) Text() *StateBuilder {
	b.state.Type, b.state.Choices = ValueText, nil
	return b
}

func (b *StateBuilder) Number() *StateBuilder {
	b.state.Type, b.state.Choices = ValueNumber, nil
	return b
}

// Choice restricts the state to the given choices.
func (b *StateBuilder) Choice(choices ...string) *StateBuilder {
	requireChoices("state", b.state.ID, choices)
	b.state.Type, b.state.Choices = ValueChoice, cloneStrings(choices)
	return b
}

// ParentGroup groups the state under a sub-category in the host's state list.
func (b *StateBuilder) ParentGroup(group string) *StateBuilder {
	b.state.ParentGroup = group
	return b
}

// Build returns the state. A choice state's initial value must be one of
// its choices; an empty initial selects the first.
func (b *StateBuilder) Build() State {
	out := b.state
	out.Choices = cloneStrings(b.state.Choices)
	if out.Type == ValueChoice {
		if out.Initial == "" {
			out.Initial = out.Choices[0]
		}
		if !contains(out.Choices, out.Initial) {
			panic(NewDefaultNotInChoicesError(out.ID, out.Initial))
		}
	}
	return out
}

// ConnectorBuilder assembles a Connector.
type ConnectorBuilder struct {
	conn Connector
}

// NewConnector starts a connector.
func NewConnector(id, name string) *ConnectorBuilder {
	requireID("connector", id)
	requireName("connector", id, name)
	return &ConnectorBuilder{conn: Connector{ID: id, Name: name}}
}

// Format sets the connector line, embedding data fields as {$id$}.
func (b *ConnectorBuilder) Format(format string) *ConnectorBuilder {
	b.conn.Format = format
	return b
}

func (b *ConnectorBuilder) Data(fields ...DataField) *ConnectorBuilder {
	b.conn.Data = append(b.conn.Data, fields...)
	return b
}

func (b *ConnectorBuilder) Build() Connector {
	out := b.conn
	out.Data = cloneFields(b.conn.Data)
	return out
}

// SettingBuilder assembles a Setting.
type SettingBuilder struct {
	setting Setting
}

// NewSetting starts a text setting. The name is the setting's identifier.
func NewSetting(name string) *SettingBuilder {
	requireID("setting", name)
	return &SettingBuilder{setting: Setting{Name: name, Type: SettingText}}
}

func (b *SettingBuilder) Initial(v string) *SettingBuilder {
	b.setting.Initial = v
	return b
}

// Number makes the setting numeric, optionally bounded.
func (b *SettingBuilder) Number(opts ...FieldOption) *SettingBuilder {
	b.setting.Type = SettingNumber
	f := DataField{ID: b.setting.Name}
	for _, opt := range opts {
		opt(&f)
	}
	b.setting.Min, b.setting.Max = f.Min, f.Max
	return b
}

func (b *SettingBuilder) ReadOnly() *SettingBuilder {
	b.setting.ReadOnly = true
	return b
}

// Password masks the value in the host UI.
func (b *SettingBuilder) Password() *SettingBuilder {
	b.setting.Password = true
	return b
}

func (b *SettingBuilder) MaxLength(n int) *SettingBuilder {
	b.setting.MaxLength = n
	return b
}

func (b *SettingBuilder) Build() Setting {
	out := b.setting
	if out.Type == SettingNumber && out.Initial != "" {
		v, err := strconv.ParseFloat(out.Initial, 64)
		if err != nil || (out.Min != nil && v < *out.Min) || (out.Max != nil && v > *out.Max) {
			panic(NewDefaultOutOfRangeError(out.Name, v, deref(out.Min), deref(out.Max)))
		}
	}
	return out
}

// Recover converts a construction panic raised by a builder into an error.
// Other panics propagate. Use it as
//
//	defer schema.Recover(&err)
func Recover(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(*errors.Error); ok {
		*err = e
		return
	}
	panic(r)
}
