// definition.go: host definition document (entry.tp) encoding and decoding
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	actionTypeCommunicate = "communicate"
	actionTypeExecute     = "execute"
	eventTypeCommunicate  = "communicate"
	defaultLanguage       = "default"
)

type definitionDoc struct {
	SDK           APIVersion       `json:"sdk" yaml:"sdk"`
	Version       uint             `json:"version" yaml:"version"`
	Name          string           `json:"name" yaml:"name"`
	ID            string           `json:"id" yaml:"id"`
	Configuration configurationDoc `json:"configuration" yaml:"configuration"`
	StartCmd      string           `json:"plugin_start_cmd,omitempty" yaml:"plugin_start_cmd,omitempty"`
	Settings      []settingDoc     `json:"settings,omitempty" yaml:"settings,omitempty"`
	Categories    []categoryDoc    `json:"categories" yaml:"categories"`
}

type configurationDoc struct {
	ColorDark      string `json:"colorDark,omitempty" yaml:"colorDark,omitempty"`
	ColorLight     string `json:"colorLight,omitempty" yaml:"colorLight,omitempty"`
	ParentCategory string `json:"parentCategory,omitempty" yaml:"parentCategory,omitempty"`
}

type settingDoc struct {
	Name      string   `json:"name" yaml:"name"`
	Type      string   `json:"type" yaml:"type"`
	Default   string   `json:"default" yaml:"default"`
	ReadOnly  bool     `json:"readOnly,omitempty" yaml:"readOnly,omitempty"`
	Password  bool     `json:"isPassword,omitempty" yaml:"isPassword,omitempty"`
	MaxLength int      `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Min       *float64 `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	Max       *float64 `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
}

type categoryDoc struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	ImagePath  string         `json:"imagepath,omitempty" yaml:"imagepath,omitempty"`
	Actions    []actionDoc    `json:"actions,omitempty" yaml:"actions,omitempty"`
	Events     []eventDoc     `json:"events,omitempty" yaml:"events,omitempty"`
	States     []stateDoc     `json:"states,omitempty" yaml:"states,omitempty"`
	Connectors []connectorDoc `json:"connectors,omitempty" yaml:"connectors,omitempty"`
}

type actionDoc struct {
	ID           string     `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Prefix       string     `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Type         string     `json:"type" yaml:"type"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty"`
	ExecutionCmd string     `json:"execution_cmd,omitempty" yaml:"execution_cmd,omitempty"`
	Hold         bool       `json:"hasHoldFunctionality,omitempty" yaml:"hasHoldFunctionality,omitempty"`
	Lines        linesDoc   `json:"lines" yaml:"lines"`
	Data         []fieldDoc `json:"data,omitempty" yaml:"data,omitempty"`
}

type linesDoc struct {
	Action []lineSetDoc `json:"action" yaml:"action"`
}

type lineSetDoc struct {
	Language string    `json:"language" yaml:"language"`
	Data     []lineDoc `json:"data" yaml:"data"`
}

type lineDoc struct {
	LineFormat string `json:"lineFormat" yaml:"lineFormat"`
}

type fieldDoc struct {
	ID            string      `json:"id" yaml:"id"`
	Type          string      `json:"type" yaml:"type"`
	Label         string      `json:"label,omitempty" yaml:"label,omitempty"`
	Default       interface{} `json:"default" yaml:"default"`
	Choices       []string    `json:"valueChoices,omitempty" yaml:"valueChoices,omitempty"`
	Min           *float64    `json:"minValue,omitempty" yaml:"minValue,omitempty"`
	Max           *float64    `json:"maxValue,omitempty" yaml:"maxValue,omitempty"`
	AllowDecimals bool        `json:"allowDecimals,omitempty" yaml:"allowDecimals,omitempty"`
	Extensions    []string    `json:"extensions,omitempty" yaml:"extensions,omitempty"`
}

type eventDoc struct {
	ID        string   `json:"id" yaml:"id"`
	Name      string   `json:"name" yaml:"name"`
	Format    string   `json:"format" yaml:"format"`
	Type      string   `json:"type" yaml:"type"`
	ValueType string   `json:"valueType" yaml:"valueType"`
	Choices   []string `json:"valueChoices,omitempty" yaml:"valueChoices,omitempty"`
	StateID   string   `json:"valueStateId,omitempty" yaml:"valueStateId,omitempty"`
}

type stateDoc struct {
	ID          string   `json:"id" yaml:"id"`
	Type        string   `json:"type" yaml:"type"`
	Description string   `json:"desc" yaml:"desc"`
	Default     string   `json:"default" yaml:"default"`
	Choices     []string `json:"valueChoices,omitempty" yaml:"valueChoices,omitempty"`
	ParentGroup string   `json:"parentGroup,omitempty" yaml:"parentGroup,omitempty"`
}

type connectorDoc struct {
	ID     string     `json:"id" yaml:"id"`
	Name   string     `json:"name" yaml:"name"`
	Format string     `json:"format" yaml:"format"`
	Data   []fieldDoc `json:"data,omitempty" yaml:"data,omitempty"`
}

// MarshalDefinition serializes desc as the indented JSON document the host
// reads from entry.tp. The output is deterministic.
func MarshalDefinition(desc *PluginDescription) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toDoc(desc)); err != nil {
		return nil, NewDefinitionEncodeError(err)
	}
	return buf.Bytes(), nil
}

// MarshalYAML renders the same document as YAML.
func MarshalYAML(desc *PluginDescription) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toDoc(desc)); err != nil {
		return nil, NewDefinitionEncodeError(err)
	}
	if err := enc.Close(); err != nil {
		return nil, NewDefinitionEncodeError(err)
	}
	return buf.Bytes(), nil
}

// ParseDefinition rebuilds a description from a JSON definition document.
// Entities are rebuilt through the builders, so field-local problems are
// returned as their SCHEMA_40xx errors wrapped in a decode error.
func ParseDefinition(data []byte) (*PluginDescription, error) {
	var doc definitionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, NewDefinitionDecodeError("invalid JSON", err)
	}
	return fromDoc(&doc)
}

func toDoc(desc *PluginDescription) *definitionDoc {
	doc := &definitionDoc{
		SDK:     desc.API,
		Version: desc.Version,
		Name:    desc.Name,
		ID:      desc.ID,
		Configuration: configurationDoc{
			ColorDark:      string(desc.Configuration.ColorDark),
			ColorLight:     string(desc.Configuration.ColorLight),
			ParentCategory: string(desc.Configuration.ParentCategory),
		},
		StartCmd:   desc.StartCmd,
		Categories: []categoryDoc{},
	}
	for _, s := range desc.Settings {
		doc.Settings = append(doc.Settings, settingDoc{
			Name:      s.Name,
			Type:      string(s.Type),
			Default:   s.Initial,
			ReadOnly:  s.ReadOnly,
			Password:  s.Password,
			MaxLength: s.MaxLength,
			Min:       s.Min,
			Max:       s.Max,
		})
	}
	for _, c := range desc.Categories {
		cd := categoryDoc{ID: c.ID, Name: c.Name, ImagePath: c.ImagePath}
		for _, a := range c.Actions {
			ad := actionDoc{
				ID:          a.ID,
				Name:        a.Name,
				Prefix:      a.Prefix,
				Type:        actionTypeCommunicate,
				Description: a.Description,
				Hold:        a.Mode == ModeHold,
				Data:        toFieldDocs(a.Data),
			}
			if a.Implementation == Static {
				ad.Type = actionTypeExecute
				ad.ExecutionCmd = a.ExecutionCmd
			}
			set := lineSetDoc{Language: defaultLanguage, Data: []lineDoc{}}
			for _, l := range a.Lines {
				set.Data = append(set.Data, lineDoc{LineFormat: l})
			}
			ad.Lines.Action = []lineSetDoc{set}
			cd.Actions = append(cd.Actions, ad)
		}
		for _, e := range c.Events {
			cd.Events = append(cd.Events, eventDoc{
				ID:        e.ID,
				Name:      e.Name,
				Format:    e.Format,
				Type:      eventTypeCommunicate,
				ValueType: string(e.Value.Type),
				Choices:   e.Value.Choices,
				StateID:   e.StateRef,
			})
		}
		for _, s := range c.States {
			cd.States = append(cd.States, stateDoc{
				ID:          s.ID,
				Type:        string(s.Type),
				Description: s.Description,
				Default:     s.Initial,
				Choices:     s.Choices,
				ParentGroup: s.ParentGroup,
			})
		}
		for _, conn := range c.Connectors {
			cd.Connectors = append(cd.Connectors, connectorDoc{
				ID:     conn.ID,
				Name:   conn.Name,
				Format: conn.Format,
				Data:   toFieldDocs(conn.Data),
			})
		}
		doc.Categories = append(doc.Categories, cd)
	}
	return doc
}

func toFieldDocs(fields []DataField) []fieldDoc {
	var out []fieldDoc
	for _, f := range fields {
		fd := fieldDoc{
			ID:            f.ID,
			Type:          string(f.Kind),
			Label:         f.Label,
			Default:       f.Default,
			Choices:       f.Choices,
			Min:           f.Min,
			Max:           f.Max,
			AllowDecimals: f.AllowDecimals,
			Extensions:    f.Extensions,
		}
		switch f.Kind {
		case KindNumber:
			if v, err := strconv.ParseFloat(f.Default, 64); err == nil {
				fd.Default = v
			}
		case KindSwitch:
			if v, err := strconv.ParseBool(f.Default); err == nil {
				fd.Default = v
			}
		}
		out = append(out, fd)
	}
	return out
}

func fromDoc(doc *definitionDoc) (*PluginDescription, error) {
	desc, err := buildFromDoc(doc)
	if err != nil {
		return nil, NewDefinitionDecodeError("invalid entity", err)
	}
	return desc, nil
}

func buildFromDoc(doc *definitionDoc) (desc *PluginDescription, err error) {
	defer Recover(&err)

	pb := NewPlugin(doc.ID, doc.Name).Version(doc.Version).StartCmd(doc.StartCmd)
	if doc.SDK != 0 {
		pb.API(doc.SDK)
	}
	if doc.Configuration.ColorDark != "" || doc.Configuration.ColorLight != "" {
		pb.Colors(Color(doc.Configuration.ColorDark), Color(doc.Configuration.ColorLight))
	}
	if doc.Configuration.ParentCategory != "" {
		pb.Parent(ParentCategory(doc.Configuration.ParentCategory))
	}
	for _, sd := range doc.Settings {
		pb.Setting(settingFromDoc(sd))
	}
	for _, cd := range doc.Categories {
		cb := NewCategory(cd.ID, cd.Name).ImagePath(cd.ImagePath)
		for _, ad := range cd.Actions {
			cb.Action(actionFromDoc(ad))
		}
		for _, ed := range cd.Events {
			cb.Event(eventFromDoc(ed))
		}
		for _, sd := range cd.States {
			cb.State(stateFromDoc(sd))
		}
		for _, kd := range cd.Connectors {
			cb.Connector(NewConnector(kd.ID, kd.Name).
				Format(kd.Format).
				Data(fieldsFromDoc(kd.Data)...).
				Build())
		}
		pb.Category(cb.Build())
	}
	return pb.Build(), nil
}

func settingFromDoc(sd settingDoc) Setting {
	sb := NewSetting(sd.Name).Initial(sd.Default).MaxLength(sd.MaxLength)
	switch SettingType(sd.Type) {
	case SettingNumber:
		sb.Number()
	case SettingText, "":
	default:
		panic(NewInvalidKindError("setting", sd.Type))
	}
	if sd.ReadOnly {
		sb.ReadOnly()
	}
	if sd.Password {
		sb.Password()
	}
	s := sb.Build()
	s.Min, s.Max = sd.Min, sd.Max
	return s
}

func actionFromDoc(ad actionDoc) Action {
	ab := NewAction(ad.ID, ad.Name).
		Prefix(ad.Prefix).
		Description(ad.Description).
		Data(fieldsFromDoc(ad.Data)...)
	switch ad.Type {
	case actionTypeCommunicate, "":
	case actionTypeExecute:
		ab.Static(ad.ExecutionCmd)
	default:
		panic(NewInvalidKindError("action", ad.Type))
	}
	if ad.Hold {
		ab.Hold()
	}
	if set, ok := defaultLines(ad.Lines.Action); ok {
		for _, l := range set.Data {
			ab.Line(l.LineFormat)
		}
	}
	return ab.Build()
}

// defaultLines picks the language-neutral line set.
func defaultLines(sets []lineSetDoc) (lineSetDoc, bool) {
	for _, set := range sets {
		if set.Language == "" || set.Language == defaultLanguage {
			return set, true
		}
	}
	return lineSetDoc{}, false
}

func eventFromDoc(ed eventDoc) Event {
	eb := NewEvent(ed.ID, ed.Name).Format(ed.Format).State(ed.StateID)
	switch ValueType(ed.ValueType) {
	case ValueText, "":
	case ValueNumber:
		eb.Number()
	case ValueChoice:
		eb.Choice(ed.Choices...)
	default:
		panic(NewInvalidKindError("event", ed.ValueType))
	}
	return eb.Build()
}

func stateFromDoc(sd stateDoc) State {
	sb := NewState(sd.ID, sd.Description).Initial(sd.Default).ParentGroup(sd.ParentGroup)
	switch ValueType(sd.Type) {
	case ValueText, "":
	case ValueNumber:
		sb.Number()
	case ValueChoice:
		sb.Choice(sd.Choices...)
	default:
		panic(NewInvalidKindError("state", sd.Type))
	}
	return sb.Build()
}

func fieldsFromDoc(docs []fieldDoc) []DataField {
	var out []DataField
	for _, fd := range docs {
		out = append(out, fieldFromDoc(fd))
	}
	return out
}

func fieldFromDoc(fd fieldDoc) DataField {
	def := defaultString(fd.Default)
	var f DataField
	switch DataKind(fd.Type) {
	case KindText:
		f = TextField(fd.ID, fd.Label, def)
	case KindNumber:
		v := 0.0
		if def != "" {
			parsed, err := strconv.ParseFloat(def, 64)
			if err != nil {
				panic(NewInvalidKindError("number default", def))
			}
			v = parsed
		}
		var opts []FieldOption
		if fd.Min != nil && fd.Max != nil {
			opts = append(opts, WithRange(*fd.Min, *fd.Max))
		}
		if fd.AllowDecimals {
			opts = append(opts, WithDecimals())
		}
		f = NumberField(fd.ID, fd.Label, v, opts...)
		if fd.Min == nil || fd.Max == nil {
			f.Min, f.Max = fd.Min, fd.Max
		}
	case KindSwitch:
		f = SwitchField(fd.ID, fd.Label, def == "true")
	case KindChoice:
		f = ChoiceField(fd.ID, fd.Label, fd.Choices, def)
	case KindFile:
		f = FileField(fd.ID, fd.Label, def, fd.Extensions...)
	case KindFolder:
		f = FolderField(fd.ID, fd.Label, def)
	case KindColor:
		f = ColorField(fd.ID, fd.Label, Color(def))
	default:
		panic(NewInvalidKindError("data field", fd.Type))
	}
	return f
}

// defaultString normalizes a decoded default. JSON yields float64 and
// bool, YAML additionally int.
func defaultString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprint(t)
	}
}
