// generate.go: definition document and typed bindings from a description
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Package codegen turns a validated plugin description into the host
// definition document and a Go file of typed bindings over the runtime.
//
// Generation is mechanical: it performs no checks of its own and assumes
// schema.Validate reported nothing. Build runs validation first.
package codegen

import (
	"bytes"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"text/template"

	"github.com/agilira/go-touchportal/schema"
)

// Defaults used when Options leaves a field empty.
const (
	DefaultPackage       = "tpbind"
	DefaultRuntimeImport = "github.com/agilira/go-touchportal"
)

// Options controls the generated bindings.
type Options struct {
	// Package is the package clause of the bindings file.
	Package string
	// RuntimeImport is the import path of the runtime package.
	RuntimeImport string
}

func (o Options) withDefaults() Options {
	if o.Package == "" {
		o.Package = DefaultPackage
	}
	if o.RuntimeImport == "" {
		o.RuntimeImport = DefaultRuntimeImport
	}
	return o
}

// Artifacts are the two generated outputs, held in memory.
type Artifacts struct {
	Definition []byte
	Bindings   []byte
}

var bindingsTmpl = template.Must(template.New("bindings").
	Funcs(template.FuncMap{"quote": strconv.Quote}).
	Option("missingkey=error").
	Parse(bindingsTemplate))

// Generate produces both artifacts. Equal inputs give byte-identical output.
func Generate(desc *schema.PluginDescription, opts Options) (*Artifacts, error) {
	opts = opts.withDefaults()
	if !token.IsIdentifier(opts.Package) {
		return nil, NewInvalidPackageError(opts.Package)
	}

	def, err := schema.MarshalDefinition(desc)
	if err != nil {
		return nil, NewDefinitionFailedError(err)
	}
	src, err := GenerateBindings(desc, opts)
	if err != nil {
		return nil, err
	}
	return &Artifacts{Definition: def, Bindings: src}, nil
}

// GenerateBindings renders and gofmts the bindings file only.
func GenerateBindings(desc *schema.PluginDescription, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	if !token.IsIdentifier(opts.Package) {
		return nil, NewInvalidPackageError(opts.Package)
	}

	var buf bytes.Buffer
	if err := bindingsTmpl.Execute(&buf, newView(desc, opts)); err != nil {
		return nil, NewTemplateFailedError(err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, NewFormatFailedError(err, buf.Bytes())
	}
	return src, nil
}

type constDecl struct {
	Name  string
	Value string
}

type enumDecl struct {
	Name   string
	Doc    string
	Consts []constDecl
}

type paramDecl struct {
	Name   string
	Type   string
	Decode string
	Arg    string
}

type callbackDecl struct {
	Method string
	Doc    string
	Const  string
	Action bool
	Params []paramDecl
}

type settingDecl struct {
	Name    string
	Field   string
	Method  string
	Type    string
	Default string
	Number  bool
	Convert string
}

type stateDecl struct {
	Method  string
	Desc    string
	Const   string
	Type    string
	Convert string
}

type eventDecl struct {
	Method string
	Name   string
	Const  string
}

type view struct {
	Package       string
	RuntimeImport string
	PluginID      string
	PluginName    string

	NeedFmt     bool
	NeedStrconv bool
	NeedChoice  bool

	ActionIDs    []constDecl
	EventIDs     []constDecl
	StateIDs     []constDecl
	ConnectorIDs []constDecl
	Enums        []enumDecl
	Callbacks    []callbackDecl
	Settings     []settingDecl
	States       []stateDecl
	Events       []eventDecl
}

const formatFloat = "strconv.FormatFloat(value, 'f', -1, 64)"

// oneLine keeps user text from breaking out of a line comment.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func newView(desc *schema.PluginDescription, opts Options) *view {
	n := schema.NamesFor(desc)
	v := &view{
		Package:       opts.Package,
		RuntimeImport: opts.RuntimeImport,
		PluginID:      desc.ID,
		PluginName:    oneLine(desc.Name),
	}

	enum := func(name, doc string, choices []string) {
		e := enumDecl{Name: name, Doc: doc}
		for _, c := range choices {
			e.Consts = append(e.Consts, constDecl{Name: n.EnumConst(name, c), Value: c})
		}
		v.Enums = append(v.Enums, e)
	}
	params := func(fields []schema.DataField, src string, enumName func(schema.DataField) string) []paramDecl {
		var out []paramDecl
		for _, f := range fields {
			p := paramDecl{Name: n.Param(f.ID)}
			p.Arg = p.Name
			id := strconv.Quote(f.ID)
			switch f.Kind {
			case schema.KindNumber:
				p.Type, p.Decode = "float64", src+".Data.Number("+id+")"
			case schema.KindSwitch:
				p.Type, p.Decode = "bool", src+".Data.Switch("+id+")"
			case schema.KindChoice:
				p.Type = enumName(f)
				p.Decode = "choiceValue(" + src + ".Data, " + id + ", Parse" + p.Type + ")"
				v.NeedChoice = true
			default:
				p.Type, p.Decode = "string", src+".Data.Text("+id+")"
			}
			out = append(out, p)
		}
		return out
	}

	for _, c := range desc.Categories {
		for _, a := range c.Actions {
			v.ActionIDs = append(v.ActionIDs, constDecl{Name: n.ActionConst(a), Value: a.ID})
			if !a.Dynamic() {
				continue
			}
			for _, f := range a.Data {
				if f.Kind == schema.KindChoice {
					enum(n.ActionEnum(a, f), "the "+strconv.Quote(oneLine(f.Label))+" choice of the "+
						strconv.Quote(oneLine(a.Name))+" action", f.Choices)
				}
			}
			cb := callbackDecl{
				Method: n.ActionMethod(a),
				Doc:    "handles the " + strconv.Quote(oneLine(a.Name)) + " action.",
				Const:  n.ActionConst(a),
				Action: true,
			}
			if a.Mode == schema.ModeHold {
				cb.Doc += " Held buttons report PhaseDown and PhaseUp."
				cb.Params = append(cb.Params, paramDecl{Name: "phase", Type: "touchportal.Phase", Arg: "inv.Phase"})
			}
			cb.Params = append(cb.Params, params(a.Data, "inv", func(f schema.DataField) string {
				return n.ActionEnum(a, f)
			})...)
			v.Callbacks = append(v.Callbacks, cb)
		}
		for _, e := range c.Events {
			v.EventIDs = append(v.EventIDs, constDecl{Name: n.EventConst(e), Value: e.ID})
			v.Events = append(v.Events, eventDecl{Method: n.EventMethod(e), Name: oneLine(e.Name), Const: n.EventConst(e)})
		}
		for _, s := range c.States {
			v.StateIDs = append(v.StateIDs, constDecl{Name: n.StateConst(s), Value: s.ID})
			sd := stateDecl{Method: n.StateMethod(s), Desc: oneLine(s.Description), Const: n.StateConst(s)}
			switch s.Type {
			case schema.ValueNumber:
				sd.Type, sd.Convert = "float64", formatFloat
				v.NeedStrconv = true
			case schema.ValueChoice:
				sd.Type, sd.Convert = n.StateEnum(s), "string(value)"
				enum(n.StateEnum(s), "the value of the "+strconv.Quote(oneLine(s.Description))+" state", s.Choices)
			default:
				sd.Type, sd.Convert = "string", "value"
			}
			v.States = append(v.States, sd)
		}
		for _, conn := range c.Connectors {
			v.ConnectorIDs = append(v.ConnectorIDs, constDecl{Name: n.ConnectorConst(conn), Value: conn.ID})
			for _, f := range conn.Data {
				if f.Kind == schema.KindChoice {
					enum(n.ConnectorEnum(conn, f), "the "+strconv.Quote(oneLine(f.Label))+" choice of the "+
						strconv.Quote(oneLine(conn.Name))+" connector", f.Choices)
				}
			}
			cb := callbackDecl{
				Method: n.ConnectorMethod(conn),
				Doc:    "handles moves of the " + strconv.Quote(oneLine(conn.Name)) + " connector; value is 0 to 100.",
				Const:  n.ConnectorConst(conn),
				Params: []paramDecl{{Name: "value", Type: "int", Arg: "change.Value"}},
			}
			cb.Params = append(cb.Params, params(conn.Data, "change", func(f schema.DataField) string {
				return n.ConnectorEnum(conn, f)
			})...)
			v.Callbacks = append(v.Callbacks, cb)
		}
	}

	for _, s := range desc.Settings {
		sd := settingDecl{
			Name:   s.Name,
			Field:  n.SettingField(s),
			Method: n.SettingMethod(s),
		}
		if s.Type == schema.SettingNumber {
			def := 0.0
			if f, err := strconv.ParseFloat(s.Initial, 64); err == nil {
				def = f
			}
			sd.Type, sd.Number, sd.Convert = "float64", true, formatFloat
			sd.Default = strconv.FormatFloat(def, 'g', -1, 64)
			v.NeedStrconv = true
		} else {
			sd.Type, sd.Convert = "string", "value"
			sd.Default = strconv.Quote(s.Initial)
		}
		v.Settings = append(v.Settings, sd)
	}

	v.NeedFmt = len(v.Enums) > 0
	return v
}
