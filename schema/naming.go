// naming.go: Go identifiers derived from description ids
//
// The generator and the validator share these rules so that every
// identifier collision is reported before any code is emitted.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"go/token"
	"go/types"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Generated namespaces. Identifiers only collide within one namespace.
const (
	NamespacePackage   = "package"
	NamespaceCallbacks = "Callbacks"
	NamespaceHandle    = "Handle"
	NamespaceSettings  = "Settings"
)

// Fixed package-level names emitted by the generator.
var fixedPackageNames = []string{
	"PluginID", "Callbacks", "SettingsListener", "ListChangeListener", "BroadcastListener",
	"NotificationListener", "Settings", "Handle", "Factory", "NewBinding", "NewHandle", "Run",
	"choiceValue", "settingsFrom", "defaultSettings",
}

var fixedHandleMethods = []string{"Raw", "UpdateConnector", "UpdateChoices", "UpdateChoicesFor", "ShowNotification"}

// Listener methods share the type that implements Callbacks.
var fixedCallbackMethods = []string{"OnClose", "OnSettings", "OnListChange", "OnBroadcast", "OnNotificationClicked"}

// Parameter names the generated callbacks and glue already use.
var reservedParams = map[string]bool{
	"ctx": true, "inv": true, "change": true, "err": true, "cb": true,
	"phase": true, "value": true, "choiceValue": true, "touchportal": true,
	"context": true, "fmt": true, "strconv": true, "settingsFrom": true,
	"defaultSettings": true,
}

// Names maps description ids to Go identifiers.
type Names struct {
	prefix string
}

// NamesFor returns the naming rules for a description. Ids that start with
// the plugin id and a dot are named by their remainder.
func NamesFor(desc *PluginDescription) Names {
	if desc == nil || desc.ID == "" {
		return Names{}
	}
	return Names{prefix: desc.ID + "."}
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func title(w string) string {
	return cases.Title(language.Und, cases.NoLower).String(w)
}

func (n Names) trim(id string) string {
	if n.prefix != "" && strings.HasPrefix(id, n.prefix) && len(id) > len(n.prefix) {
		return id[len(n.prefix):]
	}
	return id
}

// Type returns the exported UpperCamel form of an id.
func (n Names) Type(id string) string {
	var b strings.Builder
	for _, w := range words(n.trim(id)) {
		b.WriteString(title(w))
	}
	out := b.String()
	if out == "" || unicode.IsDigit([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

// Param returns the lowerCamel parameter name of a data field id.
func (n Names) Param(id string) string {
	ws := words(id)
	var b strings.Builder
	for i, w := range ws {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(title(w))
	}
	out := b.String()
	if out == "" || unicode.IsDigit([]rune(out)[0]) {
		out = "v" + out
	}
	if token.IsKeyword(out) || types.Universe.Lookup(out) != nil || reservedParams[out] {
		out += "Arg"
	}
	return out
}

func (n Names) ActionConst(a Action) string { return "Action" + n.Type(a.ID) + "ID" }
func (n Names) EventConst(e Event) string { return "Event" + n.Type(e.ID) + "ID" }
func (n Names) StateConst(s State) string { return "State" + n.Type(s.ID) + "ID" }
func (n Names) ConnectorConst(c Connector) string { return "Connector" + n.Type(c.ID) + "ID" }
func (n Names) ActionMethod(a Action) string { return "On" + n.Type(a.ID) }
func (n Names) ConnectorMethod(c Connector) string { return "On" + n.Type(c.ID) + "Change" }
func (n Names) StateMethod(s State) string { return "Update" + n.Type(s.ID) }
func (n Names) EventMethod(e Event) string { return "Trigger" + n.Type(e.ID) }
func (n Names) SettingMethod(s Setting) string { return "Set" + n.Type(s.Name) }
func (n Names) SettingField(s Setting) string { return n.Type(s.Name) }

// ActionEnum names the enum type of a choice field of an action.
func (n Names) ActionEnum(a Action, f DataField) string {
	return n.Type(a.ID) + n.Type(f.ID)
}

// ConnectorEnum names the enum type of a choice field of a connector.
func (n Names) ConnectorEnum(c Connector, f DataField) string {
	return n.Type(c.ID) + n.Type(f.ID)
}

// StateEnum names the enum type of a choice state.
func (n Names) StateEnum(s State) string {
	return n.Type(s.ID) + "Value"
}

// EnumConst names the constant for one choice of an enum type.
func (n Names) EnumConst(typeName, choice string) string {
	var b strings.Builder
	for _, w := range words(choice) {
		b.WriteString(title(w))
	}
	if b.Len() == 0 {
		return typeName + "Empty"
	}
	return typeName + b.String()
}

// Identifier is one generated Go name and the entity it comes from.
type Identifier struct {
	Namespace string
	Name      string
	Path      string
}

// Identifiers lists every name the generator would emit for desc, in
// declaration order. Per-signature parameter namespaces are named after
// the callback method.
func Identifiers(desc *PluginDescription) []Identifier {
	n := NamesFor(desc)
	var out []Identifier
	add := func(ns, name, path string) {
		out = append(out, Identifier{Namespace: ns, Name: name, Path: path})
	}

	for _, name := range fixedPackageNames {
		add(NamespacePackage, name, "")
	}
	for _, name := range fixedHandleMethods {
		add(NamespaceHandle, name, "")
	}
	for _, name := range fixedCallbackMethods {
		add(NamespaceCallbacks, name, "")
	}

	enum := func(typeName, path string, choices []string) {
		add(NamespacePackage, typeName, path)
		add(NamespacePackage, "Parse"+typeName, path)
		for _, c := range choices {
			add(NamespacePackage, n.EnumConst(typeName, c), choicePath(path, c))
		}
	}
	params := func(method string, fields []DataField, path string) {
		for _, f := range fields {
			add(method+"()", n.Param(f.ID), dataPath(path, f.ID))
		}
	}

	for _, c := range desc.Categories {
		cp := categoryPath(c.ID)
		for _, a := range c.Actions {
			ap := actionPath(c.ID, a.ID)
			add(NamespacePackage, n.ActionConst(a), ap)
			if !a.Dynamic() {
				continue
			}
			add(NamespaceCallbacks, n.ActionMethod(a), ap)
			params(n.ActionMethod(a), a.Data, ap)
			for _, f := range a.Data {
				if f.Kind == KindChoice {
					enum(n.ActionEnum(a, f), dataPath(ap, f.ID), f.Choices)
				}
			}
		}
		for _, e := range c.Events {
			ep := entityPath(cp, "event", e.ID)
			add(NamespacePackage, n.EventConst(e), ep)
			add(NamespaceHandle, n.EventMethod(e), ep)
		}
		for _, s := range c.States {
			sp := entityPath(cp, "state", s.ID)
			add(NamespacePackage, n.StateConst(s), sp)
			add(NamespaceHandle, n.StateMethod(s), sp)
			if s.Type == ValueChoice {
				enum(n.StateEnum(s), sp, s.Choices)
			}
		}
		for _, conn := range c.Connectors {
			kp := entityPath(cp, "connector", conn.ID)
			add(NamespacePackage, n.ConnectorConst(conn), kp)
			add(NamespaceCallbacks, n.ConnectorMethod(conn), kp)
			params(n.ConnectorMethod(conn), conn.Data, kp)
			for _, f := range conn.Data {
				if f.Kind == KindChoice {
					enum(n.ConnectorEnum(conn, f), dataPath(kp, f.ID), f.Choices)
				}
			}
		}
	}
	for _, s := range desc.Settings {
		sp := settingPath(s.Name)
		add(NamespaceSettings, n.SettingField(s), sp)
		add(NamespaceHandle, n.SettingMethod(s), sp)
	}
	return out
}
