// validate.go: cross-entity checks over a plugin description
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Rule names reported in diagnostics.
const (
	RuleEmptyCategory         = "empty-category"
	RuleActionNoLines         = "action-no-lines"
	RuleActionUndeclaredField = "action-undeclared-field"
	RuleActionUnusedField     = "action-unused-field"
	RuleEventDanglingState    = "event-dangling-state"
	RuleEventTypeMismatch     = "event-type-mismatch"
	RuleEventChoiceSubset     = "event-choice-subset"
	RuleConnectorUndeclared   = "connector-undeclared-field"
	RuleConnectorUnused       = "connector-unused-field"
	RuleDuplicateID           = "duplicate-id"
	RuleDuplicateChoice       = "duplicate-choice"
	RuleIdentifierCollision   = "identifier-collision"
	RuleInvalidType           = "invalid-type"
	RuleChoiceWithoutChoices  = "choice-without-choices"
	RuleStaticWithoutCommand  = "static-without-command"
	RuleMissingIdentifier     = "missing-identifier"
	RuleInvalidPluginVersion  = "invalid-version"
)

var placeholderPattern = regexp.MustCompile(`\{\$([^{}$]+)\$\}`)

// Placeholders returns the data field ids referenced as {$id$} in format,
// in order of first appearance.
func Placeholders(format string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(format, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// Diagnostic locates one violated invariant.
type Diagnostic struct {
	Path    string
	Rule    string
	Message string
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return d.Rule + ": " + d.Message
	}
	return d.Path + ": " + d.Rule + ": " + d.Message
}

// Diagnostics is the sorted result of Validate. Empty means valid.
type Diagnostics []Diagnostic

// HasErrors reports whether any invariant is violated.
func (ds Diagnostics) HasErrors() bool { return len(ds) > 0 }

// String renders one diagnostic per line.
func (ds Diagnostics) String() string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// Err returns nil for an empty set, otherwise a SCHEMA_4101 error carrying
// every diagnostic.
func (ds Diagnostics) Err() error {
	if len(ds) == 0 {
		return nil
	}
	return NewValidationFailedError(len(ds), ds.String()).
		WithContext("first_rule", ds[0].Rule)
}

// Rules returns the distinct rule names present, sorted.
func (ds Diagnostics) Rules() []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range ds {
		if !seen[d.Rule] {
			seen[d.Rule] = true
			out = append(out, d.Rule)
		}
	}
	sort.Strings(out)
	return out
}

// ValidateOption tunes optional checks.
type ValidateOption func(*validateOptions)

type validateOptions struct {
	strictChoices bool
}

// WithStrictChoices additionally requires the choices of a Choice event to
// be a subset of the choices of the state it references.
func WithStrictChoices() ValidateOption {
	return func(o *validateOptions) { o.strictChoices = true }
}

func categoryPath(c string) string { return "category[" + c + "]" }
func actionPath(c, a string) string { return categoryPath(c) + "/action[" + a + "]" }
func entityPath(parent, kind, id string) string { return parent + "/" + kind + "[" + id + "]" }
func dataPath(parent, id string) string { return entityPath(parent, "data", id) }
func choicePath(parent, c string) string { return entityPath(parent, "choice", c) }
func settingPath(name string) string { return "setting[" + name + "]" }

type validator struct {
	desc  *PluginDescription
	opts  validateOptions
	diags Diagnostics
}

func (v *validator) report(path, rule, format string, args ...interface{}) {
	v.diags = append(v.diags, Diagnostic{Path: path, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

// Validate runs every check over desc and returns all violations, sorted
// by path and rule. It never stops at the first problem.
func Validate(desc *PluginDescription, opts ...ValidateOption) Diagnostics {
	v := &validator{desc: desc}
	for _, opt := range opts {
		opt(&v.opts)
	}
	if desc == nil {
		v.report("", RuleMissingIdentifier, "description is nil")
		return v.diags
	}

	if desc.ID == "" {
		v.report("", RuleMissingIdentifier, "plugin id is empty")
	}
	if desc.Version < 1 {
		v.report("", RuleInvalidPluginVersion, "plugin version must be at least 1")
	}

	v.checkUniqueness()
	for _, c := range desc.Categories {
		v.checkCategory(c)
	}
	for _, s := range desc.Settings {
		if s.Type != SettingText && s.Type != SettingNumber {
			v.report(settingPath(s.Name), RuleInvalidType, "unknown setting type %q", s.Type)
		}
	}
	v.checkIdentifiers()

	sort.SliceStable(v.diags, func(i, j int) bool {
		a, b := v.diags[i], v.diags[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Message < b.Message
	})
	return v.diags
}

func (v *validator) checkCategory(c Category) {
	cp := categoryPath(c.ID)
	if c.ID == "" {
		v.report(cp, RuleMissingIdentifier, "category id is empty")
	}
	if c.Empty() {
		v.report(cp, RuleEmptyCategory, "category declares no action, event, state or connector")
	}
	for _, a := range c.Actions {
		v.checkAction(c, a)
	}
	for _, e := range c.Events {
		v.checkEvent(cp, e)
	}
	for _, s := range c.States {
		sp := entityPath(cp, "state", s.ID)
		if !s.Type.valid() {
			v.report(sp, RuleInvalidType, "unknown state type %q", s.Type)
		}
		if s.Type == ValueChoice && len(s.Choices) == 0 {
			v.report(sp, RuleChoiceWithoutChoices, "choice state declares no choices")
		}
		v.uniqueChoices(sp, s.Choices)
	}
	for _, conn := range c.Connectors {
		kp := entityPath(cp, "connector", conn.ID)
		v.checkFields(kp, conn.Data)
		v.checkClosure(kp, []string{conn.Format}, conn.Data, RuleConnectorUndeclared, RuleConnectorUnused)
	}
}

func (v *validator) checkAction(c Category, a Action) {
	ap := actionPath(c.ID, a.ID)
	if len(a.Lines) == 0 {
		v.report(ap, RuleActionNoLines, "action declares no format lines")
	}
	if a.Implementation == Static && a.ExecutionCmd == "" {
		v.report(ap, RuleStaticWithoutCommand, "static action has no execution command")
	}
	v.checkFields(ap, a.Data)
	v.checkClosure(ap, a.Lines, a.Data, RuleActionUndeclaredField, RuleActionUnusedField)
}

func (v *validator) checkFields(parent string, fields []DataField) {
	for _, f := range fields {
		fp := dataPath(parent, f.ID)
		if f.ID == "" {
			v.report(fp, RuleMissingIdentifier, "data field id is empty")
		}
		if !f.Kind.valid() {
			v.report(fp, RuleInvalidType, "unknown data field type %q", f.Kind)
		}
		if f.Kind == KindChoice && len(f.Choices) == 0 {
			v.report(fp, RuleChoiceWithoutChoices, "choice field declares no choices")
		}
		v.uniqueChoices(fp, f.Choices)
	}
}

// checkClosure requires the placeholders of lines and the declared field
// ids to be the same set.
func (v *validator) checkClosure(path string, lines []string, fields []DataField, undeclared, unused string) {
	declared := make(map[string]bool, len(fields))
	for _, f := range fields {
		declared[f.ID] = true
	}
	referenced := make(map[string]bool)
	for _, line := range lines {
		for _, id := range Placeholders(line) {
			if referenced[id] {
				continue
			}
			referenced[id] = true
			if !declared[id] {
				v.report(dataPath(path, id), undeclared, "placeholder {$%s$} has no declared data field", id)
			}
		}
	}
	for _, f := range fields {
		if !referenced[f.ID] {
			v.report(dataPath(path, f.ID), unused, "data field %q is never referenced as {$%s$}", f.ID, f.ID)
		}
	}
}

func (v *validator) checkEvent(cp string, e Event) {
	ep := entityPath(cp, "event", e.ID)
	if !e.Value.Type.valid() {
		v.report(ep, RuleInvalidType, "unknown event value type %q", e.Value.Type)
	}
	if e.Value.Type == ValueChoice && len(e.Value.Choices) == 0 {
		v.report(ep, RuleChoiceWithoutChoices, "choice event declares no choices")
	}
	v.uniqueChoices(ep, e.Value.Choices)
	if e.StateRef == "" {
		return
	}
	s, ok := v.desc.State(e.StateRef)
	if !ok {
		v.report(ep, RuleEventDanglingState, "referenced state %q does not exist", e.StateRef)
		return
	}
	if s.Type != e.Value.Type {
		v.report(ep, RuleEventTypeMismatch, "event value type %q does not match state %q of type %q",
			e.Value.Type, s.ID, s.Type)
		return
	}
	if v.opts.strictChoices && e.Value.Type == ValueChoice {
		for _, choice := range e.Value.Choices {
			if !contains(s.Choices, choice) {
				v.report(choicePath(ep, choice), RuleEventChoiceSubset,
					"choice %q is not a choice of state %q", choice, s.ID)
			}
		}
	}
}

// checkUniqueness reports repeated ids. Categories, states and settings are
// unique plugin-wide; actions, events and connectors per category; data
// fields per owning action or connector.
func (v *validator) checkUniqueness() {
	categories := make(map[string]bool)
	states := make(map[string]string)
	for _, c := range v.desc.Categories {
		cp := categoryPath(c.ID)
		if categories[c.ID] {
			v.report(cp, RuleDuplicateID, "category id %q is declared more than once", c.ID)
		}
		categories[c.ID] = true

		actions := make(map[string]bool)
		for _, a := range c.Actions {
			if actions[a.ID] {
				v.report(actionPath(c.ID, a.ID), RuleDuplicateID, "action id %q repeats in category %q", a.ID, c.ID)
			}
			actions[a.ID] = true
			v.uniqueFields(actionPath(c.ID, a.ID), a.Data)
		}
		events := make(map[string]bool)
		for _, e := range c.Events {
			if events[e.ID] {
				v.report(entityPath(cp, "event", e.ID), RuleDuplicateID, "event id %q repeats in category %q", e.ID, c.ID)
			}
			events[e.ID] = true
		}
		connectors := make(map[string]bool)
		for _, conn := range c.Connectors {
			kp := entityPath(cp, "connector", conn.ID)
			if connectors[conn.ID] {
				v.report(kp, RuleDuplicateID, "connector id %q repeats in category %q", conn.ID, c.ID)
			}
			connectors[conn.ID] = true
			v.uniqueFields(kp, conn.Data)
		}
		for _, s := range c.States {
			if first, dup := states[s.ID]; dup {
				v.report(entityPath(cp, "state", s.ID), RuleDuplicateID,
					"state id %q is already declared in category %q", s.ID, first)
				continue
			}
			states[s.ID] = c.ID
		}
	}
	settings := make(map[string]bool)
	for _, s := range v.desc.Settings {
		if settings[s.Name] {
			v.report(settingPath(s.Name), RuleDuplicateID, "setting %q is declared more than once", s.Name)
		}
		settings[s.Name] = true
	}
}

func (v *validator) uniqueFields(parent string, fields []DataField) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if seen[f.ID] {
			v.report(dataPath(parent, f.ID), RuleDuplicateID, "data field id %q repeats", f.ID)
		}
		seen[f.ID] = true
	}
}

// uniqueChoices reports a choice listed more than once. Each choice becomes
// one enum constant and one parse case, so repeats cannot be generated.
func (v *validator) uniqueChoices(parent string, choices []string) {
	seen := make(map[string]bool, len(choices))
	reported := make(map[string]bool)
	for _, c := range choices {
		if seen[c] && !reported[c] {
			reported[c] = true
			v.report(choicePath(parent, c), RuleDuplicateChoice, "choice %q is listed more than once", c)
		}
		seen[c] = true
	}
}

// checkIdentifiers reports distinct entities that would produce the same Go
// name in one generated namespace. Repeats of one entity are left to the
// duplicate-id rule.
func (v *validator) checkIdentifiers() {
	type key struct{ ns, name string }
	first := make(map[key]Identifier)
	for _, id := range Identifiers(v.desc) {
		k := key{id.Namespace, id.Name}
		prev, ok := first[k]
		if !ok {
			first[k] = id
			continue
		}
		if prev.Path == id.Path && id.Path != "" {
			continue
		}
		path := id.Path
		if path == "" {
			path = prev.Path
		}
		other := prev.Path
		if other == "" {
			other = "a generated declaration"
		}
		v.report(path, RuleIdentifierCollision, "generated name %s in %s clashes with %s", id.Name, id.Namespace, other)
	}
}
