// model.go: in-memory plugin description
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

// DefaultSDKVersion is the host API version emitted when none is set.
const DefaultSDKVersion APIVersion = 6

// APIVersion is the host protocol/API version tag ("sdk" in the definition document).
type APIVersion int

// Color is a #RRGGBB or #AARRGGBB colour string.
type Color string

// ParentCategory places the plugin in the host's category tree.
type ParentCategory string

const (
	ParentMisc           ParentCategory = "misc"
	ParentAudio          ParentCategory = "audio"
	ParentStreaming      ParentCategory = "streaming"
	ParentContent        ParentCategory = "content"
	ParentHomeAutomation ParentCategory = "homeautomation"
	ParentSocial         ParentCategory = "social"
	ParentGames          ParentCategory = "games"
	ParentTools          ParentCategory = "tools"
)

// InteractionMode controls how the host triggers an action. There is no
// toggle mode: a button that flips state is an execute action whose handler
// updates a state, and press/release pairs come from ModeHold.
type InteractionMode int

const (
	// ModeExecute sends one action frame per activation.
	ModeExecute InteractionMode = iota
	// ModeHold additionally sends down and up frames while held.
	ModeHold
)

// Implementation selects who executes an action.
type Implementation int

const (
	// Dynamic actions are dispatched to the plugin's callbacks.
	Dynamic Implementation = iota
	// Static actions run a command on the host; the plugin never sees them.
	Static
)

// DataKind is the type of an action or connector data field.
type DataKind string

const (
	KindText   DataKind = "text"
	KindNumber DataKind = "number"
	KindSwitch DataKind = "switch"
	KindChoice DataKind = "choice"
	KindFile   DataKind = "file"
	KindFolder DataKind = "folder"
	KindColor  DataKind = "color"
)

func (k DataKind) valid() bool {
	switch k {
	case KindText, KindNumber, KindSwitch, KindChoice, KindFile, KindFolder, KindColor:
		return true
	}
	return false
}

// ValueType is the type tag of states and event values.
type ValueType string

const (
	ValueText   ValueType = "text"
	ValueNumber ValueType = "number"
	ValueChoice ValueType = "choice"
)

func (v ValueType) valid() bool {
	return v == ValueText || v == ValueNumber || v == ValueChoice
}

// SettingType is the type of a persisted setting.
type SettingType string

const (
	SettingText   SettingType = "text"
	SettingNumber SettingType = "number"
)

// PluginDescription is the root of a plugin declaration.
type PluginDescription struct {
	ID            string
	Name          string
	Version       uint
	API           APIVersion
	Configuration Configuration
	StartCmd      string
	Settings      []Setting
	Categories    []Category
}

// Configuration holds the plugin's visual configuration.
type Configuration struct {
	ColorDark      Color
	ColorLight     Color
	ParentCategory ParentCategory
}

// Category groups entities in the host UI.
type Category struct {
	ID         string
	Name       string
	ImagePath  string
	Actions    []Action
	Events     []Event
	States     []State
	Connectors []Connector
}

// Empty reports whether the category declares nothing.
func (c Category) Empty() bool {
	return len(c.Actions) == 0 && len(c.Events) == 0 && len(c.States) == 0 && len(c.Connectors) == 0
}

// Action is something a button can trigger.
type Action struct {
	ID             string
	Name           string
	Prefix         string
	Description    string
	Mode           InteractionMode
	Implementation Implementation
	ExecutionCmd   string
	Lines          []string
	Data           []DataField
}

// Dynamic reports whether the action is dispatched to the plugin.
func (a Action) Dynamic() bool { return a.Implementation == Dynamic }

// DataField is a typed input of an action or connector.
type DataField struct {
	ID            string
	Label         string
	Kind          DataKind
	Default       string
	Choices       []string
	Min           *float64
	Max           *float64
	AllowDecimals bool
	Extensions    []string
}

// Event is a host-side trigger condition bound to a value.
type Event struct {
	ID       string
	Name     string
	Format   string
	Value    ValueSpec
	StateRef string
}

// ValueSpec is the value an event compares against.
type ValueSpec struct {
	Type    ValueType
	Choices []string
}

// State is a value the plugin publishes to the host.
type State struct {
	ID          string
	Description string
	Initial     string
	Type        ValueType
	Choices     []string
	ParentGroup string
}

// Connector is a continuously adjustable control such as a slider.
type Connector struct {
	ID     string
	Name   string
	Format string
	Data   []DataField
}

// Setting is persisted plugin configuration surfaced by the host.
type Setting struct {
	Name      string
	Initial   string
	Type      SettingType
	ReadOnly  bool
	Password  bool
	MaxLength int
	Min       *float64
	Max       *float64
}

// States returns every state of the description, in declaration order.
func (p *PluginDescription) States() []State {
	var out []State
	for _, c := range p.Categories {
		out = append(out, c.States...)
	}
	return out
}

// State looks up a state anywhere in the description.
func (p *PluginDescription) State(id string) (State, bool) {
	for _, c := range p.Categories {
		for _, s := range c.States {
			if s.ID == id {
				return s, true
			}
		}
	}
	return State{}, false
}

// Category looks up a category by id.
func (p *PluginDescription) Category(id string) (Category, bool) {
	for _, c := range p.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Actions returns every action of the description, in declaration order.
func (p *PluginDescription) Actions() []Action {
	var out []Action
	for _, c := range p.Categories {
		out = append(out, c.Actions...)
	}
	return out
}

// Events returns every event of the description, in declaration order.
func (p *PluginDescription) Events() []Event {
	var out []Event
	for _, c := range p.Categories {
		out = append(out, c.Events...)
	}
	return out
}

// Connectors returns every connector of the description, in declaration order.
func (p *PluginDescription) Connectors() []Connector {
	var out []Connector
	for _, c := range p.Categories {
		out = append(out, c.Connectors...)
	}
	return out
}
