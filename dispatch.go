// dispatch.go: Dispatch table and typed access to inbound data values
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
)

// Phase distinguishes the frames of an action with hold functionality.
type Phase int

const (
	// PhasePress is a plain activation (an "action" frame).
	PhasePress Phase = iota
	// PhaseDown is sent when a held button is pressed.
	PhaseDown
	// PhaseUp is sent when a held button is released.
	PhaseUp
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhasePress:
		return "press"
	case PhaseDown:
		return "down"
	case PhaseUp:
		return "up"
	default:
		return "unknown"
	}
}

func phaseOf(t FrameType) Phase {
	switch t {
	case FrameDown:
		return PhaseDown
	case FrameUp:
		return PhaseUp
	default:
		return PhasePress
	}
}

// ActionData is the list of data values attached to an inbound frame.
//
// The host sends every value as a JSON string; the accessors also accept
// native JSON numbers and booleans.
type ActionData []DataValue

// Has reports whether the frame carries a value for id.
func (d ActionData) Has(id string) bool {
	_, ok := d.raw(id)
	return ok
}

func (d ActionData) raw(id string) (json.RawMessage, bool) {
	for _, v := range d {
		if v.ID == id {
			return v.Value, true
		}
	}
	return nil, false
}

// Text returns the value of id as a string.
func (d ActionData) Text(id string) (string, error) {
	raw, ok := d.raw(id)
	if !ok {
		return "", NewInvalidDataTypeError(id, "text", nil)
	}
	return scalarString(raw), nil
}

// Number returns the value of id as a float64.
func (d ActionData) Number(id string) (float64, error) {
	raw, ok := d.raw(id)
	if !ok {
		return 0, NewInvalidDataTypeError(id, "number", nil)
	}
	s := strings.TrimSpace(scalarString(raw))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, NewInvalidDataTypeError(id, "number", s)
	}
	return f, nil
}

// Switch returns the value of id as a bool. Accepted spellings are
// true/false, on/off, yes/no and 1/0, case-insensitively.
func (d ActionData) Switch(id string) (bool, error) {
	raw, ok := d.raw(id)
	if !ok {
		return false, NewInvalidDataTypeError(id, "switch", nil)
	}
	s := scalarString(raw)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "yes", "1":
		return true, nil
	case "false", "off", "no", "0":
		return false, nil
	}
	return false, NewInvalidDataTypeError(id, "switch", s)
}

// ActionInvocation is passed to an ActionFunc.
type ActionInvocation struct {
	ActionID string
	Phase    Phase
	Data     ActionData
}

// ConnectorChange is passed to a ConnectorFunc.
type ConnectorChange struct {
	ConnectorID string
	Value       int
	Data        ActionData
}

// ActionFunc handles one action frame.
type ActionFunc func(ctx context.Context, inv ActionInvocation) error

// ConnectorFunc handles one connector change.
type ConnectorFunc func(ctx context.Context, change ConnectorChange) error

// Binding is the dispatch table the engine routes inbound frames through.
// Action and connector maps are keyed by the declared id. Nil funcs and
// missing entries cause the frame to be logged and dropped.
//
// Generated bindings build a Binding from the plugin description; hand
// written plugins may fill it directly.
type Binding struct {
	Actions    map[string]ActionFunc
	Connectors map[string]ConnectorFunc

	OnSettings            func(ctx context.Context, values SettingValues) error
	OnListChange          func(ctx context.Context, msg ListChangeMessage) error
	OnBroadcast           func(ctx context.Context, msg BroadcastMessage) error
	OnNotificationClicked func(ctx context.Context, msg NotificationClickedMessage) error

	// OnClose is called exactly once when the session ends. clean is true
	// for host-requested shutdowns and local stops.
	OnClose func(clean bool)
}
