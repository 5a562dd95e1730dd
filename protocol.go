// protocol.go: Wire messages exchanged with the host application
//
// Every message is one JSON object on one line, in both directions. The
// "type" member classifies the frame.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"bytes"
	"encoding/json"
	"sort"
)

// FrameType identifies an inbound message kind.
type FrameType string

const (
	FrameInfo                FrameType = "info"
	FrameSettings            FrameType = "settings"
	FrameAction              FrameType = "action"
	FrameDown                FrameType = "down"
	FrameUp                  FrameType = "up"
	FrameConnectorChange     FrameType = "connectorChange"
	FrameListChange          FrameType = "listChange"
	FrameBroadcast           FrameType = "broadcast"
	FrameClosePlugin         FrameType = "closePlugin"
	FrameShortConnectorID    FrameType = "shortConnectorIdNotification"
	FrameNotificationClicked FrameType = "notificationOptionClicked"
)

// InfoMessage is the host's pairing acknowledgement.
type InfoMessage struct {
	SDKVersion      int           `json:"sdkVersion"`
	TPVersionString string        `json:"tpVersionString"`
	TPVersionCode   int           `json:"tpVersionCode"`
	PluginVersion   int           `json:"pluginVersion"`
	Settings        SettingValues `json:"settings"`
	CurrentPage     string        `json:"currentPagePathMainDevice,omitempty"`
}

// SettingValue is one persisted setting as reported by the host.
type SettingValue struct {
	Name  string
	Value string
}

// SettingValues decodes the host's list of single-member objects,
// e.g. [{"Api key":"abc"},{"Interval":"5"}], preserving order.
type SettingValues []SettingValue

// UnmarshalJSON implements json.Unmarshaler.
func (s *SettingValues) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(SettingValues, 0, len(raw))
	for _, obj := range raw {
		names := make([]string, 0, len(obj))
		for name := range obj {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, SettingValue{Name: name, Value: scalarString(obj[name])})
		}
	}
	*s = out
	return nil
}

// MarshalJSON implements json.Marshaler using the host's shape.
func (s SettingValues) MarshalJSON() ([]byte, error) {
	raw := make([]map[string]string, 0, len(s))
	for _, v := range s {
		raw = append(raw, map[string]string{v.Name: v.Value})
	}
	return json.Marshal(raw)
}

// Lookup returns the value of the named setting.
func (s SettingValues) Lookup(name string) (string, bool) {
	for _, v := range s {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// SettingsMessage carries the full settings snapshot after a user edit.
type SettingsMessage struct {
	Values SettingValues `json:"values"`
}

// DataValue is one data-field value attached to an action or connector.
type DataValue struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}

// ActionMessage is shared by action, down and up frames.
type ActionMessage struct {
	PluginID string     `json:"pluginId"`
	ActionID string     `json:"actionId"`
	Data     ActionData `json:"data"`
}

// ConnectorChangeMessage reports a new slider position.
type ConnectorChangeMessage struct {
	PluginID    string     `json:"pluginId"`
	ConnectorID string     `json:"connectorId"`
	Value       int        `json:"value"`
	Data        ActionData `json:"data"`
}

// ListChangeMessage reports a selection change in a choice list of an action.
type ListChangeMessage struct {
	PluginID   string `json:"pluginId"`
	ActionID   string `json:"actionId"`
	ListID     string `json:"listId"`
	InstanceID string `json:"instanceId"`
	Value      string `json:"value"`
}

// BroadcastMessage is a host-wide event such as a page change.
type BroadcastMessage struct {
	Event    string `json:"event"`
	PageName string `json:"pageName,omitempty"`
}

// ClosePluginMessage asks the plugin to shut down.
type ClosePluginMessage struct {
	PluginID string `json:"pluginId"`
}

// ShortConnectorIDMessage maps a long connector id to its short alias.
type ShortConnectorIDMessage struct {
	PluginID    string `json:"pluginId"`
	ShortID     string `json:"shortId"`
	ConnectorID string `json:"connectorId"`
}

// NotificationClickedMessage reports a click on a notification option.
type NotificationClickedMessage struct {
	NotificationID string `json:"notificationId"`
	OptionID       string `json:"optionId"`
}

// Frame is a decoded inbound message.
type Frame struct {
	Type    FrameType
	Payload any
}

type frameHeader struct {
	Type FrameType `json:"type"`
}

// DecodeFrame classifies and decodes one inbound line.
//
// A line that is not a JSON object, lacks a type, or lacks the identifier
// its kind requires yields a malformed-frame error. Unknown kinds yield an
// unknown-frame error; callers treat both as droppable.
func DecodeFrame(line []byte) (Frame, error) {
	var header frameHeader
	if err := json.Unmarshal(line, &header); err != nil {
		return Frame{}, NewMalformedFrameError("invalid JSON", err)
	}
	if header.Type == "" {
		return Frame{}, NewMalformedFrameError("missing type", nil)
	}

	frame := Frame{Type: header.Type}
	switch header.Type {
	case FrameInfo:
		var msg InfoMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return frame, NewMalformedFrameError("info", err)
		}
		frame.Payload = msg
	case FrameSettings:
		var msg SettingsMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return frame, NewMalformedFrameError("settings", err)
		}
		frame.Payload = msg
	case FrameAction, FrameDown, FrameUp:
		var msg ActionMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return frame, NewMalformedFrameError(string(header.Type), err)
		}
		if msg.ActionID == "" {
			return frame, NewMalformedFrameError("missing actionId", nil)
		}
		frame.Payload = msg
	case FrameConnectorChange:
		var msg ConnectorChangeMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return frame, NewMalformedFrameError("connectorChange", err)
		}
		if msg.ConnectorID == "" {
			return frame, NewMalformedFrameError("missing connectorId", nil)
		}
		frame.Payload = msg
	case FrameListChange:
		var msg ListChangeMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return frame, NewMalformedFrameError("listChange", err)
		}
		if msg.ActionID == "" || msg.ListID == "" {
			return frame, NewMalformedFrameError("missing actionId or listId", nil)
		}
		frame.Payload = msg
	case FrameBroadcast:
		var msg BroadcastMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return frame, NewMalformedFrameError("broadcast", err)
		}
		frame.Payload = msg
	case FrameClosePlugin:
		var msg ClosePluginMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return frame, NewMalformedFrameError("closePlugin", err)
		}
		frame.Payload = msg
	case FrameShortConnectorID:
		var msg ShortConnectorIDMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return frame, NewMalformedFrameError("shortConnectorIdNotification", err)
		}
		if msg.ShortID == "" || msg.ConnectorID == "" {
			return frame, NewMalformedFrameError("missing shortId or connectorId", nil)
		}
		frame.Payload = msg
	case FrameNotificationClicked:
		var msg NotificationClickedMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			return frame, NewMalformedFrameError("notificationOptionClicked", err)
		}
		frame.Payload = msg
	default:
		return frame, NewUnknownFrameError(string(header.Type))
	}
	return frame, nil
}

// Command is an outbound message. Implementations marshal themselves
// including their "type" member.
type Command interface {
	CommandType() string
}

type pairRequest struct {
	ID string `json:"id"`
}

func (pairRequest) CommandType() string { return "pair" }

func (c pairRequest) MarshalJSON() ([]byte, error) {
	type alias pairRequest
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.CommandType(), alias(c)})
}

// StateUpdate sets the value of a declared or dynamically created state.
type StateUpdate struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

func (StateUpdate) CommandType() string { return "stateUpdate" }

func (c StateUpdate) MarshalJSON() ([]byte, error) {
	type alias StateUpdate
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.CommandType(), alias(c)})
}

// CreateState declares a state at run time.
type CreateState struct {
	ID           string `json:"id"`
	Description  string `json:"desc"`
	DefaultValue string `json:"defaultValue"`
	ParentGroup  string `json:"parentGroup,omitempty"`
	ForceUpdate  bool   `json:"forceUpdate,omitempty"`
}

func (CreateState) CommandType() string { return "createState" }

func (c CreateState) MarshalJSON() ([]byte, error) {
	type alias CreateState
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.CommandType(), alias(c)})
}

// RemoveState removes a state created at run time.
type RemoveState struct {
	ID string `json:"id"`
}

func (RemoveState) CommandType() string { return "removeState" }

func (c RemoveState) MarshalJSON() ([]byte, error) {
	type alias RemoveState
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.CommandType(), alias(c)})
}

// SettingUpdate persists a new value for a declared setting.
type SettingUpdate struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (SettingUpdate) CommandType() string { return "settingUpdate" }

func (c SettingUpdate) MarshalJSON() ([]byte, error) {
	type alias SettingUpdate
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.CommandType(), alias(c)})
}

// ConnectorUpdate moves a connector. Exactly one of ConnectorID (long form,
// pc_<plugin>_<connector>[|data=value...]) or ShortID is set.
type ConnectorUpdate struct {
	ConnectorID string `json:"connectorId,omitempty"`
	ShortID     string `json:"shortId,omitempty"`
	Value       int    `json:"value"`
}

func (ConnectorUpdate) CommandType() string { return "connectorUpdate" }

func (c ConnectorUpdate) MarshalJSON() ([]byte, error) {
	type alias ConnectorUpdate
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.CommandType(), alias(c)})
}

// ChoiceUpdate replaces the choices of a choice data field, optionally for
// one action instance only.
type ChoiceUpdate struct {
	ID         string   `json:"id"`
	Values     []string `json:"value"`
	InstanceID string   `json:"instanceId,omitempty"`
}

func (ChoiceUpdate) CommandType() string { return "choiceUpdate" }

func (c ChoiceUpdate) MarshalJSON() ([]byte, error) {
	type alias ChoiceUpdate
	if c.Values == nil {
		c.Values = []string{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.CommandType(), alias(c)})
}

// TriggerEvent fires a declared event with optional local state values.
type TriggerEvent struct {
	EventID string            `json:"eventId"`
	States  map[string]string `json:"states,omitempty"`
}

func (TriggerEvent) CommandType() string { return "triggerEvent" }

func (c TriggerEvent) MarshalJSON() ([]byte, error) {
	type alias TriggerEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.CommandType(), alias(c)})
}

// NotificationOption is a clickable option of a notification.
type NotificationOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ShowNotification displays a host notification.
type ShowNotification struct {
	NotificationID string               `json:"notificationId"`
	Title          string               `json:"title"`
	Message        string               `json:"msg"`
	Options        []NotificationOption `json:"options"`
}

func (ShowNotification) CommandType() string { return "showNotification" }

func (c ShowNotification) MarshalJSON() ([]byte, error) {
	type alias ShowNotification
	if c.Options == nil {
		c.Options = []NotificationOption{}
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{c.CommandType(), alias(c)})
}

// EncodeCommand renders a command as one newline-terminated frame.
func EncodeCommand(cmd Command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, NewSerializationError(cmd.CommandType(), err)
	}
	return append(data, '\n'), nil
}

// scalarString renders a JSON scalar as the host would display it:
// strings unquoted, everything else verbatim.
func scalarString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}
