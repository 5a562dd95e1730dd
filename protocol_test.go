// protocol_test.go: frame decoding and command encoding
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrame_Kinds(t *testing.T) {
	tests := []struct {
		name string
		line string
		want FrameType
	}{
		{"info", `{"type":"info","sdkVersion":6,"tpVersionString":"4.3","settings":[]}`, FrameInfo},
		{"settings", `{"type":"settings","values":[{"A":"1"}]}`, FrameSettings},
		{"action", `{"type":"action","pluginId":"p","actionId":"a","data":[]}`, FrameAction},
		{"down", `{"type":"down","pluginId":"p","actionId":"a"}`, FrameDown},
		{"up", `{"type":"up","pluginId":"p","actionId":"a"}`, FrameUp},
		{"connector", `{"type":"connectorChange","pluginId":"p","connectorId":"c","value":5}`, FrameConnectorChange},
		{"list", `{"type":"listChange","pluginId":"p","actionId":"a","listId":"l","value":"x"}`, FrameListChange},
		{"broadcast", `{"type":"broadcast","event":"pageChange","pageName":"p"}`, FrameBroadcast},
		{"close", `{"type":"closePlugin","pluginId":"p"}`, FrameClosePlugin},
		{"short", `{"type":"shortConnectorIdNotification","pluginId":"p","shortId":"s","connectorId":"pc_p_c"}`, FrameShortConnectorID},
		{"notification", `{"type":"notificationOptionClicked","notificationId":"n","optionId":"o"}`, FrameNotificationClicked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DecodeFrame([]byte(tt.line))
			require.NoError(t, err)
			assert.Equal(t, tt.want, frame.Type)
			assert.NotNil(t, frame.Payload)
		})
	}
}

func TestDecodeFrame_Rejects(t *testing.T) {
	tests := []struct {
		name string
		line string
		code string
	}{
		{"not json", `{{{`, ErrCodeMalformedFrame},
		{"array", `[1,2]`, ErrCodeMalformedFrame},
		{"no type", `{"actionId":"a"}`, ErrCodeMalformedFrame},
		{"action without id", `{"type":"action"}`, ErrCodeMalformedFrame},
		{"connector without id", `{"type":"connectorChange","value":3}`, ErrCodeMalformedFrame},
		{"list without list id", `{"type":"listChange","actionId":"a"}`, ErrCodeMalformedFrame},
		{"short without short id", `{"type":"shortConnectorIdNotification","connectorId":"c"}`, ErrCodeMalformedFrame},
		{"bad value type", `{"type":"connectorChange","connectorId":"c","value":"high"}`, ErrCodeMalformedFrame},
		{"unknown", `{"type":"telemetry"}`, ErrCodeUnknownFrame},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFrame([]byte(tt.line))
			assert.Equal(t, tt.code, codeOf(err))
		})
	}
}

func TestSettingValues_JSON(t *testing.T) {
	var values SettingValues
	require.NoError(t, json.Unmarshal([]byte(`[{"Api key":"abc"},{"Interval":5},{"Debug":true}]`), &values))
	assert.Equal(t, SettingValues{
		{Name: "Api key", Value: "abc"},
		{Name: "Interval", Value: "5"},
		{Name: "Debug", Value: "true"},
	}, values)

	_, ok := values.Lookup("missing")
	assert.False(t, ok)

	data, err := json.Marshal(values)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"Api key":"abc"},{"Interval":"5"},{"Debug":"true"}]`, string(data))

	var empty SettingValues
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.Nil(t, empty)
}

func TestEncodeCommand_Shapes(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
		want string
	}{
		{"pair", pairRequest{ID: "p"}, `{"type":"pair","id":"p"}`},
		{"state", StateUpdate{ID: "s", Value: "v"}, `{"type":"stateUpdate","id":"s","value":"v"}`},
		{"create", CreateState{ID: "s", Description: "d", DefaultValue: "0", ParentGroup: "g"},
			`{"type":"createState","id":"s","desc":"d","defaultValue":"0","parentGroup":"g"}`},
		{"remove", RemoveState{ID: "s"}, `{"type":"removeState","id":"s"}`},
		{"setting", SettingUpdate{Name: "n", Value: "v"}, `{"type":"settingUpdate","name":"n","value":"v"}`},
		{"connector long", ConnectorUpdate{ConnectorID: "pc_p_c|a=1", Value: 0}, `{"type":"connectorUpdate","connectorId":"pc_p_c|a=1","value":0}`},
		{"connector short", ConnectorUpdate{ShortID: "s", Value: 100}, `{"type":"connectorUpdate","shortId":"s","value":100}`},
		{"choices", ChoiceUpdate{ID: "l"}, `{"type":"choiceUpdate","id":"l","value":[]}`},
		{"choices instance", ChoiceUpdate{ID: "l", Values: []string{"a"}, InstanceID: "i"}, `{"type":"choiceUpdate","id":"l","value":["a"],"instanceId":"i"}`},
		{"event", TriggerEvent{EventID: "e", States: map[string]string{"k": "v"}}, `{"type":"triggerEvent","eventId":"e","states":{"k":"v"}}`},
		{"notification", ShowNotification{NotificationID: "n", Title: "t", Message: "m"},
			`{"type":"showNotification","notificationId":"n","title":"t","msg":"m","options":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := EncodeCommand(tt.cmd)
			require.NoError(t, err)
			require.True(t, strings.HasSuffix(string(data), "\n"))
			assert.Equal(t, 1, strings.Count(string(data), "\n"))
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestEncodeCommand_EscapesNewlines(t *testing.T) {
	data, err := EncodeCommand(StateUpdate{ID: "s", Value: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
}
