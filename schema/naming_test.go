// naming_test.go: Go identifier derivation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNames_Type(t *testing.T) {
	n := NamesFor(&PluginDescription{ID: "com.example.mixer"})
	tests := map[string]string{
		"com.example.mixer.set_volume": "SetVolume",
		"com.example.mixer":            "ComExampleMixer",
		"other.plugin.action":          "OtherPluginAction",
		"mute-toggle":                  "MuteToggle",
		"HTTPPort":                     "HTTPPort",
		"":                             "X",
		"élan":                         "Élan",
	}
	for in, want := range tests {
		assert.Equal(t, want, n.Type(in), in)
	}
}

func TestNames_Param(t *testing.T) {
	var n Names
	tests := map[string]string{
		"channel":    "channel",
		"max-value":  "maxValue",
		"Level":      "level",
		"type":       "typeArg",
		"string":     "stringArg",
		"ctx":        "ctxArg",
		"value":      "valueArg",
		"9lives":     "v9lives",
		"user_ID_ok": "userIDOk",
	}
	for in, want := range tests {
		assert.Equal(t, want, n.Param(in), in)
	}
}

func TestNames_Derived(t *testing.T) {
	desc := mixerPlugin()
	n := NamesFor(desc)
	actions := desc.Actions()
	assert.Equal(t, "ActionSetVolumeID", n.ActionConst(actions[0]))
	assert.Equal(t, "OnSetVolume", n.ActionMethod(actions[0]))
	assert.Equal(t, "SetVolumeChannel", n.ActionEnum(actions[0], actions[0].Data[0]))
	assert.Equal(t, "SetVolumeChannelMaster", n.EnumConst("SetVolumeChannel", "master"))
	assert.Equal(t, "SetVolumeChannelEmpty", n.EnumConst("SetVolumeChannel", "--"))

	mute, _ := desc.State(mixerID + ".mute")
	assert.Equal(t, "MuteValue", n.StateEnum(mute))
	assert.Equal(t, "UpdateMute", n.StateMethod(mute))

	conn := desc.Connectors()[0]
	assert.Equal(t, "OnFaderChange", n.ConnectorMethod(conn))
	assert.Equal(t, "FaderChannel", n.ConnectorEnum(conn, conn.Data[0]))

	assert.Equal(t, "ApiKey", n.SettingField(desc.Settings[0]))
	assert.Equal(t, "SetPollInterval", n.SettingMethod(desc.Settings[1]))
	assert.Equal(t, "TriggerMuteChanged", n.EventMethod(desc.Events()[0]))
}

func TestIdentifiers_StaticActionsHaveNoCallback(t *testing.T) {
	var callbacks []string
	for _, id := range Identifiers(mixerPlugin()) {
		if id.Namespace == NamespaceCallbacks {
			callbacks = append(callbacks, id.Name)
		}
	}
	assert.Equal(t, []string{
		"OnClose", "OnSettings", "OnListChange", "OnBroadcast", "OnNotificationClicked",
		"OnSetVolume", "OnPtt", "OnFaderChange",
	}, callbacks)
}

func TestNames_AlwaysValidIdentifiers(t *testing.T) {
	var n Names
	rapid.Check(t, func(t *rapid.T) {
		id := rapid.StringMatching(`[a-zA-Z0-9 ._-]{0,16}`).Draw(t, "id")
		typ := n.Type(id)
		if !token.IsIdentifier(typ) || !token.IsExported(typ) {
			t.Fatalf("Type(%q) = %q", id, typ)
		}
		param := n.Param(id)
		if !token.IsIdentifier(param) || token.IsKeyword(param) {
			t.Fatalf("Param(%q) = %q", id, param)
		}
	})
}
