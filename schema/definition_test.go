// definition_test.go: definition document encoding, decoding and loading
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinition_RoundTrip(t *testing.T) {
	desc := mixerPlugin()
	require.Empty(t, Validate(desc))

	data, err := MarshalDefinition(desc)
	require.NoError(t, err)

	back, err := ParseDefinition(data)
	require.NoError(t, err)
	assert.Equal(t, desc, back)

	again, err := MarshalDefinition(back)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestDefinition_HostShape(t *testing.T) {
	data, err := MarshalDefinition(mixerPlugin())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 6.0, doc["sdk"])
	assert.Equal(t, 3.0, doc["version"])
	assert.Equal(t, "%TP_PLUGIN_FOLDER%mixer/mixer", doc["plugin_start_cmd"])

	cfg := doc["configuration"].(map[string]interface{})
	assert.Equal(t, "#1E1E1E", cfg["colorDark"])
	assert.Equal(t, "audio", cfg["parentCategory"])

	cat := doc["categories"].([]interface{})[0].(map[string]interface{})
	actions := cat["actions"].([]interface{})
	setVolume := actions[0].(map[string]interface{})
	assert.Equal(t, "communicate", setVolume["type"])
	lines := setVolume["lines"].(map[string]interface{})["action"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "default", lines["language"])
	first := lines["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Set {$channel$} volume to {$level$}", first["lineFormat"])

	level := setVolume["data"].([]interface{})[1].(map[string]interface{})
	assert.Equal(t, "number", level["type"])
	assert.Equal(t, 50.0, level["default"])
	assert.Equal(t, 0.0, level["minValue"])
	assert.Equal(t, 100.0, level["maxValue"])

	ptt := actions[1].(map[string]interface{})
	assert.Equal(t, true, ptt["hasHoldFunctionality"])
	muted := ptt["data"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, false, muted["default"])

	open := actions[2].(map[string]interface{})
	assert.Equal(t, "execute", open["type"])
	assert.Equal(t, "mixer.exe --show", open["execution_cmd"])

	event := cat["events"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "choice", event["valueType"])
	assert.Equal(t, mixerID+".mute", event["valueStateId"])

	settings := doc["settings"].([]interface{})
	apiKey := settings[0].(map[string]interface{})
	assert.Equal(t, true, apiKey["isPassword"])
}

func TestDefinition_InteractionModes(t *testing.T) {
	data, err := MarshalDefinition(mixerPlugin())
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	actions := doc["categories"].([]interface{})[0].(map[string]interface{})["actions"].([]interface{})
	_, held := actions[0].(map[string]interface{})["hasHoldFunctionality"]
	assert.False(t, held, "execute actions omit hasHoldFunctionality")

	parsed, err := ParseDefinition(data)
	require.NoError(t, err)
	modes := make(map[string]InteractionMode)
	for _, a := range parsed.Categories[0].Actions {
		modes[a.ID] = a.Mode
	}
	assert.Equal(t, map[string]InteractionMode{
		mixerID + ".set_volume": ModeExecute,
		mixerID + ".ptt":        ModeHold,
		mixerID + ".open":       ModeExecute,
	}, modes)
}

func TestParseDefinition_Errors(t *testing.T) {
	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseDefinition([]byte("{"))
		assert.Equal(t, ErrCodeDefinitionDecode, codeOf(err))
	})

	t.Run("builder rejection", func(t *testing.T) {
		_, err := ParseDefinition([]byte(`{"id":"p","name":"P","version":0,"categories":[]}`))
		require.Error(t, err)
		assert.Equal(t, ErrCodeDefinitionDecode, codeOf(err))
	})

	t.Run("unknown data type", func(t *testing.T) {
		doc := `{"id":"p","name":"P","version":1,"categories":[{"id":"c","name":"C","actions":[
			{"id":"a","name":"A","type":"communicate","lines":{"action":[]},
			 "data":[{"id":"d","type":"slider","default":""}]}]}]}`
		_, err := ParseDefinition([]byte(doc))
		require.Error(t, err)
		assert.Equal(t, ErrCodeDefinitionDecode, codeOf(err))
	})
}

func TestParseDefinition_HandWritten(t *testing.T) {
	doc := `{
	  "sdk": 6, "version": 2, "name": "Lights", "id": "com.example.lights",
	  "configuration": {"colorDark": "#000000", "colorLight": "#FFFFFF"},
	  "categories": [{
	    "id": "main", "name": "Lights",
	    "actions": [{
	      "id": "dim", "name": "Dim", "type": "communicate",
	      "lines": {"action": [
	        {"language": "fr", "data": [{"lineFormat": "Baisser {$level$}"}]},
	        {"language": "default", "data": [{"lineFormat": "Dim to {$level$}"}]}
	      ]},
	      "data": [{"id": "level", "type": "number", "default": 10, "minValue": 0}]
	    }]
	  }]
	}`
	desc, err := ParseDefinition([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, DefaultSDKVersion, desc.API)
	assert.Equal(t, ParentMisc, desc.Configuration.ParentCategory)

	a := desc.Actions()[0]
	assert.Equal(t, []string{"Dim to {$level$}"}, a.Lines)
	assert.Equal(t, "10", a.Data[0].Default)
	require.NotNil(t, a.Data[0].Min)
	assert.Nil(t, a.Data[0].Max)
	assert.Empty(t, Validate(desc))
}

func TestLoadFile(t *testing.T) {
	desc := mixerPlugin()
	dir := t.TempDir()

	jsonData, err := MarshalDefinition(desc)
	require.NoError(t, err)
	yamlData, err := MarshalYAML(desc)
	require.NoError(t, err)

	files := map[string][]byte{
		"entry.tp":    jsonData,
		"plugin.json": jsonData,
		"plugin.yaml": yamlData,
		"plugin.yml":  yamlData,
	}
	for name, data := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, data, 0600))

			loaded, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, desc, loaded)
		})
	}
}

func TestLoadFile_HandWrittenYAML(t *testing.T) {
	src := `
id: com.example.timer
name: Timer
version: 1
settings:
  - name: Step
    type: number
    default: "5"
categories:
  - id: main
    name: Timer
    actions:
      - id: start
        name: Start
        type: communicate
        lines:
          action:
            - language: default
              data:
                - lineFormat: "Start for {$minutes$} minutes, loud {$loud$}"
        data:
          - id: minutes
            type: number
            default: 5
          - id: loud
            type: switch
            default: true
    states:
      - id: remaining
        type: number
        desc: Remaining
        default: "0"
`
	path := filepath.Join(t.TempDir(), "timer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0600))

	desc, err := LoadFile(path)
	require.NoError(t, err)
	require.Empty(t, Validate(desc))

	start := desc.Actions()[0]
	assert.Equal(t, "5", start.Data[0].Default)
	assert.Equal(t, "true", start.Data[1].Default)
	assert.Equal(t, SettingNumber, desc.Settings[0].Type)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Equal(t, ErrCodeDescriptionRead, codeOf(err))
}

func TestLoadFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: [unclosed"), 0600))
	_, err := LoadFile(path)
	assert.Equal(t, ErrCodeDefinitionDecode, codeOf(err))
}
