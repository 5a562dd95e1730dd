// fixtures_test.go: shared descriptions and helpers for schema tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	stderrors "errors"
	"testing"

	"github.com/agilira/go-errors"
)

const mixerID = "com.example.mixer"

// mixerPlugin returns a valid description that touches every entity kind.
func mixerPlugin() *PluginDescription {
	volume := NewState(mixerID+".volume", "Master volume").Number().Initial("50").Build()
	mute := NewState(mixerID+".mute", "Mute").Choice("on", "off").Initial("off").Build()

	return NewPlugin(mixerID, "Mixer").
		Version(3).
		Colors("#1E1E1E", "#FFAA00CC").
		Parent(ParentAudio).
		StartCmd("%TP_PLUGIN_FOLDER%mixer/mixer").
		Setting(
			NewSetting("Api key").Password().Build(),
			NewSetting("Poll interval").Number(WithRange(1, 60)).Initial("5").Build(),
		).
		Category(NewCategory(mixerID+".main", "Mixer").
			ImagePath("%TP_PLUGIN_FOLDER%mixer/icon.png").
			Action(
				NewAction(mixerID+".set_volume", "Set volume").
					Prefix("Mixer").
					Line("Set {$channel$} volume to {$level$}").
					Data(
						ChoiceField("channel", "Channel", []string{"master", "music", "voice"}, ""),
						NumberField("level", "Level", 50, WithRange(0, 100)),
					).
					Build(),
				NewAction(mixerID+".ptt", "Push to talk").
					Hold().
					Line("Talk while held, muted {$muted$}").
					Data(SwitchField("muted", "Muted", false)).
					Build(),
				NewAction(mixerID+".open", "Open mixer").
					Static("mixer.exe --show").
					Line("Open the mixer window").
					Build(),
			).
			Event(NewEvent(mixerID+".mute_changed", "Mute changed").
				Format("When mute becomes $val").
				Choice("on", "off").
				State(mute.ID).
				Build()).
			State(volume, mute).
			Connector(NewConnector(mixerID+".fader", "Channel fader").
				Format("Fader for {$channel$}").
				Data(ChoiceField("channel", "Channel", []string{"music", "voice"}, "")).
				Build()).
			Build()).
		Build()
}

// codeOf extracts the structured error code, or "" for other errors.
func codeOf(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return string(e.ErrorCode())
	}
	return ""
}

// panicCode runs fn and returns the code of the *errors.Error it panics with.
func panicCode(t *testing.T, fn func()) (code string) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic")
		}
		e, ok := r.(*errors.Error)
		if !ok {
			t.Fatalf("expected *errors.Error panic, got %T: %v", r, r)
		}
		code = string(e.ErrorCode())
	}()
	fn()
	return ""
}
