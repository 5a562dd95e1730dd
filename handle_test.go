// handle_test.go: outbound handle validation and command construction
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestHandle() (*Handle, *outboundQueue) {
	q := newOutboundQueue()
	return newHandle("com.example.test", q, nil), q
}

func drain(q *outboundQueue) []Command {
	return q.close()
}

func TestHandle_Commands(t *testing.T) {
	h, q := newTestHandle()

	require.NoError(t, h.UpdateState("temp", "21"))
	require.NoError(t, h.CreateState(CreateState{ID: "dyn", Description: "Dynamic", DefaultValue: "0"}))
	require.NoError(t, h.RemoveState("dyn"))
	require.NoError(t, h.UpdateSetting("Interval", "5"))
	require.NoError(t, h.UpdateChoices("mode", []string{"a", "b"}))
	require.NoError(t, h.UpdateChoicesFor("mode", "inst1", []string{"c"}))
	require.NoError(t, h.TriggerEvent("alarm", map[string]string{"level": "high"}))
	require.NoError(t, h.ShowNotification(ShowNotification{NotificationID: "n1", Title: "Hi", Message: "there"}))

	cmds := drain(q)
	require.Len(t, cmds, 8)
	assert.Equal(t, StateUpdate{ID: "temp", Value: "21"}, cmds[0])
	assert.Equal(t, "createState", cmds[1].CommandType())
	assert.Equal(t, RemoveState{ID: "dyn"}, cmds[2])
	assert.Equal(t, SettingUpdate{Name: "Interval", Value: "5"}, cmds[3])
	assert.Equal(t, ChoiceUpdate{ID: "mode", Values: []string{"a", "b"}}, cmds[4])
	assert.Equal(t, ChoiceUpdate{ID: "mode", InstanceID: "inst1", Values: []string{"c"}}, cmds[5])
	assert.Equal(t, TriggerEvent{EventID: "alarm", States: map[string]string{"level": "high"}}, cmds[6])
	assert.Equal(t, "showNotification", cmds[7].CommandType())
}

func TestHandle_RejectsEmptyIdentifiers(t *testing.T) {
	h, _ := newTestHandle()

	for name, err := range map[string]error{
		"state":        h.UpdateState("", "x"),
		"create":       h.CreateState(CreateState{}),
		"remove":       h.RemoveState(""),
		"setting":      h.UpdateSetting("", "x"),
		"connector":    h.UpdateConnector("", 10),
		"choices":      h.UpdateChoices("", nil),
		"event":        h.TriggerEvent("", nil),
		"notification": h.ShowNotification(ShowNotification{}),
		"nil command":  h.Send(nil),
	} {
		assert.Equal(t, ErrCodeInvalidCommand, codeOf(err), name)
	}
}

func TestHandle_ConnectorRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h, q := newTestHandle()
		v := rapid.IntRange(-1000, 1000).Draw(t, "value")
		err := h.UpdateConnector("volume", v)
		if v >= 0 && v <= 100 {
			if err != nil {
				t.Fatalf("value %d rejected: %v", v, err)
			}
			if q.len() != 1 {
				t.Fatalf("value %d not queued", v)
			}
			return
		}
		if codeOf(err) != ErrCodeInvalidConnectorValue {
			t.Fatalf("value %d: got %v", v, err)
		}
		if q.len() != 0 {
			t.Fatalf("rejected value %d was queued", v)
		}
	})
}

func TestHandle_ConnectorIDs(t *testing.T) {
	h, q := newTestHandle()

	assert.Equal(t, "pc_com.example.test_volume", h.LongConnectorID("volume"))
	long := h.LongConnectorID("volume", ConnectorData{ID: "channel", Value: "A"}, ConnectorData{ID: "side", Value: "L"})
	assert.Equal(t, "pc_com.example.test_volume|channel=A|side=L", long)

	require.NoError(t, h.UpdateConnector("volume", 10, ConnectorData{ID: "channel", Value: "A"}, ConnectorData{ID: "side", Value: "L"}))
	h.rememberShortID(long, "s1")
	require.NoError(t, h.UpdateConnector("volume", 20, ConnectorData{ID: "channel", Value: "A"}, ConnectorData{ID: "side", Value: "L"}))

	cmds := drain(q)
	require.Len(t, cmds, 2)
	assert.Equal(t, ConnectorUpdate{ConnectorID: long, Value: 10}, cmds[0])
	assert.Equal(t, ConnectorUpdate{ShortID: "s1", Value: 20}, cmds[1])
}

func TestHandle_CopiesCallerSlices(t *testing.T) {
	h, q := newTestHandle()
	values := []string{"a", "b"}
	states := map[string]string{"k": "v"}
	require.NoError(t, h.UpdateChoices("list", values))
	require.NoError(t, h.TriggerEvent("ev", states))
	values[0] = "mutated"
	states["k"] = "mutated"

	cmds := drain(q)
	assert.Equal(t, []string{"a", "b"}, cmds[0].(ChoiceUpdate).Values)
	assert.Equal(t, "v", cmds[1].(TriggerEvent).States["k"])
}

func TestHandle_ClosedAfterQueueClose(t *testing.T) {
	h, q := newTestHandle()
	assert.False(t, h.Closed())
	q.close()
	assert.True(t, h.Closed())
	assert.Equal(t, ErrCodeHandleClosed, codeOf(h.UpdateState("x", "y")))

	_, ok := q.pop(context.Background())
	assert.False(t, ok)
}

func TestHandle_QueueDepthGauge(t *testing.T) {
	q := newOutboundQueue()
	metrics := NewInMemoryMetrics()
	h := newHandle("p", q, metrics)
	require.NoError(t, h.UpdateState("a", "1"))
	require.NoError(t, h.UpdateState("b", "2"))
	assert.Equal(t, float64(2), metrics.Gauge(MetricQueueDepth, nil))
}
