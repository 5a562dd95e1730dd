// handle.go: Outbound command handle given to plugin code
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"strings"
	"sync"
)

// ConnectorData qualifies a connector instance by one of its data values.
type ConnectorData struct {
	ID    string
	Value string
}

// Handle enqueues outbound commands. It is safe for concurrent use and may
// be shared freely between callbacks and background goroutines. No method
// blocks on the network; once the session has closed every method returns
// a TP_3001 error.
type Handle struct {
	pluginID string
	queue    *outboundQueue
	metrics  MetricsCollector

	mu       sync.RWMutex
	shortIDs map[string]string
}

func newHandle(pluginID string, queue *outboundQueue, metrics MetricsCollector) *Handle {
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}
	return &Handle{
		pluginID: pluginID,
		queue:    queue,
		metrics:  metrics,
		shortIDs: make(map[string]string),
	}
}

// PluginID returns the id the handle qualifies connectors with.
func (h *Handle) PluginID() string { return h.pluginID }

// Closed reports whether the session has ended.
func (h *Handle) Closed() bool { return h.queue.isClosed() }

// Send enqueues an arbitrary command.
func (h *Handle) Send(cmd Command) error {
	if cmd == nil {
		return NewInvalidCommandError("nil command")
	}
	if err := h.queue.push(cmd); err != nil {
		return err
	}
	h.metrics.SetGauge(MetricQueueDepth, nil, float64(h.queue.len()))
	return nil
}

// UpdateState sets a state value.
func (h *Handle) UpdateState(id, value string) error {
	if id == "" {
		return NewInvalidCommandError("state id is required")
	}
	return h.Send(StateUpdate{ID: id, Value: value})
}

// CreateState declares a state at run time.
func (h *Handle) CreateState(state CreateState) error {
	if state.ID == "" {
		return NewInvalidCommandError("state id is required")
	}
	return h.Send(state)
}

// RemoveState removes a state created with CreateState.
func (h *Handle) RemoveState(id string) error {
	if id == "" {
		return NewInvalidCommandError("state id is required")
	}
	return h.Send(RemoveState{ID: id})
}

// UpdateSetting persists a setting value.
func (h *Handle) UpdateSetting(name, value string) error {
	if name == "" {
		return NewInvalidCommandError("setting name is required")
	}
	return h.Send(SettingUpdate{Name: name, Value: value})
}

// UpdateConnector moves every connector instance matching the qualifiers.
// value must lie in 0..100. When the host has announced a short id for the
// qualified connector, the short form is used.
func (h *Handle) UpdateConnector(connectorID string, value int, data ...ConnectorData) error {
	if connectorID == "" {
		return NewInvalidCommandError("connector id is required")
	}
	if value < 0 || value > 100 {
		return NewInvalidConnectorValueError(connectorID, value)
	}
	longID := h.LongConnectorID(connectorID, data...)
	if short, ok := h.ShortConnectorID(longID); ok {
		return h.Send(ConnectorUpdate{ShortID: short, Value: value})
	}
	return h.Send(ConnectorUpdate{ConnectorID: longID, Value: value})
}

// LongConnectorID builds pc_<plugin>_<connector>|<id>=<value>... with the
// qualifiers in the given order.
func (h *Handle) LongConnectorID(connectorID string, data ...ConnectorData) string {
	var b strings.Builder
	b.WriteString("pc_")
	b.WriteString(h.pluginID)
	b.WriteByte('_')
	b.WriteString(connectorID)
	for _, d := range data {
		b.WriteByte('|')
		b.WriteString(d.ID)
		b.WriteByte('=')
		b.WriteString(d.Value)
	}
	return b.String()
}

// ShortConnectorID returns the short alias announced for a long id.
func (h *Handle) ShortConnectorID(longID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	short, ok := h.shortIDs[longID]
	return short, ok
}

func (h *Handle) rememberShortID(longID, shortID string) {
	h.mu.Lock()
	h.shortIDs[longID] = shortID
	h.mu.Unlock()
}

// UpdateChoices replaces the choices of a choice field or state for all
// instances.
func (h *Handle) UpdateChoices(id string, values []string) error {
	return h.UpdateChoicesFor(id, "", values)
}

// UpdateChoicesFor replaces the choices for one action instance. An empty
// instanceID targets all instances.
func (h *Handle) UpdateChoicesFor(id, instanceID string, values []string) error {
	if id == "" {
		return NewInvalidCommandError("choice id is required")
	}
	copied := append([]string(nil), values...)
	return h.Send(ChoiceUpdate{ID: id, Values: copied, InstanceID: instanceID})
}

// TriggerEvent fires an event with optional local states.
func (h *Handle) TriggerEvent(eventID string, states map[string]string) error {
	if eventID == "" {
		return NewInvalidCommandError("event id is required")
	}
	var copied map[string]string
	if len(states) > 0 {
		copied = make(map[string]string, len(states))
		for k, v := range states {
			copied[k] = v
		}
	}
	return h.Send(TriggerEvent{EventID: eventID, States: copied})
}

// ShowNotification displays a notification in the host.
func (h *Handle) ShowNotification(n ShowNotification) error {
	if n.NotificationID == "" {
		return NewInvalidCommandError("notification id is required")
	}
	return h.Send(n)
}
