// metrics.go: Metrics collection for the runtime engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"sort"
	"strings"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Metric names recorded by the engine.
const (
	MetricFramesReceived   = "frames_received_total"
	MetricFramesDropped    = "frames_dropped_total"
	MetricCommandsSent     = "commands_sent_total"
	MetricHandlerErrors    = "handler_errors_total"
	MetricDispatchDuration = "dispatch_duration_seconds"
	MetricQueueDepth       = "outbound_queue_depth"
)

// MetricsCollector receives engine metrics.
//
// Labels are small fixed sets (frame type, drop reason, command type).
type MetricsCollector interface {
	IncrementCounter(name string, labels map[string]string, value int64)
	SetGauge(name string, labels map[string]string, value float64)
	RecordHistogram(name string, labels map[string]string, value float64)
}

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

// NewNoOpMetrics returns a collector that records nothing.
func NewNoOpMetrics() *NoOpMetrics { return &NoOpMetrics{} }

func (NoOpMetrics) IncrementCounter(string, map[string]string, int64) {}
func (NoOpMetrics) SetGauge(string, map[string]string, float64)       {}
func (NoOpMetrics) RecordHistogram(string, map[string]string, float64) {}

// InMemoryMetrics keeps counters and gauges in maps keyed by name and
// sorted labels. Useful in tests and for Stats-style introspection.
type InMemoryMetrics struct {
	mu         sync.RWMutex
	counters   map[string]int64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewInMemoryMetrics creates an empty in-memory collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

func (m *InMemoryMetrics) IncrementCounter(name string, labels map[string]string, value int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[metricKey(name, labels)] += value
}

func (m *InMemoryMetrics) SetGauge(name string, labels map[string]string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[metricKey(name, labels)] = value
}

func (m *InMemoryMetrics) RecordHistogram(name string, labels map[string]string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := metricKey(name, labels)
	m.histograms[key] = append(m.histograms[key], value)
}

// Counter returns the current value of a counter.
func (m *InMemoryMetrics) Counter(name string, labels map[string]string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[metricKey(name, labels)]
}

// Gauge returns the current value of a gauge.
func (m *InMemoryMetrics) Gauge(name string, labels map[string]string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[metricKey(name, labels)]
}

// Observations returns the number of histogram samples recorded.
func (m *InMemoryMetrics) Observations(name string, labels map[string]string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.histograms[metricKey(name, labels)])
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(labels[k])
	}
	b.WriteByte('}')
	return b.String()
}

// PrometheusMetrics implements MetricsCollector with client_golang vectors.
type PrometheusMetrics struct {
	framesReceived   *prom.CounterVec
	framesDropped    *prom.CounterVec
	commandsSent     *prom.CounterVec
	handlerErrors    *prom.CounterVec
	dispatchDuration *prom.HistogramVec
	queueDepth       prom.Gauge
}

// NewPrometheusMetrics constructs and registers the engine metrics.
// A nil registerer uses a private registry.
func NewPrometheusMetrics(reg prom.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pm := &PrometheusMetrics{
		framesReceived: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "touchportal",
			Name:      MetricFramesReceived,
			Help:      "Inbound frames decoded, by frame type",
		}, []string{"type"}),
		framesDropped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "touchportal",
			Name:      MetricFramesDropped,
			Help:      "Inbound frames discarded, by reason",
		}, []string{"reason"}),
		commandsSent: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "touchportal",
			Name:      MetricCommandsSent,
			Help:      "Outbound commands written, by command type",
		}, []string{"type"}),
		handlerErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "touchportal",
			Name:      MetricHandlerErrors,
			Help:      "Callbacks that returned an error or panicked, by frame type",
		}, []string{"type"}),
		dispatchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "touchportal",
			Name:      MetricDispatchDuration,
			Help:      "Callback execution time, by frame type",
			Buckets:   prom.DefBuckets,
		}, []string{"type"}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: "touchportal",
			Name:      MetricQueueDepth,
			Help:      "Outbound commands waiting for the writer",
		}),
	}
	reg.MustRegister(pm.framesReceived, pm.framesDropped, pm.commandsSent, pm.handlerErrors, pm.dispatchDuration, pm.queueDepth)
	return pm
}

func (pm *PrometheusMetrics) IncrementCounter(name string, labels map[string]string, value int64) {
	var vec *prom.CounterVec
	var label string
	switch name {
	case MetricFramesReceived:
		vec, label = pm.framesReceived, labels["type"]
	case MetricFramesDropped:
		vec, label = pm.framesDropped, labels["reason"]
	case MetricCommandsSent:
		vec, label = pm.commandsSent, labels["type"]
	case MetricHandlerErrors:
		vec, label = pm.handlerErrors, labels["type"]
	default:
		return
	}
	vec.WithLabelValues(label).Add(float64(value))
}

func (pm *PrometheusMetrics) SetGauge(name string, _ map[string]string, value float64) {
	if name == MetricQueueDepth {
		pm.queueDepth.Set(value)
	}
}

func (pm *PrometheusMetrics) RecordHistogram(name string, labels map[string]string, value float64) {
	if name == MetricDispatchDuration {
		pm.dispatchDuration.WithLabelValues(labels["type"]).Observe(value)
	}
}
