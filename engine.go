// engine.go: Runtime protocol engine
//
// The engine owns one connection to the host application: it pairs, builds
// the dispatch table through the plugin's setup function, routes inbound
// frames to callbacks and drains the outbound queue through a single
// writer until the session ends.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle position of an Engine.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StatePairing
	StateRunning
	StateClosed
)

// String returns a lowercase name for the state.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StatePairing:
		return "pairing"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// PairInfo is what the host reported when acknowledging the pair request.
type PairInfo struct {
	PluginID        string
	SDKVersion      int
	HostVersion     string
	HostVersionCode int
	PluginVersion   int
	Settings        SettingValues
	CurrentPage     string
}

// SetupFunc builds the dispatch table once pairing succeeded. The handle
// may already be used; commands are queued until the writer starts.
type SetupFunc func(ctx context.Context, info PairInfo, handle *Handle) (Binding, error)

// CloseInfo describes how a session ended.
type CloseInfo struct {
	Clean  bool
	Reason string
	Err    error
	At     time.Time
}

// Stats is a snapshot of session counters.
type Stats struct {
	State          State
	FramesReceived uint64
	FramesDropped  uint64
	CommandsSent   uint64
	HandlerErrors  uint64
	QueueDepth     int
	ConnectedAt    time.Time
	PairedAt       time.Time
	LastFrameAt    time.Time
}

// closeRequested ends the read loop when the host sends closePlugin.
type closeRequested struct{}

func (closeRequested) Error() string { return "host requested plugin close" }

// Engine runs a single plugin session. It is not reusable: Run may be
// called once, and there is no reconnection.
type Engine struct {
	cfg     Config
	logger  Logger
	metrics MetricsCollector
	queue   *outboundQueue
	handle  *Handle

	state   atomic.Int32
	started atomic.Bool
	stopped atomic.Bool

	mu        sync.Mutex
	cancel    context.CancelFunc
	binding   *Binding
	closeInfo CloseInfo
	closed    bool

	closeOnce sync.Once
	done      chan struct{}

	framesReceived atomic.Uint64
	framesDropped  atomic.Uint64
	commandsSent   atomic.Uint64
	handlerErrors  atomic.Uint64
	connectedAt    atomic.Int64
	pairedAt       atomic.Int64
	lastFrameAt    atomic.Int64
}

// NewEngine creates an engine for cfg after applying defaults.
func NewEngine(cfg Config) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	queue := newOutboundQueue()
	e := &Engine{
		cfg:     cfg,
		logger:  cfg.Logger.With("plugin_id", cfg.PluginID),
		metrics: cfg.Metrics,
		queue:   queue,
		handle:  newHandle(cfg.PluginID, queue, cfg.Metrics),
		done:    make(chan struct{}),
	}
	return e, nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return State(e.state.Load()) }

func (e *Engine) setState(s State) {
	prev := State(e.state.Swap(int32(s)))
	if prev != s {
		e.logger.Debug("Engine state changed", "from", prev.String(), "to", s.String())
	}
}

// Handle returns the outbound handle. It is valid before Run and reports
// closed errors once the session has ended.
func (e *Engine) Handle() *Handle { return e.handle }

// Done is closed after the session has ended and OnClose has returned.
func (e *Engine) Done() <-chan struct{} { return e.done }

// CloseInfo reports how the session ended; ok is false while it is open.
func (e *Engine) CloseInfo() (info CloseInfo, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closeInfo, e.closed
}

// Stop ends the session cleanly. Queued commands are flushed before the
// connection is closed. Stop does not wait; use Done for that.
func (e *Engine) Stop() {
	e.stopped.Store(true)
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Stats returns a snapshot of the session counters.
func (e *Engine) Stats() Stats {
	return Stats{
		State:          e.State(),
		FramesReceived: e.framesReceived.Load(),
		FramesDropped:  e.framesDropped.Load(),
		CommandsSent:   e.commandsSent.Load(),
		HandlerErrors:  e.handlerErrors.Load(),
		QueueDepth:     e.queue.len(),
		ConnectedAt:    unixNano(e.connectedAt.Load()),
		PairedAt:       unixNano(e.pairedAt.Load()),
		LastFrameAt:    unixNano(e.lastFrameAt.Load()),
	}
}

func unixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Run connects, pairs, calls setup and serves the session until it ends.
//
// It returns nil for a clean end (closePlugin from the host, Stop, or ctx
// cancellation) and the cause otherwise. OnClose of the binding is called
// exactly once before Run returns, provided setup produced a binding.
func (e *Engine) Run(ctx context.Context, setup SetupFunc) error {
	if setup == nil {
		return NewConfigValidationError("setup function is required", nil)
	}
	if !e.started.CompareAndSwap(false, true) {
		return NewEngineStartedError()
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	if e.stopped.Load() {
		cancel()
	}

	e.setState(StateConnecting)
	dialer := net.Dialer{Timeout: e.cfg.DialTimeout}
	conn, err := dialer.DialContext(runCtx, "tcp", e.cfg.Address)
	if err != nil {
		if e.stopRequested(ctx) {
			return e.finish(true, "stopped before connecting", nil)
		}
		return e.finish(false, "connect failed", NewConnectFailedError(e.cfg.Address, err))
	}
	e.connectedAt.Store(timecache.CachedTimeNano())
	e.logger.Info("Connected to host", "address", e.cfg.Address)

	stopWatch := context.AfterFunc(runCtx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stopWatch()

	reader := newFrameReader(conn, e.cfg.MaxFrameSize)

	e.setState(StatePairing)
	info, pending, err := e.pair(runCtx, conn, reader)
	if err != nil {
		_ = conn.Close()
		switch {
		case isCloseRequested(err):
			return e.finish(true, "host closed during pairing", nil)
		case e.stopRequested(ctx):
			return e.finish(true, "stopped during pairing", nil)
		default:
			return e.finish(false, "pairing failed", err)
		}
	}
	e.pairedAt.Store(timecache.CachedTimeNano())
	e.logger.Info("Paired with host",
		"host_version", info.TPVersionString,
		"sdk_version", info.SDKVersion)

	pairInfo := PairInfo{
		PluginID:        e.cfg.PluginID,
		SDKVersion:      info.SDKVersion,
		HostVersion:     info.TPVersionString,
		HostVersionCode: info.TPVersionCode,
		PluginVersion:   info.PluginVersion,
		Settings:        info.Settings,
		CurrentPage:     info.CurrentPage,
	}
	var binding Binding
	err = callRecovered(func() error {
		var setupErr error
		binding, setupErr = setup(runCtx, pairInfo, e.handle)
		return setupErr
	})
	if err != nil {
		_ = conn.Close()
		return e.finish(false, "setup failed", NewSetupFailedError(err))
	}
	e.mu.Lock()
	e.binding = &binding
	e.mu.Unlock()

	e.setState(StateRunning)
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return e.writeLoop(gctx, conn)
	})
	g.Go(func() error {
		return e.readLoop(runCtx, reader, &binding, pending)
	})
	g.Go(func() error {
		<-gctx.Done()
		_ = conn.SetReadDeadline(time.Now())
		return nil
	})
	sessionErr := g.Wait()

	hostClosed := isCloseRequested(sessionErr)
	clean := hostClosed || e.stopRequested(ctx)
	cancel()

	rest := e.queue.close()
	if clean {
		e.flush(conn, rest)
	} else if len(rest) > 0 {
		e.framesDroppedOnClose(len(rest))
	}
	_ = conn.Close()

	switch {
	case hostClosed:
		return e.finish(true, "host requested close", nil)
	case clean:
		return e.finish(true, "stopped", nil)
	default:
		return e.finish(false, "connection lost", sessionErr)
	}
}

func (e *Engine) stopRequested(ctx context.Context) bool {
	return e.stopped.Load() || ctx.Err() != nil
}

func isCloseRequested(err error) bool {
	_, ok := err.(closeRequested)
	return ok
}

// pair sends the pair request and waits for the info frame. Frames other
// than info that arrive first are returned for dispatch after setup.
func (e *Engine) pair(ctx context.Context, conn net.Conn, reader *frameReader) (InfoMessage, []Frame, error) {
	if err := e.writeCommand(conn, pairRequest{ID: e.cfg.PluginID}); err != nil {
		return InfoMessage{}, nil, NewPairingFailedError("send pair request", err)
	}

	deadline := time.Now().Add(e.cfg.PairingTimeout)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return InfoMessage{}, nil, NewPairingFailedError("set read deadline", err)
	}
	if ctx.Err() != nil {
		return InfoMessage{}, nil, NewPairingFailedError("stopped", ctx.Err())
	}

	var pending []Frame
	for {
		line, oversized, err := reader.next()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() && !time.Now().Before(deadline) {
				return InfoMessage{}, nil, NewPairingTimeoutError(e.cfg.PluginID, e.cfg.PairingTimeout)
			}
			return InfoMessage{}, nil, NewPairingFailedError("awaiting acknowledgement", err)
		}
		frame, ok := e.decode(line, oversized)
		if !ok {
			continue
		}
		switch frame.Type {
		case FrameInfo:
			if err := conn.SetReadDeadline(time.Time{}); err != nil {
				return InfoMessage{}, nil, NewPairingFailedError("clear read deadline", err)
			}
			return frame.Payload.(InfoMessage), pending, nil
		case FrameClosePlugin:
			return InfoMessage{}, nil, closeRequested{}
		default:
			pending = append(pending, frame)
		}
	}
}

// decode turns a raw line into a frame, counting and logging drops.
func (e *Engine) decode(line []byte, oversized bool) (Frame, bool) {
	if oversized {
		e.drop("oversized")
		e.logger.Warn("Dropping oversized frame", "error", NewFrameTooLargeError(e.cfg.MaxFrameSize))
		return Frame{}, false
	}
	if len(bytes.TrimSpace(line)) == 0 {
		return Frame{}, false
	}
	frame, err := DecodeFrame(line)
	if err != nil {
		reason := "malformed"
		if frame.Type != "" && frame.Payload == nil {
			if _, known := knownFrameTypes[frame.Type]; !known {
				reason = "unknown_type"
			}
		}
		e.drop(reason)
		e.logger.Warn("Dropping inbound frame", "reason", reason, "error", err)
		return Frame{}, false
	}
	e.framesReceived.Add(1)
	e.lastFrameAt.Store(timecache.CachedTimeNano())
	e.metrics.IncrementCounter(MetricFramesReceived, map[string]string{"type": string(frame.Type)}, 1)
	return frame, true
}

var knownFrameTypes = map[FrameType]struct{}{
	FrameInfo: {}, FrameSettings: {}, FrameAction: {}, FrameDown: {}, FrameUp: {},
	FrameConnectorChange: {}, FrameListChange: {}, FrameBroadcast: {}, FrameClosePlugin: {},
	FrameShortConnectorID: {}, FrameNotificationClicked: {},
}

func (e *Engine) drop(reason string) {
	e.framesDropped.Add(1)
	e.metrics.IncrementCounter(MetricFramesDropped, map[string]string{"reason": reason}, 1)
}

func (e *Engine) framesDroppedOnClose(n int) {
	e.logger.Warn("Discarding queued commands after abrupt close", "count", n)
}

func (e *Engine) readLoop(ctx context.Context, reader *frameReader, binding *Binding, pending []Frame) error {
	for _, frame := range pending {
		e.route(ctx, binding, frame)
	}
	for {
		line, oversized, err := reader.next()
		if err != nil {
			if err == io.EOF {
				return NewConnectionLostError(nil)
			}
			return NewConnectionLostError(err)
		}
		frame, ok := e.decode(line, oversized)
		if !ok {
			continue
		}
		if frame.Type == FrameClosePlugin {
			e.logger.Info("Host requested plugin close")
			return closeRequested{}
		}
		e.route(ctx, binding, frame)
	}
}

// route hands a frame to its callback. Callbacks run on their own
// goroutine, started in arrival order.
func (e *Engine) route(ctx context.Context, b *Binding, frame Frame) {
	switch msg := frame.Payload.(type) {
	case InfoMessage:
		e.logger.Debug("Ignoring repeated info frame")
	case SettingsMessage:
		if b.OnSettings == nil {
			e.drop("unhandled")
			return
		}
		e.spawn(ctx, frame.Type, "", func(ctx context.Context) error {
			return b.OnSettings(ctx, msg.Values)
		})
	case ActionMessage:
		if !e.ownFrame(msg.PluginID) {
			return
		}
		fn := b.Actions[msg.ActionID]
		if fn == nil {
			e.drop("unknown_id")
			e.logger.Warn("Dropping frame for unknown action", "action_id", msg.ActionID, "type", string(frame.Type))
			return
		}
		inv := ActionInvocation{ActionID: msg.ActionID, Phase: phaseOf(frame.Type), Data: msg.Data}
		e.spawn(ctx, frame.Type, msg.ActionID, func(ctx context.Context) error {
			return fn(ctx, inv)
		})
	case ConnectorChangeMessage:
		if !e.ownFrame(msg.PluginID) {
			return
		}
		fn := b.Connectors[msg.ConnectorID]
		if fn == nil {
			e.drop("unknown_id")
			e.logger.Warn("Dropping frame for unknown connector", "connector_id", msg.ConnectorID)
			return
		}
		change := ConnectorChange{ConnectorID: msg.ConnectorID, Value: msg.Value, Data: msg.Data}
		e.spawn(ctx, frame.Type, msg.ConnectorID, func(ctx context.Context) error {
			return fn(ctx, change)
		})
	case ShortConnectorIDMessage:
		e.handle.rememberShortID(msg.ConnectorID, msg.ShortID)
		e.logger.Debug("Registered short connector id", "connector_id", msg.ConnectorID, "short_id", msg.ShortID)
	case ListChangeMessage:
		if b.OnListChange == nil {
			e.drop("unhandled")
			return
		}
		e.spawn(ctx, frame.Type, msg.ListID, func(ctx context.Context) error {
			return b.OnListChange(ctx, msg)
		})
	case BroadcastMessage:
		if b.OnBroadcast == nil {
			e.drop("unhandled")
			return
		}
		e.spawn(ctx, frame.Type, msg.Event, func(ctx context.Context) error {
			return b.OnBroadcast(ctx, msg)
		})
	case NotificationClickedMessage:
		if b.OnNotificationClicked == nil {
			e.drop("unhandled")
			return
		}
		e.spawn(ctx, frame.Type, msg.NotificationID, func(ctx context.Context) error {
			return b.OnNotificationClicked(ctx, msg)
		})
	default:
		e.drop("unknown_type")
	}
}

func (e *Engine) ownFrame(pluginID string) bool {
	if pluginID == "" || pluginID == e.cfg.PluginID {
		return true
	}
	e.drop("foreign_plugin")
	e.logger.Warn("Dropping frame addressed to another plugin", "target", pluginID)
	return false
}

func (e *Engine) spawn(ctx context.Context, frameType FrameType, id string, fn func(context.Context) error) {
	labels := map[string]string{"type": string(frameType)}
	ctx = ContextWithLogger(ctx, e.logger.With("frame_type", string(frameType), "id", id))
	go func() {
		start := time.Now()
		err := callRecovered(func() error { return fn(ctx) })
		e.metrics.RecordHistogram(MetricDispatchDuration, labels, time.Since(start).Seconds())
		if err != nil {
			e.handlerErrors.Add(1)
			e.metrics.IncrementCounter(MetricHandlerErrors, labels, 1)
			e.logger.Warn("Callback failed", "error", NewHandlerFailedError(string(frameType), id, err))
		}
	}()
}

func (e *Engine) writeLoop(ctx context.Context, conn net.Conn) error {
	for ctx.Err() == nil {
		cmd, ok := e.queue.pop(ctx)
		if !ok {
			return nil
		}
		if err := e.writeCommand(conn, cmd); err != nil {
			return err
		}
	}
	return nil
}

// writeCommand encodes and writes one command. Commands that cannot be
// encoded are logged and skipped.
func (e *Engine) writeCommand(conn net.Conn, cmd Command) error {
	data, err := EncodeCommand(cmd)
	if err != nil {
		e.logger.Error("Dropping command that could not be encoded", "type", cmd.CommandType(), "error", err)
		return nil
	}
	if err := conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteTimeout)); err != nil {
		return NewWriteFailedError(cmd.CommandType(), err)
	}
	if _, err := conn.Write(data); err != nil {
		return NewWriteFailedError(cmd.CommandType(), err)
	}
	e.commandsSent.Add(1)
	e.metrics.IncrementCounter(MetricCommandsSent, map[string]string{"type": cmd.CommandType()}, 1)
	e.metrics.SetGauge(MetricQueueDepth, nil, float64(e.queue.len()))
	return nil
}

// flush writes commands left in the queue at a clean close.
func (e *Engine) flush(conn net.Conn, rest []Command) {
	for i, cmd := range rest {
		if err := e.writeCommand(conn, cmd); err != nil {
			e.logger.Warn("Flush interrupted", "error", err, "remaining", len(rest)-i)
			return
		}
	}
}

// finish records the outcome, calls OnClose once and releases Done.
func (e *Engine) finish(clean bool, reason string, err error) error {
	e.queue.close()
	e.setState(StateClosed)

	e.mu.Lock()
	e.closeInfo = CloseInfo{Clean: clean, Reason: reason, Err: err, At: time.Now()}
	e.closed = true
	binding := e.binding
	e.mu.Unlock()

	if clean {
		e.logger.Info("Session closed", "reason", reason)
	} else {
		e.logger.Error("Session closed abruptly", "reason", reason, "error", err)
	}

	e.closeOnce.Do(func() {
		if binding != nil && binding.OnClose != nil {
			if perr := callRecovered(func() error {
				binding.OnClose(clean)
				return nil
			}); perr != nil {
				e.logger.Error("OnClose panicked", "error", perr)
			}
		}
		close(e.done)
	})

	if clean {
		return nil
	}
	return err
}

// frameReader splits the stream into lines of at most max bytes.
type frameReader struct {
	r   *bufio.Reader
	max int
}

func newFrameReader(r io.Reader, max int) *frameReader {
	return &frameReader{r: bufio.NewReader(r), max: max}
}

// next returns the next line without its terminator. A line longer than
// max is consumed and reported as oversized. A final unterminated line is
// returned before io.EOF.
func (fr *frameReader) next() (line []byte, oversized bool, err error) {
	var buf []byte
	for {
		chunk, rerr := fr.r.ReadSlice('\n')
		if !oversized {
			if len(buf)+len(bytes.TrimRight(chunk, "\r\n")) > fr.max {
				oversized = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		switch {
		case rerr == bufio.ErrBufferFull:
			continue
		case rerr == io.EOF && (len(buf) > 0 || oversized):
			return bytes.TrimRight(buf, "\r\n"), oversized, nil
		case rerr != nil:
			return nil, false, rerr
		}
		return bytes.TrimRight(buf, "\r\n"), oversized, nil
	}
}
