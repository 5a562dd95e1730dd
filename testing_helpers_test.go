// testing_helpers_test.go: fake host and shared helpers for engine tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/require"
)

const testPluginID = "com.example.test"

// codeOf extracts the go-errors code from err, or "".
func codeOf(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return string(e.ErrorCode())
	}
	return ""
}

// fakeHost accepts exactly one plugin connection on a loopback port.
type fakeHost struct {
	t      *testing.T
	ln     net.Listener
	connCh chan net.Conn
}

func newFakeHost(t *testing.T) *fakeHost {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	h := &fakeHost{t: t, ln: ln, connCh: make(chan net.Conn, 1)}
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		h.connCh <- conn
	}()
	t.Cleanup(func() { _ = ln.Close() })
	return h
}

func (h *fakeHost) addr() string { return h.ln.Addr().String() }

func (h *fakeHost) accept() *hostConn {
	h.t.Helper()
	select {
	case conn := <-h.connCh:
		h.t.Cleanup(func() { _ = conn.Close() })
		return &hostConn{t: h.t, conn: conn, r: bufio.NewReader(conn)}
	case <-time.After(5 * time.Second):
		h.t.Fatal("plugin did not connect")
		return nil
	}
}

// hostConn is the host side of a plugin connection.
type hostConn struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

// read returns the next frame sent by the plugin.
func (c *hostConn) read() map[string]any {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	line, err := c.r.ReadBytes('\n')
	require.NoError(c.t, err)
	var msg map[string]any
	require.NoError(c.t, json.Unmarshal(line, &msg), "frame: %s", line)
	return msg
}

func (c *hostConn) send(line string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(line + "\n"))
	require.NoError(c.t, err)
}

// pair consumes the pair request and acknowledges it.
func (c *hostConn) pair() {
	c.t.Helper()
	msg := c.read()
	require.Equal(c.t, "pair", msg["type"])
	require.Equal(c.t, testPluginID, msg["id"])
	c.send(`{"type":"info","sdkVersion":6,"tpVersionString":"4.3","tpVersionCode":403000,"pluginVersion":1,"settings":[{"Api key":"secret"},{"Interval":"5"}]}`)
}

func testConfig(addr string) Config {
	cfg := DefaultConfig()
	cfg.PluginID = testPluginID
	cfg.Address = addr
	cfg.PairingTimeout = 2 * time.Second
	return cfg
}

// closeRecorder counts OnClose calls.
type closeRecorder struct {
	mu    sync.Mutex
	calls []bool
}

func (r *closeRecorder) onClose(clean bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, clean)
}

func (r *closeRecorder) snapshot() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.calls...)
}

// runEngine starts engine.Run in the background and returns its result channel.
func runEngine(ctx context.Context, e *Engine, setup SetupFunc) <-chan error {
	result := make(chan error, 1)
	go func() { result <- e.Run(ctx, setup) }()
	return result
}

func waitResult(t *testing.T, result <-chan error) error {
	t.Helper()
	select {
	case err := <-result:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("engine did not stop")
		return nil
	}
}
