// panic_recovery.go: Panic recovery for dispatch goroutines
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"fmt"
	"runtime"
)

// RecoveryHandler defines the signature for panic recovery handlers.
type RecoveryHandler func(recovered interface{}, stack []byte)

// withCustomRecoveryHandler returns a deferred function that hands a
// recovered panic and its stack to handler.
func withCustomRecoveryHandler(handler RecoveryHandler) func() {
	return func() {
		if r := recover(); r != nil {
			buf := make([]byte, 64<<10)
			n := runtime.Stack(buf, false)
			handler(r, buf[:n])
		}
	}
}

// SafeGo executes fn in a new goroutine; a panic is logged with its stack
// instead of crashing the plugin process.
//
// Plugins spawning background producers (timers, pollers feeding state
// updates) should prefer it over a bare go statement.
func SafeGo(logger Logger, fn func()) {
	if logger == nil {
		logger = DefaultLogger()
	}
	go func() {
		defer withCustomRecoveryHandler(func(r interface{}, stack []byte) {
			logger.Error("Panic recovered in goroutine",
				"panic", r,
				"stack", string(stack))
		})()
		fn()
	}()
}

// callRecovered runs fn and converts a panic into an error.
func callRecovered(fn func() error) (err error) {
	defer withCustomRecoveryHandler(func(r interface{}, stack []byte) {
		err = fmt.Errorf("panic: %v\n%s", r, stack)
	})()
	return fn()
}
