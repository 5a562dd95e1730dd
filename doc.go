// Package touchportal is the runtime half of a plugin SDK for a
// Touch Portal style host application. Plugins describe their actions,
// events, states, connectors and settings with package schema; package
// codegen turns that description into the host's definition document and
// into typed Go bindings; this package runs the session those bindings
// plug into.
//
// Key Features:
//   - Pairing with the host over a local TCP socket (newline-delimited JSON)
//   - Dispatch of inbound frames to callbacks in arrival order, each on its
//     own goroutine with panic recovery
//   - A non-blocking outbound Handle backed by an unbounded queue and a
//     single writer
//   - Short connector id tracking, settings snapshots and notifications
//   - Structured logging (hclog) and metrics (Prometheus)
//   - Exactly-once close notification with a clean/abrupt flag
//
// Basic Usage:
//
//	cfg := touchportal.DefaultConfig()
//	cfg.PluginID = "com.example.lights"
//
//	engine, err := touchportal.NewEngine(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = engine.Run(ctx, func(ctx context.Context, info touchportal.PairInfo, h *touchportal.Handle) (touchportal.Binding, error) {
//		return touchportal.Binding{
//			Actions: map[string]touchportal.ActionFunc{
//				"toggle": func(ctx context.Context, inv touchportal.ActionInvocation) error {
//					return h.UpdateState("light_on", "true")
//				},
//			},
//			OnClose: func(clean bool) { log.Printf("closed, clean=%v", clean) },
//		}, nil
//	})
//
// Generated bindings wrap exactly this call, so most plugins only
// implement the generated Callbacks interface.
//
// Copyright (c) 2025 AGILira - A. Giordano
// SPDX-License-Identifier: MPL-2.0
package touchportal
