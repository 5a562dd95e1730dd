// main.go: tpgen command line entry point
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

// Command tpgen validates plugin descriptions and generates the host
// definition document together with typed Go bindings.
//
//	tpgen validate plugin.yaml
//	tpgen generate plugin.yaml --definition entry.tp --bindings tpbind/bindings_gen.go
//	tpgen watch plugin.yaml
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	touchportal "github.com/agilira/go-touchportal"
	"github.com/alecthomas/kong"
)

var version = "dev"

// Global carries shared state into command Run methods.
type Global struct {
	Ctx    context.Context
	Logger touchportal.Logger
	Out    io.Writer
}

// CLI is the root command.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Validate ValidateCmd `cmd:"" help:"Check a plugin description and print every diagnostic"`
	Generate GenerateCmd `cmd:"" help:"Write the definition document and the Go bindings"`
	Watch    WatchCmd    `cmd:"" help:"Regenerate whenever the description changes"`
}

type exitCode int

// run parses args and executes the selected command. It returns the process
// exit status: 0 on success, 1 when the command failed, 2 on usage errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			c, ok := r.(exitCode)
			if !ok {
				panic(r)
			}
			code = int(c)
		}
	}()

	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("tpgen"),
		kong.Description("Touch Portal plugin description validator and binding generator."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(c int) { panic(exitCode(c)) }),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tpgen: %v\n", err)
		return 2
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "tpgen: %v\n", err)
		return 2
	}

	level := "info"
	if cli.Verbose {
		level = "debug"
	}
	g := &Global{
		Ctx:    ctx,
		Logger: touchportal.NewHCLoggerTo("tpgen", level, stderr),
		Out:    stdout,
	}
	if err := kctx.Run(g); err != nil {
		g.Logger.Error("command failed", "command", kctx.Command(), "error", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
