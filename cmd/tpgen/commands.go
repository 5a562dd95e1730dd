// commands.go: validate, generate and watch commands
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/agilira/argus"
	"github.com/agilira/go-touchportal/codegen"
	"github.com/agilira/go-touchportal/schema"
)

// ValidateCmd implements 'tpgen validate'.
type ValidateCmd struct {
	File          string `arg:"" help:"Plugin description (.tp, .json, .yaml, .toml)" type:"existingfile"`
	StrictChoices bool   `help:"Require event choices to be a subset of the referenced state's choices"`
}

// Run prints every diagnostic, one per line, and fails if there is any.
func (c *ValidateCmd) Run(g *Global) error {
	desc, err := schema.LoadFile(c.File)
	if err != nil {
		return err
	}
	var opts []schema.ValidateOption
	if c.StrictChoices {
		opts = append(opts, schema.WithStrictChoices())
	}
	diags := schema.Validate(desc, opts...)
	if diags.HasErrors() {
		_, _ = fmt.Fprintln(g.Out, diags.String())
		return diags.Err()
	}
	g.Logger.Info("description is valid", "file", c.File, "plugin", desc.ID)
	return nil
}

// GenerateCmd implements 'tpgen generate'.
type GenerateCmd struct {
	File          string `arg:"" help:"Plugin description (.tp, .json, .yaml, .toml)" type:"existingfile"`
	Definition    string `short:"d" help:"Output path of the definition document" default:"entry.tp" type:"path"`
	Bindings      string `short:"b" help:"Output path of the Go bindings" default:"tpbind/bindings_gen.go" type:"path"`
	Package       string `short:"p" help:"Package name of the bindings" default:"tpbind"`
	RuntimeImport string `help:"Import path of the runtime package" default:"github.com/agilira/go-touchportal"`
	StrictChoices bool   `help:"Require event choices to be a subset of the referenced state's choices"`
}

func (c *GenerateCmd) buildOptions() codegen.BuildOptions {
	return codegen.BuildOptions{
		DefinitionPath: c.Definition,
		BindingsPath:   c.Bindings,
		Package:        c.Package,
		RuntimeImport:  c.RuntimeImport,
		StrictChoices:  c.StrictChoices,
	}
}

// generate loads the description and runs codegen.Build. Diagnostics are
// printed to g.Out.
func (c *GenerateCmd) generate(g *Global) error {
	desc, err := schema.LoadFile(c.File)
	if err != nil {
		return err
	}
	res, err := codegen.Build(desc, c.buildOptions())
	if res != nil && res.Diagnostics.HasErrors() {
		_, _ = fmt.Fprintln(g.Out, res.Diagnostics.String())
	}
	if err != nil {
		return err
	}
	for _, path := range res.Written {
		g.Logger.Info("wrote artifact", "path", path)
	}
	return nil
}

// Run generates once.
func (c *GenerateCmd) Run(g *Global) error {
	return c.generate(g)
}

// WatchCmd implements 'tpgen watch'.
type WatchCmd struct {
	GenerateCmd `embed:""`

	PollInterval time.Duration `help:"How often the description is checked for changes" default:"1s"`
}

// Run generates once, then again after every change of the description
// until the context is cancelled. Failed regenerations are logged and the
// previous artifacts stay in place.
func (c *WatchCmd) Run(g *Global) error {
	if err := c.generate(g); err != nil {
		g.Logger.Warn("initial generation failed", "error", err)
	}

	path, err := filepath.Abs(c.File)
	if err != nil {
		return err
	}
	watcher := argus.New(argus.Config{
		PollInterval:         c.PollInterval,
		CacheTTL:             c.PollInterval / 2,
		MaxWatchedFiles:      1,
		OptimizationStrategy: argus.OptimizationSingleEvent,
		Audit:                argus.AuditConfig{Enabled: false},
		ErrorHandler: func(err error, file string) {
			g.Logger.Error("watch error", "file", file, "error", err)
		},
	})

	regenerated := make(chan struct{}, 1)
	err = watcher.Watch(path, func(event argus.ChangeEvent) {
		if event.IsDelete {
			g.Logger.Warn("description removed, keeping previous artifacts", "file", event.Path)
			return
		}
		g.Logger.Debug("description changed", "file", event.Path, "mod_time", event.ModTime)
		if err := c.generate(g); err != nil {
			g.Logger.Error("regeneration failed", "error", err)
			return
		}
		select {
		case regenerated <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	g.Logger.Info("watching description", "file", path, "poll_interval", c.PollInterval)

	for {
		select {
		case <-g.Ctx.Done():
			if err := watcher.Stop(); err != nil {
				g.Logger.Warn("watcher stop failed", "error", err)
			}
			return nil
		case <-regenerated:
			g.Logger.Debug("artifacts refreshed")
		}
	}
}
