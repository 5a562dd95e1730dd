// build.go: validate, generate and write both artifacts
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"os"
	"path/filepath"

	"github.com/agilira/go-touchportal/schema"
)

// BuildOptions names the outputs of Build.
type BuildOptions struct {
	// DefinitionPath is where the entry.tp document is written.
	DefinitionPath string
	// BindingsPath is where the Go bindings are written.
	BindingsPath string
	// Package and RuntimeImport are passed to Generate.
	Package       string
	RuntimeImport string
	// StrictChoices enables schema.WithStrictChoices during validation.
	StrictChoices bool
}

// Result reports what Build did.
type Result struct {
	Diagnostics schema.Diagnostics
	Artifacts   *Artifacts
	Written     []string
}

// Build validates desc and, only when validation reports nothing, writes
// the definition document and the bindings. Both files are staged before
// either is renamed into place. On diagnostics the result carries them,
// the error has code GEN_5006 and no file is touched.
func Build(desc *schema.PluginDescription, opts BuildOptions) (*Result, error) {
	if opts.DefinitionPath == "" || opts.BindingsPath == "" {
		return nil, NewInvalidOptionsError("both the definition and the bindings path are required")
	}
	if filepath.Clean(opts.DefinitionPath) == filepath.Clean(opts.BindingsPath) {
		return nil, NewInvalidOptionsError("definition and bindings must be different files")
	}

	var vopts []schema.ValidateOption
	if opts.StrictChoices {
		vopts = append(vopts, schema.WithStrictChoices())
	}
	res := &Result{Diagnostics: schema.Validate(desc, vopts...)}
	if res.Diagnostics.HasErrors() {
		return res, NewInvalidPluginError(len(res.Diagnostics), res.Diagnostics.String())
	}

	art, err := Generate(desc, Options{Package: opts.Package, RuntimeImport: opts.RuntimeImport})
	if err != nil {
		return res, err
	}
	res.Artifacts = art

	outputs := []struct {
		path string
		data []byte
	}{
		{opts.DefinitionPath, art.Definition},
		{opts.BindingsPath, art.Bindings},
	}

	// Stage every file before renaming any, so a failed write leaves both
	// previous artifacts in place.
	staged := make([]string, 0, len(outputs))
	defer func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp) // no-op after a successful rename
		}
	}()
	for _, out := range outputs {
		tmp, err := stageFile(out.path, out.data)
		if err != nil {
			return res, err
		}
		staged = append(staged, tmp)
	}
	for i, out := range outputs {
		if err := os.Rename(staged[i], out.path); err != nil {
			return res, NewWriteFailedError(out.path, err)
		}
		res.Written = append(res.Written, out.path)
	}
	return res, nil
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place, so readers see either the old or the new content.
func writeAtomic(path string, data []byte) error {
	tmp, err := stageFile(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return NewWriteFailedError(path, err)
	}
	return nil
}

// stageFile writes data to a synced temporary file in the directory of
// path and returns its name. The caller renames or removes it.
func stageFile(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", NewWriteFailedError(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", NewWriteFailedError(path, err)
	}
	tmpName := tmp.Name()
	fail := func(err error) (string, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", NewWriteFailedError(path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", NewWriteFailedError(path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", NewWriteFailedError(path, err)
	}
	return tmpName, nil
}
