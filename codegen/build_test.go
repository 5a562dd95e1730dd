// build_test.go: validation gate and atomic artifact output
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/agilira/go-touchportal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPaths(dir string) BuildOptions {
	return BuildOptions{
		DefinitionPath: filepath.Join(dir, "entry.tp"),
		BindingsPath:   filepath.Join(dir, "tpbind", "bindings_gen.go"),
	}
}

func TestBuild_WritesBothArtifacts(t *testing.T) {
	dir := t.TempDir()
	opts := buildPaths(dir)

	res, err := Build(mixerPlugin(), opts)
	require.NoError(t, err)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, []string{opts.DefinitionPath, opts.BindingsPath}, res.Written)

	def, err := os.ReadFile(opts.DefinitionPath)
	require.NoError(t, err)
	assert.Equal(t, res.Artifacts.Definition, def)

	parsed, err := schema.ParseDefinition(def)
	require.NoError(t, err)
	again, err := schema.MarshalDefinition(parsed)
	require.NoError(t, err)
	assert.Equal(t, def, again)

	src, err := os.ReadFile(opts.BindingsPath)
	require.NoError(t, err)
	assert.Equal(t, res.Artifacts.Bindings, src)
	parseSource(t, src)

	info, err := os.Stat(opts.BindingsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestBuild_InvalidDescriptionWritesNothing(t *testing.T) {
	dir := t.TempDir()
	opts := buildPaths(dir)

	desc := mixerPlugin()
	desc.Categories[0].Actions[0].Lines = []string{"Set {$channel$} volume to {$lvl$}"}

	res, err := Build(desc, opts)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalidPlugin, codeOf(err))
	require.NotNil(t, res)
	assert.Equal(t,
		[]string{schema.RuleActionUndeclaredField, schema.RuleActionUnusedField},
		res.Diagnostics.Rules())
	assert.Nil(t, res.Artifacts)
	assert.Empty(t, res.Written)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuild_StrictChoices(t *testing.T) {
	desc := mixerPlugin()
	desc.Categories[0].Events[0].Value.Choices = []string{"on", "off", "unknown"}

	_, err := Build(desc, buildPaths(t.TempDir()))
	require.NoError(t, err)

	opts := buildPaths(t.TempDir())
	opts.StrictChoices = true
	res, err := Build(desc, opts)
	assert.Equal(t, ErrCodeInvalidPlugin, codeOf(err))
	assert.Equal(t, []string{schema.RuleEventChoiceSubset}, res.Diagnostics.Rules())
}

func TestBuild_ReplacesExistingFiles(t *testing.T) {
	dir := t.TempDir()
	opts := buildPaths(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(opts.BindingsPath), 0o750))
	require.NoError(t, os.WriteFile(opts.DefinitionPath, []byte("stale"), 0o600))
	require.NoError(t, os.WriteFile(opts.BindingsPath, []byte("stale"), 0o600))

	res, err := Build(mixerPlugin(), opts)
	require.NoError(t, err)

	def, err := os.ReadFile(opts.DefinitionPath)
	require.NoError(t, err)
	assert.Equal(t, res.Artifacts.Definition, def)

	for _, d := range []string{dir, filepath.Dir(opts.BindingsPath)} {
		entries, err := os.ReadDir(d)
		require.NoError(t, err)
		for _, e := range entries {
			assert.NotContains(t, e.Name(), ".tmp-", "temporary file left in %s", d)
		}
	}
}

func TestBuild_FailedBindingsKeepsOldDefinition(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "tpbind")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	opts := BuildOptions{
		DefinitionPath: filepath.Join(dir, "entry.tp"),
		BindingsPath:   filepath.Join(blocker, "bindings_gen.go"),
	}

	res, err := Build(mixerPlugin(), opts)
	assert.Equal(t, ErrCodeWriteFailed, codeOf(err))
	require.NotNil(t, res)
	assert.Empty(t, res.Written)
	_, err = os.Stat(opts.DefinitionPath)
	assert.True(t, os.IsNotExist(err), "definition written although the bindings failed")

	require.NoError(t, os.WriteFile(opts.DefinitionPath, []byte("previous"), 0o600))
	_, err = Build(mixerPlugin(), opts)
	assert.Equal(t, ErrCodeWriteFailed, codeOf(err))
	def, err := os.ReadFile(opts.DefinitionPath)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(def))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}

func TestBuild_OptionErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		opts BuildOptions
	}{
		{"no definition path", BuildOptions{BindingsPath: filepath.Join(dir, "b.go")}},
		{"no bindings path", BuildOptions{DefinitionPath: filepath.Join(dir, "entry.tp")}},
		{"same file", BuildOptions{
			DefinitionPath: filepath.Join(dir, "out"),
			BindingsPath:   filepath.Join(dir, ".", "out"),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Build(mixerPlugin(), tt.opts)
			assert.Nil(t, res)
			assert.Equal(t, ErrCodeInvalidOptions, codeOf(err))
		})
	}
}

func TestBuild_InvalidPackageWritesNothing(t *testing.T) {
	dir := t.TempDir()
	opts := buildPaths(dir)
	opts.Package = "not a package"

	_, err := Build(mixerPlugin(), opts)
	assert.Equal(t, ErrCodeInvalidPackage, codeOf(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAtomic_UnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := writeAtomic(filepath.Join(blocker, "out.go"), []byte("package x\n"))
	assert.Equal(t, ErrCodeWriteFailed, codeOf(err))
}
