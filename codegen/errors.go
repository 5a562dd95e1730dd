// errors.go: structured error definitions for binding generation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"github.com/agilira/go-errors"
)

// Error codes for generation and artifact output
const (
	ErrCodeInvalidPackage   = "GEN_5001"
	ErrCodeInvalidOptions   = "GEN_5002"
	ErrCodeTemplateFailed   = "GEN_5003"
	ErrCodeFormatFailed     = "GEN_5004"
	ErrCodeWriteFailed      = "GEN_5005"
	ErrCodeInvalidPlugin    = "GEN_5006"
	ErrCodeDefinitionFailed = "GEN_5007"
)

func NewInvalidPackageError(name string) *errors.Error {
	return errors.New(ErrCodeInvalidPackage, "Invalid package name").
		WithUserMessage("The generated package name must be a Go identifier").
		WithContext("package", name).
		WithSeverity("error")
}

func NewInvalidOptionsError(message string) *errors.Error {
	return errors.New(ErrCodeInvalidOptions, "Invalid build options: "+message).
		WithUserMessage(message).
		WithSeverity("error")
}

func NewTemplateFailedError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeTemplateFailed, "Binding template failed").
		WithUserMessage("The bindings could not be rendered").
		WithSeverity("critical")
}

// NewFormatFailedError reports generated source that does not parse. The
// unformatted source is attached for debugging.
func NewFormatFailedError(cause error, source []byte) *errors.Error {
	return errors.Wrap(cause, ErrCodeFormatFailed, "Generated source does not parse").
		WithUserMessage("The generated bindings are not valid Go").
		WithContext("source_bytes", len(source)).
		WithSeverity("critical")
}

func NewWriteFailedError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeWriteFailed, "Artifact write failed").
		WithUserMessage("A generated file could not be written").
		WithContext("path", path).
		WithSeverity("error")
}

// NewInvalidPluginError is returned by Build when validation produced
// diagnostics. Nothing has been written.
func NewInvalidPluginError(count int, summary string) *errors.Error {
	return errors.New(ErrCodeInvalidPlugin, "Plugin description is invalid").
		WithUserMessage(summary).
		WithContext("diagnostics", count).
		WithSeverity("error")
}

func NewDefinitionFailedError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDefinitionFailed, "Definition document failed").
		WithUserMessage("The definition document could not be produced").
		WithSeverity("error")
}
