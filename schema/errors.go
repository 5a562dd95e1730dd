// errors.go: structured error definitions for plugin descriptions
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"github.com/agilira/go-errors"
)

// Error codes for description construction, validation and decoding
const (
	// Construction errors (4000-4099). Builders panic with these.
	ErrCodeEmptyID             = "SCHEMA_4001"
	ErrCodeEmptyName           = "SCHEMA_4002"
	ErrCodeInvalidVersion      = "SCHEMA_4003"
	ErrCodeInvalidColor        = "SCHEMA_4004"
	ErrCodeEmptyChoices        = "SCHEMA_4005"
	ErrCodeDefaultNotInChoices = "SCHEMA_4006"
	ErrCodeMissingExecutionCmd = "SCHEMA_4007"
	ErrCodeDefaultOutOfRange   = "SCHEMA_4008"
	ErrCodeInvalidRange        = "SCHEMA_4009"
	ErrCodeInvalidKind         = "SCHEMA_4010"

	// Validation errors (4100-4199)
	ErrCodeValidationFailed = "SCHEMA_4101"

	// Decoding errors (4200-4299)
	ErrCodeDefinitionDecode  = "SCHEMA_4201"
	ErrCodeDefinitionEncode  = "SCHEMA_4202"
	ErrCodeDescriptionRead   = "SCHEMA_4203"
	ErrCodeUnsupportedFormat = "SCHEMA_4204"
)

func NewEmptyIDError(entity string) *errors.Error {
	return errors.New(ErrCodeEmptyID, "Empty identifier").
		WithUserMessage("Every "+entity+" needs a non-empty identifier").
		WithContext("entity", entity).
		WithSeverity("critical")
}

func NewEmptyNameError(entity, id string) *errors.Error {
	return errors.New(ErrCodeEmptyName, "Empty name").
		WithUserMessage("Every "+entity+" needs a display name").
		WithContext("entity", entity).
		WithContext("id", id).
		WithSeverity("critical")
}

func NewInvalidVersionError(version uint) *errors.Error {
	return errors.New(ErrCodeInvalidVersion, "Invalid plugin version").
		WithUserMessage("The plugin version must be at least 1").
		WithContext("version", version).
		WithSeverity("critical")
}

func NewInvalidColorError(field, value string) *errors.Error {
	return errors.New(ErrCodeInvalidColor, "Invalid colour").
		WithUserMessage("Colours use the #RRGGBB or #AARRGGBB form").
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity("critical")
}

func NewEmptyChoicesError(entity, id string) *errors.Error {
	return errors.New(ErrCodeEmptyChoices, "Choice without choices").
		WithUserMessage("Choice values need at least one allowed choice").
		WithContext("entity", entity).
		WithContext("id", id).
		WithSeverity("critical")
}

func NewDefaultNotInChoicesError(id, value string) *errors.Error {
	return errors.New(ErrCodeDefaultNotInChoices, "Default is not an allowed choice").
		WithUserMessage("The default of a choice must be one of its choices").
		WithContext("id", id).
		WithContext("default", value).
		WithSeverity("critical")
}

func NewMissingExecutionCmdError(actionID string) *errors.Error {
	return errors.New(ErrCodeMissingExecutionCmd, "Static action without command").
		WithUserMessage("Statically mapped actions need a command to execute").
		WithContext("action_id", actionID).
		WithSeverity("critical")
}

func NewDefaultOutOfRangeError(id string, value, min, max float64) *errors.Error {
	return errors.New(ErrCodeDefaultOutOfRange, "Default outside range").
		WithUserMessage("A number default must lie between its minimum and maximum").
		WithContext("id", id).
		WithContext("default", value).
		WithContext("min", min).
		WithContext("max", max).
		WithSeverity("critical")
}

func NewInvalidRangeError(id string, min, max float64) *errors.Error {
	return errors.New(ErrCodeInvalidRange, "Invalid range").
		WithUserMessage("The minimum must not exceed the maximum").
		WithContext("id", id).
		WithContext("min", min).
		WithContext("max", max).
		WithSeverity("critical")
}

func NewInvalidKindError(entity, kind string) *errors.Error {
	return errors.New(ErrCodeInvalidKind, "Unknown kind").
		WithUserMessage("The "+entity+" uses an unsupported type").
		WithContext("entity", entity).
		WithContext("kind", kind).
		WithSeverity("critical")
}

func NewValidationFailedError(count int, summary string) *errors.Error {
	return errors.New(ErrCodeValidationFailed, "Description validation failed").
		WithUserMessage(summary).
		WithContext("diagnostics", count).
		WithSeverity("error")
}

func NewDefinitionDecodeError(message string, cause error) *errors.Error {
	if cause == nil {
		return errors.New(ErrCodeDefinitionDecode, "Definition decode failed: "+message).
			WithUserMessage("The definition document could not be read").
			WithSeverity("error")
	}
	return errors.Wrap(cause, ErrCodeDefinitionDecode, "Definition decode failed: "+message).
		WithUserMessage("The definition document could not be read").
		WithSeverity("error")
}

func NewDefinitionEncodeError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDefinitionEncode, "Definition encode failed").
		WithUserMessage("The definition document could not be written").
		WithSeverity("error")
}

func NewDescriptionReadError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeDescriptionRead, "Description file read failed").
		WithUserMessage("The description file could not be read").
		WithContext("path", path).
		WithSeverity("error")
}

func NewUnsupportedFormatError(path, format string, cause error) *errors.Error {
	const msg = "Unsupported description format"
	var err *errors.Error
	if cause == nil {
		err = errors.New(ErrCodeUnsupportedFormat, msg)
	} else {
		err = errors.Wrap(cause, ErrCodeUnsupportedFormat, msg)
	}
	return err.
		WithUserMessage("Description files must be JSON, YAML or another format argus can parse").
		WithContext("path", path).
		WithContext("format", format).
		WithSeverity("error")
}
