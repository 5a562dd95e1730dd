// errors.go: structured error definitions for the touchportal runtime
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"github.com/agilira/go-errors"
)

// Error codes for the runtime protocol engine
const (
	// Configuration errors (1000-1099)
	ErrCodeMissingAddress        = "TP_1001"
	ErrCodeInvalidAddress        = "TP_1002"
	ErrCodeInvalidTimeout        = "TP_1003"
	ErrCodeMissingPluginID       = "TP_1004"
	ErrCodeConfigValidationError = "TP_1005"

	// Connection and protocol errors (2000-2099)
	ErrCodeConnectFailed   = "TP_2001"
	ErrCodePairingFailed   = "TP_2002"
	ErrCodePairingTimeout  = "TP_2003"
	ErrCodeMalformedFrame  = "TP_2004"
	ErrCodeConnectionLost  = "TP_2005"
	ErrCodeWriteFailed     = "TP_2006"
	ErrCodeFrameTooLarge   = "TP_2007"
	ErrCodeSetupFailed     = "TP_2008"
	ErrCodeEngineStarted   = "TP_2009"
	ErrCodeHandlerFailed   = "TP_2010"
	ErrCodeUnknownFrame    = "TP_2011"
	ErrCodeInvalidDataType = "TP_2012"

	// Outbound handle errors (3000-3099)
	ErrCodeHandleClosed          = "TP_3001"
	ErrCodeInvalidConnectorValue = "TP_3002"
	ErrCodeInvalidCommand        = "TP_3003"
	ErrCodeSerializationError    = "TP_3004"
)

// Configuration error constructors

func NewMissingAddressError() *errors.Error {
	return errors.New(ErrCodeMissingAddress, "Missing host address").
		WithUserMessage("A host address (host:port) is required to reach the host application").
		WithSeverity("error")
}

func NewInvalidAddressError(address string, cause error) *errors.Error {
	if cause == nil {
		return errors.New(ErrCodeInvalidAddress, "Invalid host address").
			WithUserMessage("The host address must have the form host:port").
			WithContext("address", address).
			WithSeverity("error")
	}
	return errors.Wrap(cause, ErrCodeInvalidAddress, "Invalid host address").
		WithUserMessage("The host address must have the form host:port").
		WithContext("address", address).
		WithSeverity("error")
}

func NewInvalidTimeoutError(name string, value interface{}) *errors.Error {
	return errors.New(ErrCodeInvalidTimeout, "Invalid timeout").
		WithUserMessage("Timeouts must be greater than zero").
		WithContext("timeout_name", name).
		WithContext("timeout", value).
		WithSeverity("error")
}

func NewMissingPluginIDError() *errors.Error {
	return errors.New(ErrCodeMissingPluginID, "Missing plugin id").
		WithUserMessage("The binding must carry the plugin identifier used for pairing").
		WithSeverity("error")
}

func NewConfigValidationError(message string, cause error) *errors.Error {
	if cause == nil {
		return errors.New(ErrCodeConfigValidationError, "Configuration validation error: "+message).
			WithUserMessage("Configuration validation failed").
			WithSeverity("error")
	}
	return errors.Wrap(cause, ErrCodeConfigValidationError, "Configuration validation error: "+message).
		WithUserMessage("Configuration validation failed").
		WithSeverity("error")
}

// Connection and protocol error constructors

func NewConnectFailedError(address string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConnectFailed, "Connection to host failed").
		WithUserMessage("Failed to connect to the host application").
		WithContext("address", address).
		WithSeverity("error").
		AsRetryable()
}

func NewPairingFailedError(message string, cause error) *errors.Error {
	if cause == nil {
		return errors.New(ErrCodePairingFailed, "Pairing failed: "+message).
			WithUserMessage("The host did not accept the plugin").
			WithSeverity("error")
	}
	return errors.Wrap(cause, ErrCodePairingFailed, "Pairing failed: "+message).
		WithUserMessage("The host did not accept the plugin").
		WithSeverity("error")
}

func NewPairingTimeoutError(pluginID string, timeout interface{}) *errors.Error {
	return errors.New(ErrCodePairingTimeout, "Pairing timeout").
		WithUserMessage("The host did not acknowledge pairing in time").
		WithContext("plugin_id", pluginID).
		WithContext("timeout", timeout).
		WithSeverity("error").
		AsRetryable()
}

func NewMalformedFrameError(message string, cause error) *errors.Error {
	if cause == nil {
		return errors.New(ErrCodeMalformedFrame, "Malformed frame: "+message).
			WithUserMessage("An inbound message could not be decoded").
			WithSeverity("warning")
	}
	return errors.Wrap(cause, ErrCodeMalformedFrame, "Malformed frame: "+message).
		WithUserMessage("An inbound message could not be decoded").
		WithSeverity("warning")
}

func NewConnectionLostError(cause error) *errors.Error {
	if cause == nil {
		return errors.New(ErrCodeConnectionLost, "Connection lost").
			WithUserMessage("The host closed the connection without notice").
			WithSeverity("error").
			AsRetryable()
	}
	return errors.Wrap(cause, ErrCodeConnectionLost, "Connection lost").
		WithUserMessage("The connection to the host failed").
		WithSeverity("error").
		AsRetryable()
}

func NewWriteFailedError(frameType string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeWriteFailed, "Write failed").
		WithUserMessage("Sending a message to the host failed").
		WithContext("frame_type", frameType).
		WithSeverity("error").
		AsRetryable()
}

func NewFrameTooLargeError(limit int) *errors.Error {
	return errors.New(ErrCodeFrameTooLarge, "Frame too large").
		WithUserMessage("An inbound message exceeded the maximum frame size").
		WithContext("max_frame_size", limit).
		WithSeverity("warning")
}

func NewSetupFailedError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeSetupFailed, "Plugin setup failed").
		WithUserMessage("The plugin could not build its handlers after pairing").
		WithSeverity("error")
}

func NewEngineStartedError() *errors.Error {
	return errors.New(ErrCodeEngineStarted, "Engine already started").
		WithUserMessage("An engine instance can only run once").
		WithSeverity("error")
}

func NewHandlerFailedError(frameType, id string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeHandlerFailed, "Handler failed").
		WithUserMessage("A plugin callback reported a failure").
		WithContext("frame_type", frameType).
		WithContext("id", id).
		WithSeverity("warning")
}

func NewUnknownFrameError(frameType string) *errors.Error {
	return errors.New(ErrCodeUnknownFrame, "Unknown frame type").
		WithUserMessage("The host sent a message type this plugin does not handle").
		WithContext("frame_type", frameType).
		WithSeverity("warning")
}

func NewInvalidDataTypeError(dataID, want string, value interface{}) *errors.Error {
	return errors.New(ErrCodeInvalidDataType, "Invalid data value").
		WithUserMessage("A data field value could not be converted to its declared type").
		WithContext("data_id", dataID).
		WithContext("expected", want).
		WithContext("value", value).
		WithSeverity("warning")
}

// Outbound handle error constructors

func NewHandleClosedError() *errors.Error {
	return errors.New(ErrCodeHandleClosed, "Handle closed").
		WithUserMessage("The connection to the host is closed; updates are no longer delivered").
		WithSeverity("warning")
}

func NewInvalidConnectorValueError(connectorID string, value int) *errors.Error {
	return errors.New(ErrCodeInvalidConnectorValue, "Invalid connector value").
		WithUserMessage("Connector values must be between 0 and 100").
		WithContext("connector_id", connectorID).
		WithContext("value", value).
		WithSeverity("error")
}

func NewInvalidCommandError(message string) *errors.Error {
	return errors.New(ErrCodeInvalidCommand, "Invalid command: "+message).
		WithUserMessage("The outbound command is incomplete").
		WithSeverity("error")
}

func NewSerializationError(message string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeSerializationError, "Serialization error: "+message).
		WithUserMessage("Data serialization failed").
		WithSeverity("error")
}
