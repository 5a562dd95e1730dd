// config.go: Engine configuration, defaults and environment overrides
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAddress is where the host application listens for plugins.
	DefaultAddress = "127.0.0.1:12136"

	// DefaultPairingTimeout bounds the wait for the host's info frame.
	DefaultPairingTimeout = 30 * time.Second

	DefaultDialTimeout  = 10 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	// DefaultMaxFrameSize is the longest inbound line accepted.
	DefaultMaxFrameSize = 1 << 20
)

// Config configures an Engine.
//
// The hosting process owns the endpoint; everything else has usable
// defaults. Zero values are replaced by ApplyDefaults.
//
// Example usage:
//
//	cfg := touchportal.DefaultConfig()
//	cfg.PluginID = "com.example.lights"
//	cfg.Logger = touchportal.NewDefaultHCLogger("my-plugin", "debug")
//	engine := touchportal.NewEngine(cfg)
type Config struct {
	// PluginID is sent in the pair request; generated bindings set it
	PluginID string `json:"plugin_id" yaml:"plugin_id"`

	// Address of the host in host:port form
	Address string `json:"address" yaml:"address"`

	// PairingTimeout bounds the wait for the pairing acknowledgement
	PairingTimeout time.Duration `json:"pairing_timeout" yaml:"pairing_timeout"`

	// DialTimeout bounds the TCP connect
	DialTimeout time.Duration `json:"dial_timeout" yaml:"dial_timeout"`

	// WriteTimeout bounds a single outbound frame write; 0 applies the default
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// MaxFrameSize is the largest inbound line in bytes
	MaxFrameSize int `json:"max_frame_size" yaml:"max_frame_size"`

	Logger  Logger           `json:"-" yaml:"-"`
	Metrics MetricsCollector `json:"-" yaml:"-"`
}

// DefaultConfig returns a configuration pointing at the local host application.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if c.PairingTimeout == 0 {
		c.PairingTimeout = DefaultPairingTimeout
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.MaxFrameSize == 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
	if c.Logger == nil {
		c.Logger = DefaultLogger()
	}
	if c.Metrics == nil {
		c.Metrics = NewNoOpMetrics()
	}
}

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	if c.PluginID == "" {
		return NewMissingPluginIDError()
	}
	if c.Address == "" {
		return NewMissingAddressError()
	}
	_, port, err := net.SplitHostPort(c.Address)
	if err != nil {
		return NewInvalidAddressError(c.Address, err)
	}
	if port == "" {
		return NewInvalidAddressError(c.Address, nil)
	}
	if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
		return NewInvalidAddressError(c.Address, err)
	}

	if c.PairingTimeout <= 0 {
		return NewInvalidTimeoutError("pairing_timeout", c.PairingTimeout)
	}
	if c.DialTimeout <= 0 {
		return NewInvalidTimeoutError("dial_timeout", c.DialTimeout)
	}
	if c.WriteTimeout <= 0 {
		return NewInvalidTimeoutError("write_timeout", c.WriteTimeout)
	}
	if c.MaxFrameSize <= 0 {
		return NewConfigValidationError("max frame size must be greater than 0", nil)
	}
	return nil
}

// EnvConfigOptions configures environment variable processing.
type EnvConfigOptions struct {
	// Prefix for environment variables (e.g., "TOUCHPORTAL_")
	Prefix string `json:"prefix" yaml:"prefix"`

	// Whether to fail when a referenced variable is missing
	FailOnMissing bool `json:"fail_on_missing" yaml:"fail_on_missing"`

	// Whether to validate values for null bytes, control characters and length
	ValidateValues bool `json:"validate_values" yaml:"validate_values"`

	// Default values for undefined variables
	Defaults map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// DefaultEnvConfigOptions returns the options used by ConfigFromEnv callers
// that have no special needs.
func DefaultEnvConfigOptions() EnvConfigOptions {
	return EnvConfigOptions{
		Prefix:         "TOUCHPORTAL_",
		FailOnMissing:  false,
		ValidateValues: true,
		Defaults:       make(map[string]string),
	}
}

// ConfigFromEnv builds a Config from defaults overridden by the environment.
//
// Recognised variables (with the configured prefix):
//   - PLUGIN_ID: overrides the identifier sent when pairing
//   - ADDRESS: host:port of the host application
//   - PAIRING_TIMEOUT: Go duration string
//   - WRITE_TIMEOUT: Go duration string
//
// Values may themselves contain ${VAR} or ${VAR:-default} references.
func ConfigFromEnv(options EnvConfigOptions) (Config, error) {
	cfg := DefaultConfig()

	if raw, ok := lookupPrefixed(options, "PLUGIN_ID"); ok {
		cfg.PluginID = raw
	}
	if raw, ok := lookupPrefixed(options, "ADDRESS"); ok {
		addr, err := ExpandEnvironmentVariables(raw, options)
		if err != nil {
			return cfg, err
		}
		cfg.Address = addr
	}

	for name, target := range map[string]*time.Duration{
		"PAIRING_TIMEOUT": &cfg.PairingTimeout,
		"WRITE_TIMEOUT":   &cfg.WriteTimeout,
	} {
		raw, ok := lookupPrefixed(options, name)
		if !ok {
			continue
		}
		expanded, err := ExpandEnvironmentVariables(raw, options)
		if err != nil {
			return cfg, err
		}
		d, err := time.ParseDuration(expanded)
		if err != nil {
			return cfg, NewConfigValidationError(fmt.Sprintf("invalid duration for %s%s", options.Prefix, name), err)
		}
		*target = d
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func lookupPrefixed(options EnvConfigOptions, name string) (string, bool) {
	if v, ok := os.LookupEnv(options.Prefix + name); ok && v != "" {
		return v, true
	}
	if v, ok := options.Defaults[name]; ok {
		return v, true
	}
	return "", false
}

var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// ExpandEnvironmentVariables expands ${VAR} and ${VAR:-default} references.
//
// Variable resolution order: prefixed variable, plain variable, inline
// default, configured default. A missing variable expands to the empty
// string unless FailOnMissing is set.
func ExpandEnvironmentVariables(input string, options EnvConfigOptions) (string, error) {
	if input == "" {
		return input, nil
	}

	var firstErr error
	result := variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := variablePattern.FindStringSubmatch(match)
		value, err := expandSingleEnvironmentVariable(sub[1], sub[3], options)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return match
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

func expandSingleEnvironmentVariable(varName, inlineDefault string, options EnvConfigOptions) (string, error) {
	prefixedName := options.Prefix + varName
	if value := os.Getenv(prefixedName); value != "" {
		return validateAndSanitizeValue(value, options)
	}
	if value := os.Getenv(varName); value != "" {
		return validateAndSanitizeValue(value, options)
	}
	if inlineDefault != "" {
		return validateAndSanitizeValue(inlineDefault, options)
	}
	if value, exists := options.Defaults[varName]; exists {
		return validateAndSanitizeValue(value, options)
	}
	if options.FailOnMissing {
		return "", NewConfigValidationError(fmt.Sprintf("required environment variable not found: %s (also tried %s)", varName, prefixedName), nil)
	}
	return "", nil
}

const maxEnvValueLength = 4096

func validateAndSanitizeValue(value string, options EnvConfigOptions) (string, error) {
	if !options.ValidateValues {
		return value, nil
	}
	if strings.Contains(value, "\x00") {
		return "", NewConfigValidationError("environment variable value contains null byte", nil)
	}
	if len(value) > maxEnvValueLength {
		return "", NewConfigValidationError(fmt.Sprintf("environment variable value too long: %d bytes (max %d)", len(value), maxEnvValueLength), nil)
	}
	for i, r := range value {
		if r < 32 && r != '\t' {
			return "", NewConfigValidationError(fmt.Sprintf("environment variable contains control character at position %d", i), nil)
		}
	}
	return value, nil
}
