// config_test.go: configuration defaults, validation and environment overrides
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package touchportal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultAddress, cfg.Address)
	assert.Equal(t, DefaultPairingTimeout, cfg.PairingTimeout)
	assert.Equal(t, DefaultDialTimeout, cfg.DialTimeout)
	assert.Equal(t, DefaultWriteTimeout, cfg.WriteTimeout)
	assert.Equal(t, DefaultMaxFrameSize, cfg.MaxFrameSize)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.Metrics)

	// Plugin id has no default.
	assert.Equal(t, ErrCodeMissingPluginID, codeOf(cfg.Validate()))
	cfg.PluginID = "p"
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	base := func() Config {
		cfg := DefaultConfig()
		cfg.PluginID = "p"
		return cfg
	}
	tests := []struct {
		name   string
		mutate func(*Config)
		code   string
	}{
		{"missing address", func(c *Config) { c.Address = "" }, ErrCodeMissingAddress},
		{"no port", func(c *Config) { c.Address = "localhost" }, ErrCodeInvalidAddress},
		{"empty port", func(c *Config) { c.Address = "localhost:" }, ErrCodeInvalidAddress},
		{"port out of range", func(c *Config) { c.Address = "localhost:70000" }, ErrCodeInvalidAddress},
		{"port not numeric", func(c *Config) { c.Address = "localhost:http" }, ErrCodeInvalidAddress},
		{"pairing timeout", func(c *Config) { c.PairingTimeout = -time.Second }, ErrCodeInvalidTimeout},
		{"dial timeout", func(c *Config) { c.DialTimeout = -1 }, ErrCodeInvalidTimeout},
		{"write timeout", func(c *Config) { c.WriteTimeout = -1 }, ErrCodeInvalidTimeout},
		{"frame size", func(c *Config) { c.MaxFrameSize = -1 }, ErrCodeConfigValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Equal(t, tt.code, codeOf(cfg.Validate()))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TOUCHPORTAL_PLUGIN_ID", "com.example.env")
	t.Setenv("TOUCHPORTAL_ADDRESS", "${TP_TEST_HOST:-127.0.0.1}:4000")
	t.Setenv("TOUCHPORTAL_PAIRING_TIMEOUT", "3s")
	t.Setenv("TOUCHPORTAL_WRITE_TIMEOUT", "250ms")

	cfg, err := ConfigFromEnv(DefaultEnvConfigOptions())
	require.NoError(t, err)
	assert.Equal(t, "com.example.env", cfg.PluginID)
	assert.Equal(t, "127.0.0.1:4000", cfg.Address)
	assert.Equal(t, 3*time.Second, cfg.PairingTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.WriteTimeout)
}

func TestConfigFromEnv_InvalidDuration(t *testing.T) {
	t.Setenv("TOUCHPORTAL_PLUGIN_ID", "p")
	t.Setenv("TOUCHPORTAL_PAIRING_TIMEOUT", "soon")

	_, err := ConfigFromEnv(DefaultEnvConfigOptions())
	assert.Equal(t, ErrCodeConfigValidationError, codeOf(err))
}

func TestExpandEnvironmentVariables(t *testing.T) {
	t.Setenv("TP_EXPAND_PLAIN", "plain")
	t.Setenv("APP_TP_EXPAND_PREFIXED", "prefixed")

	opts := EnvConfigOptions{Prefix: "APP_", ValidateValues: true, Defaults: map[string]string{"TP_EXPAND_CONFIGURED": "configured"}}

	tests := map[string]string{
		"${TP_EXPAND_PLAIN}":                      "plain",
		"${TP_EXPAND_PREFIXED}":                   "prefixed",
		"${TP_EXPAND_MISSING:-fallback}":          "fallback",
		"${TP_EXPAND_CONFIGURED}":                 "configured",
		"${TP_EXPAND_MISSING}":                    "",
		"a-${TP_EXPAND_PLAIN}-${TP_EXPAND_PLAIN}": "a-plain-plain",
		"no references":                           "no references",
	}
	for input, want := range tests {
		got, err := ExpandEnvironmentVariables(input, opts)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	opts.FailOnMissing = true
	_, err := ExpandEnvironmentVariables("${TP_EXPAND_MISSING}", opts)
	assert.Equal(t, ErrCodeConfigValidationError, codeOf(err))
}

func TestExpandEnvironmentVariables_Validation(t *testing.T) {
	opts := DefaultEnvConfigOptions()

	t.Setenv("TP_EXPAND_CTRL", "bad\x01value")
	_, err := ExpandEnvironmentVariables("${TP_EXPAND_CTRL}", opts)
	assert.Equal(t, ErrCodeConfigValidationError, codeOf(err))

	t.Setenv("TP_EXPAND_LONG", strings.Repeat("x", maxEnvValueLength+1))
	_, err = ExpandEnvironmentVariables("${TP_EXPAND_LONG}", opts)
	assert.Equal(t, ErrCodeConfigValidationError, codeOf(err))

	t.Setenv("TP_EXPAND_TAB", "a\tb")
	got, err := ExpandEnvironmentVariables("${TP_EXPAND_TAB}", opts)
	require.NoError(t, err)
	assert.Equal(t, "a\tb", got)

	opts.ValidateValues = false
	got, err = ExpandEnvironmentVariables("${TP_EXPAND_CTRL}", opts)
	require.NoError(t, err)
	assert.Equal(t, "bad\x01value", got)
}
