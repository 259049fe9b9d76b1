// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/monobar/playd/internal/log"
)

// ParseString reads a string from an environment variable or returns the
// default. Empty values fall back to the default.
func ParseString(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	logger := log.WithComponent("config")
	lowerKey := strings.ToLower(key)
	if strings.Contains(lowerKey, "token") || strings.Contains(lowerKey, "password") {
		logger.Debug().Str("key", key).Bool("sensitive", true).Msg("using environment variable")
	} else {
		logger.Debug().Str("key", key).Str("value", value).Msg("using environment variable")
	}
	return value
}

// ParseInt reads an integer from an environment variable or returns the
// default. Unparseable values fall back to the default with a warning.
func ParseInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().
			Str("key", key).
			Str("value", value).
			Int("default", defaultValue).
			Msg("invalid integer in environment, using default")
		return defaultValue
	}
	return n
}

// ParseDuration reads a duration from an environment variable or returns
// the default. Unparseable values fall back to the default with a warning.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().
			Str("key", key).
			Str("value", value).
			Dur("default", defaultValue).
			Msg("invalid duration in environment, using default")
		return defaultValue
	}
	return d
}

// ParseBool reads a boolean from an environment variable or returns the
// default. Accepts the strconv.ParseBool forms.
func ParseBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		logger := log.WithComponent("config")
		logger.Warn().
			Str("key", key).
			Str("value", value).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment, using default")
		return defaultValue
	}
	return b
}
