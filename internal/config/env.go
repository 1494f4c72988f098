// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/john-james-ai/d8analysis/internal/log"
)

// sensitiveKey reports whether an env key holds a secret that must not
// appear in logs.
func sensitiveKey(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password")
}

// lookupEnv reads key, parses it with parse, and logs how the value was
// chosen. Unset and empty behave identically, so `D8A_FOO= d8ad` cannot
// silently blank a setting. Unparseable values warn and keep the default.
func lookupEnv[T any](key string, defaultValue T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")

	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		logger.Debug().
			Str("key", key).
			Any("default", defaultValue).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}

	value, err := parse(raw)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Any("default", defaultValue).
			Msg("invalid environment value, using default")
		return defaultValue
	}

	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if sensitiveKey(key) {
		ev.Bool("sensitive", true).Msg("using environment variable")
	} else {
		ev.Any("value", value).Msg("using environment variable")
	}
	return value
}

// ParseString reads a string setting from the environment, falling back
// to defaultValue when unset or empty.
func ParseString(key, defaultValue string) string {
	return lookupEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer setting, keeping the default on parse errors.
func ParseInt(key string, defaultValue int) int {
	return lookupEnv(key, defaultValue, strconv.Atoi)
}

// ParseFloat reads a float64 setting, keeping the default on parse errors.
func ParseFloat(key string, defaultValue float64) float64 {
	return lookupEnv(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseDuration reads a Go duration ("5s", "1h30m"), keeping the default
// on parse errors.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return lookupEnv(key, defaultValue, time.ParseDuration)
}

// ParseBool reads a boolean setting. Accepted spellings are true/false,
// 1/0 and yes/no, case-insensitive.
func ParseBool(key string, defaultValue bool) bool {
	return lookupEnv(key, defaultValue, func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, fmt.Errorf("not a boolean: %q", s)
	})
}

// parseCSV splits a comma-separated environment value into trimmed, non-empty parts.
func parseCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseIntCSV parses a comma-separated list of integers, skipping invalid entries.
func parseIntCSV(value string) []int {
	var out []int
	for _, p := range parseCSV(value) {
		if n, err := strconv.Atoi(p); err == nil {
			out = append(out, n)
		}
	}
	return out
}
