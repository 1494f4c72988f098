// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"
)

func TestParseString(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		setEnv   bool
		def      string
		want     string
	}{
		{name: "env set", envValue: "from-env", setEnv: true, def: "fallback", want: "from-env"},
		{name: "env empty", envValue: "", setEnv: true, def: "fallback", want: "fallback"},
		{name: "env unset", setEnv: false, def: "fallback", want: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "D8A_TEST_STRING"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			}
			if got := ParseString(key, tt.def); got != tt.want {
				t.Errorf("ParseString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		setEnv   bool
		def      int
		want     int
	}{
		{name: "valid int", envValue: "42", setEnv: true, def: 7, want: 42},
		{name: "negative int", envValue: "-3", setEnv: true, def: 7, want: -3},
		{name: "invalid int", envValue: "not-a-number", setEnv: true, def: 7, want: 7},
		{name: "empty", envValue: "", setEnv: true, def: 7, want: 7},
		{name: "unset", setEnv: false, def: 7, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "D8A_TEST_INT"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			}
			if got := ParseInt(key, tt.def); got != tt.want {
				t.Errorf("ParseInt() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		setEnv   bool
		def      bool
		want     bool
	}{
		{name: "true", envValue: "true", setEnv: true, def: false, want: true},
		{name: "one", envValue: "1", setEnv: true, def: false, want: true},
		{name: "yes", envValue: "YES", setEnv: true, def: false, want: true},
		{name: "false", envValue: "false", setEnv: true, def: true, want: false},
		{name: "zero", envValue: "0", setEnv: true, def: true, want: false},
		{name: "no", envValue: "No", setEnv: true, def: true, want: false},
		{name: "garbage", envValue: "maybe", setEnv: true, def: true, want: true},
		{name: "unset", setEnv: false, def: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "D8A_TEST_BOOL"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			}
			if got := ParseBool(key, tt.def); got != tt.want {
				t.Errorf("ParseBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		setEnv   bool
		def      time.Duration
		want     time.Duration
	}{
		{name: "seconds", envValue: "5s", setEnv: true, def: time.Minute, want: 5 * time.Second},
		{name: "compound", envValue: "1h30m", setEnv: true, def: time.Minute, want: 90 * time.Minute},
		{name: "invalid", envValue: "fast", setEnv: true, def: time.Minute, want: time.Minute},
		{name: "unset", setEnv: false, def: time.Minute, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "D8A_TEST_DURATION"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			}
			if got := ParseDuration(key, tt.def); got != tt.want {
				t.Errorf("ParseDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		setEnv   bool
		def      float64
		want     float64
	}{
		{name: "valid", envValue: "0.01", setEnv: true, def: 0.05, want: 0.01},
		{name: "invalid", envValue: "tiny", setEnv: true, def: 0.05, want: 0.05},
		{name: "unset", setEnv: false, def: 0.05, want: 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const key = "D8A_TEST_FLOAT"
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			}
			if got := ParseFloat(key, tt.def); got != tt.want {
				t.Errorf("ParseFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCSVHelpers(t *testing.T) {
	if got := parseCSV(" a, b ,,c "); len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("parseCSV() = %v", got)
	}
	if got := parseCSV("  "); got != nil {
		t.Errorf("parseCSV(blank) = %v, want nil", got)
	}
	if got := parseIntCSV("80, 443, x, 8443"); len(got) != 3 || got[2] != 8443 {
		t.Errorf("parseIntCSV() = %v", got)
	}
}
