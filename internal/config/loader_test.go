// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	cfg, err := NewLoader("", "v1.2.3").Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Version != "v1.2.3" {
		t.Errorf("Version = %q, want v1.2.3", cfg.Version)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, dir)
	}
	if cfg.ReportDir != filepath.Join(dir, "reports") {
		t.Errorf("ReportDir = %q, want derived under data dir", cfg.ReportDir)
	}
	if cfg.Catalog.Path != filepath.Join(dir, "catalog.db") {
		t.Errorf("Catalog.Path = %q, want derived under data dir", cfg.Catalog.Path)
	}
	if cfg.Profile.MaxConcurrency != 4 {
		t.Errorf("Profile.MaxConcurrency = %d, want 4", cfg.Profile.MaxConcurrency)
	}
	if cfg.Profile.Alpha != 0.05 {
		t.Errorf("Profile.Alpha = %g, want 0.05", cfg.Profile.Alpha)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
data_dir: ` + dir + `
listen: ":9999"
profile:
  top_k: 25
  alpha: 0.01
watcher:
  enabled: true
  debounce: 3s
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(cfgPath, "test").Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want :9999", cfg.ListenAddr)
	}
	if cfg.Profile.TopK != 25 {
		t.Errorf("Profile.TopK = %d, want 25", cfg.Profile.TopK)
	}
	if cfg.Profile.Alpha != 0.01 {
		t.Errorf("Profile.Alpha = %g, want 0.01", cfg.Profile.Alpha)
	}
	if !cfg.Watcher.Enabled {
		t.Error("Watcher.Enabled = false, want true")
	}
	if cfg.Watcher.Debounce != 3*time.Second {
		t.Errorf("Watcher.Debounce = %v, want 3s", cfg.Watcher.Debounce)
	}
	// Untouched values keep defaults
	if cfg.Profile.Bins != 10 {
		t.Errorf("Profile.Bins = %d, want default 10", cfg.Profile.Bins)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
data_dir: ` + dir + `
listen: ":9999"
profile:
  top_k: 25
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvListen, ":7777")
	t.Setenv(EnvProfileTopK, "5")

	cfg, err := NewLoader(cfgPath, "test").Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.ListenAddr != ":7777" {
		t.Errorf("ListenAddr = %q, want env value :7777", cfg.ListenAddr)
	}
	if cfg.Profile.TopK != 5 {
		t.Errorf("Profile.TopK = %d, want env value 5", cfg.Profile.TopK)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	content := `
data_dir: ` + dir + `
report_format: nope
`
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(cfgPath, "test").Load()
	if err == nil {
		t.Fatal("Load() succeeded, want strict parse error")
	}
	if !strings.Contains(err.Error(), "config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadRejectsNonYAMLExtension(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(cfgPath, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(cfgPath, "test").Load(); err == nil {
		t.Fatal("Load() succeeded for .json, want error")
	}
}

func TestLoadValidationFailure(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvProfileAlpha, "1.5")

	if _, err := NewLoader("", "test").Load(); err == nil {
		t.Fatal("Load() succeeded with alpha=1.5, want validation error")
	}
}

func TestLoadRemoteListsFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvRemoteEnabled, "true")
	t.Setenv(EnvRemoteAllowHosts, "data.example.com, files.example.org")
	t.Setenv(EnvRemoteAllowPorts, "443,8443")

	cfg, err := NewLoader("", "test").Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Remote.AllowHosts) != 2 || cfg.Remote.AllowHosts[1] != "files.example.org" {
		t.Errorf("Remote.AllowHosts = %v", cfg.Remote.AllowHosts)
	}
	if len(cfg.Remote.AllowPorts) != 2 || cfg.Remote.AllowPorts[0] != 443 {
		t.Errorf("Remote.AllowPorts = %v", cfg.Remote.AllowPorts)
	}
}
