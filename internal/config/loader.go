// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names consumed by the loader.
const (
	EnvDataDir        = "D8A_DATA_DIR"
	EnvReportDir      = "D8A_REPORT_DIR"
	EnvListen         = "D8A_LISTEN"
	EnvMetricsListen  = "D8A_METRICS_LISTEN"
	EnvAPIToken       = "D8A_API_TOKEN"
	EnvAuthAnonymous  = "D8A_AUTH_ANONYMOUS"
	EnvTrustedProxies = "D8A_TRUSTED_PROXIES"
	EnvCORSOrigins    = "D8A_CORS_ORIGINS"
	EnvMaxUploadBytes = "D8A_MAX_UPLOAD_BYTES"
	EnvLogLevel       = "D8A_LOG_LEVEL"

	EnvProfileConcurrency  = "D8A_PROFILE_CONCURRENCY"
	EnvProfileTopK         = "D8A_PROFILE_TOP_K"
	EnvProfileBins         = "D8A_PROFILE_BINS"
	EnvProfileAlpha        = "D8A_PROFILE_ALPHA"
	EnvProfileBestFit      = "D8A_PROFILE_BEST_FIT"
	EnvProfileCorrelations = "D8A_PROFILE_CORRELATIONS"
	EnvProfileSampleRows   = "D8A_PROFILE_SAMPLE_ROWS"

	EnvWatchEnabled      = "D8A_WATCH_ENABLED"
	EnvWatchDebounce     = "D8A_WATCH_DEBOUNCE"
	EnvWatchEventsPerMin = "D8A_WATCH_EVENTS_PER_MIN"
	EnvWatchEventsBurst  = "D8A_WATCH_EVENTS_BURST"

	EnvCatalogPath          = "D8A_CATALOG_PATH"
	EnvCatalogBusyTimeoutMS = "D8A_CATALOG_BUSY_TIMEOUT_MS"

	EnvResultsBackend = "D8A_RESULTS_BACKEND"
	EnvResultsPath    = "D8A_RESULTS_PATH"
	EnvResultsTTL     = "D8A_RESULTS_TTL"

	EnvCacheBackend  = "D8A_CACHE_BACKEND"
	EnvCacheTTL      = "D8A_CACHE_TTL"
	EnvRedisAddr     = "D8A_REDIS_ADDR"
	EnvRedisPassword = "D8A_REDIS_PASSWORD"
	EnvRedisDB       = "D8A_REDIS_DB"

	EnvRemoteEnabled    = "D8A_REMOTE_ENABLED"
	EnvRemoteAllowHosts = "D8A_REMOTE_ALLOW_HOSTS"
	EnvRemoteAllowCIDRs = "D8A_REMOTE_ALLOW_CIDRS"
	EnvRemoteAllowPorts = "D8A_REMOTE_ALLOW_PORTS"
	EnvRemoteSchemes    = "D8A_REMOTE_SCHEMES"
	EnvRemoteTimeout    = "D8A_REMOTE_TIMEOUT"
	EnvRemoteMaxBytes   = "D8A_REMOTE_MAX_BYTES"

	EnvOTelEnabled     = "D8A_OTEL_ENABLED"
	EnvOTelEndpoint    = "D8A_OTEL_ENDPOINT"
	EnvOTelExporter    = "D8A_OTEL_EXPORTER"
	EnvOTelSampleRate  = "D8A_OTEL_SAMPLE_RATE"
	EnvOTelEnvironment = "D8A_OTEL_ENVIRONMENT"

	EnvRateLimitEnabled = "D8A_RATE_LIMIT_ENABLED"
	EnvRateLimitReqs    = "D8A_RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow  = "D8A_RATE_LIMIT_WINDOW"
	EnvRateLimitProfile = "D8A_RATE_LIMIT_PROFILE"
)

// AutoConfigPath returns ${D8A_DATA_DIR}/config.yaml when that file
// exists, so operator-saved config persists without an explicit flag.
// It returns "" when no auto-loadable file is present.
func AutoConfigPath() string {
	dataDir := strings.TrimSpace(ParseString(EnvDataDir, "./data"))
	if dataDir == "" {
		return ""
	}
	path := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// Loader handles configuration loading with precedence
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath: configPath,
		version:    version,
	}
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (AppConfig, error) {
	cfg := defaults()

	// 1. Load from file (if provided)
	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	// 2. Override with environment variables (highest priority)
	mergeEnvConfig(&cfg)

	// SAFETY: Ensure DataDir is absolute to prevent path traversal/platform errors
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}

	// 3. Derive dependent paths that were left empty
	if cfg.ReportDir == "" {
		cfg.ReportDir = filepath.Join(cfg.DataDir, "reports")
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = filepath.Join(cfg.DataDir, "catalog.db")
	}
	if cfg.Results.Backend == "badger" && cfg.Results.Path == "" {
		cfg.Results.Path = filepath.Join(cfg.DataDir, "results")
	}

	// 4. Version from binary
	cfg.Version = l.version

	// 5. Validate final configuration
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func defaults() AppConfig {
	return AppConfig{
		DataDir:        "./data",
		ListenAddr:     ":8080",
		MetricsAddr:    ":9090",
		MaxUploadBytes: 256 << 20,
		LogLevel:       "info",
		Profile: ProfileConfig{
			MaxConcurrency: 4,
			TopK:           10,
			Bins:           10,
			Alpha:          0.05,
			BestFit:        true,
			Correlations:   true,
			SampleRows:     1000,
		},
		Watcher: WatcherConfig{
			Enabled:      false,
			Debounce:     2 * time.Second,
			EventsPerMin: 6,
			EventsBurst:  2,
		},
		Catalog: CatalogConfig{
			BusyTimeoutMS: 5000,
		},
		Results: ResultsConfig{
			Backend: "memory",
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     5 * time.Minute,
		},
		Remote: RemoteConfig{
			Enabled:  false,
			Schemes:  []string{"https"},
			Timeout:  30 * time.Second,
			MaxBytes: 256 << 20,
		},
		Telemetry: TelemetryConfig{
			Exporter:    "grpc",
			SampleRate:  1.0,
			Environment: "production",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			Requests:       120,
			Window:         time.Minute,
			ProfileTrigger: 10,
		},
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// mergeFileConfig applies present file values over the defaults.
func mergeFileConfig(cfg *AppConfig, f *FileConfig) {
	if f == nil {
		return
	}
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setI64 := func(dst *int64, src *int64) {
		if src != nil {
			*dst = *src
		}
	}
	setF64 := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	setDur := func(dst *time.Duration, src *time.Duration) {
		if src != nil {
			*dst = *src
		}
	}

	setStr(&cfg.DataDir, f.DataDir)
	setStr(&cfg.ReportDir, f.ReportDir)
	setStr(&cfg.ListenAddr, f.Listen)
	setStr(&cfg.MetricsAddr, f.MetricsListen)
	setStr(&cfg.APIToken, f.APIToken)
	setBool(&cfg.AuthAnonymous, f.AuthAnonymous)
	setStr(&cfg.TrustedProxies, f.TrustedProxies)
	if f.CORSOrigins != nil {
		cfg.CORSOrigins = f.CORSOrigins
	}
	setI64(&cfg.MaxUploadBytes, f.MaxUploadBytes)
	setStr(&cfg.LogLevel, f.LogLevel)

	if p := f.Profile; p != nil {
		setInt(&cfg.Profile.MaxConcurrency, p.MaxConcurrency)
		setInt(&cfg.Profile.TopK, p.TopK)
		setInt(&cfg.Profile.Bins, p.Bins)
		setF64(&cfg.Profile.Alpha, p.Alpha)
		setBool(&cfg.Profile.BestFit, p.BestFit)
		setBool(&cfg.Profile.Correlations, p.Correlations)
		setInt(&cfg.Profile.SampleRows, p.SampleRows)
	}
	if w := f.Watcher; w != nil {
		setBool(&cfg.Watcher.Enabled, w.Enabled)
		setDur(&cfg.Watcher.Debounce, w.Debounce)
		setF64(&cfg.Watcher.EventsPerMin, w.EventsPerMin)
		setInt(&cfg.Watcher.EventsBurst, w.EventsBurst)
	}
	if c := f.Catalog; c != nil {
		setStr(&cfg.Catalog.Path, c.Path)
		setInt(&cfg.Catalog.BusyTimeoutMS, c.BusyTimeoutMS)
	}
	if r := f.Results; r != nil {
		setStr(&cfg.Results.Backend, r.Backend)
		setStr(&cfg.Results.Path, r.Path)
		setDur(&cfg.Results.TTL, r.TTL)
	}
	if c := f.Cache; c != nil {
		setStr(&cfg.Cache.Backend, c.Backend)
		setDur(&cfg.Cache.TTL, c.TTL)
		setStr(&cfg.Cache.RedisAddr, c.RedisAddr)
		setStr(&cfg.Cache.RedisPassword, c.RedisPassword)
		setInt(&cfg.Cache.RedisDB, c.RedisDB)
	}
	if r := f.Remote; r != nil {
		setBool(&cfg.Remote.Enabled, r.Enabled)
		if r.AllowHosts != nil {
			cfg.Remote.AllowHosts = r.AllowHosts
		}
		if r.AllowCIDRs != nil {
			cfg.Remote.AllowCIDRs = r.AllowCIDRs
		}
		if r.AllowPorts != nil {
			cfg.Remote.AllowPorts = r.AllowPorts
		}
		if r.Schemes != nil {
			cfg.Remote.Schemes = r.Schemes
		}
		setDur(&cfg.Remote.Timeout, r.Timeout)
		setI64(&cfg.Remote.MaxBytes, r.MaxBytes)
	}
	if tcfg := f.Telemetry; tcfg != nil {
		setBool(&cfg.Telemetry.Enabled, tcfg.Enabled)
		setStr(&cfg.Telemetry.Endpoint, tcfg.Endpoint)
		setStr(&cfg.Telemetry.Exporter, tcfg.Exporter)
		setF64(&cfg.Telemetry.SampleRate, tcfg.SampleRate)
		setStr(&cfg.Telemetry.Environment, tcfg.Environment)
	}
	if rl := f.RateLimit; rl != nil {
		setBool(&cfg.RateLimit.Enabled, rl.Enabled)
		setInt(&cfg.RateLimit.Requests, rl.Requests)
		setDur(&cfg.RateLimit.Window, rl.Window)
		setInt(&cfg.RateLimit.ProfileTrigger, rl.ProfileTrigger)
	}
}

// mergeEnvConfig applies environment overrides on top of file and defaults.
func mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = ParseString(EnvDataDir, cfg.DataDir)
	cfg.ReportDir = ParseString(EnvReportDir, cfg.ReportDir)
	cfg.ListenAddr = ParseString(EnvListen, cfg.ListenAddr)
	cfg.MetricsAddr = ParseString(EnvMetricsListen, cfg.MetricsAddr)
	cfg.APIToken = ParseString(EnvAPIToken, cfg.APIToken)
	cfg.AuthAnonymous = ParseBool(EnvAuthAnonymous, cfg.AuthAnonymous)
	cfg.TrustedProxies = ParseString(EnvTrustedProxies, cfg.TrustedProxies)
	if v, ok := os.LookupEnv(EnvCORSOrigins); ok {
		cfg.CORSOrigins = parseCSV(v)
	}
	cfg.MaxUploadBytes = int64(ParseInt(EnvMaxUploadBytes, int(cfg.MaxUploadBytes)))
	cfg.LogLevel = ParseString(EnvLogLevel, cfg.LogLevel)

	cfg.Profile.MaxConcurrency = ParseInt(EnvProfileConcurrency, cfg.Profile.MaxConcurrency)
	cfg.Profile.TopK = ParseInt(EnvProfileTopK, cfg.Profile.TopK)
	cfg.Profile.Bins = ParseInt(EnvProfileBins, cfg.Profile.Bins)
	cfg.Profile.Alpha = ParseFloat(EnvProfileAlpha, cfg.Profile.Alpha)
	cfg.Profile.BestFit = ParseBool(EnvProfileBestFit, cfg.Profile.BestFit)
	cfg.Profile.Correlations = ParseBool(EnvProfileCorrelations, cfg.Profile.Correlations)
	cfg.Profile.SampleRows = ParseInt(EnvProfileSampleRows, cfg.Profile.SampleRows)

	cfg.Watcher.Enabled = ParseBool(EnvWatchEnabled, cfg.Watcher.Enabled)
	cfg.Watcher.Debounce = ParseDuration(EnvWatchDebounce, cfg.Watcher.Debounce)
	cfg.Watcher.EventsPerMin = ParseFloat(EnvWatchEventsPerMin, cfg.Watcher.EventsPerMin)
	cfg.Watcher.EventsBurst = ParseInt(EnvWatchEventsBurst, cfg.Watcher.EventsBurst)

	cfg.Catalog.Path = ParseString(EnvCatalogPath, cfg.Catalog.Path)
	cfg.Catalog.BusyTimeoutMS = ParseInt(EnvCatalogBusyTimeoutMS, cfg.Catalog.BusyTimeoutMS)

	cfg.Results.Backend = ParseString(EnvResultsBackend, cfg.Results.Backend)
	cfg.Results.Path = ParseString(EnvResultsPath, cfg.Results.Path)
	cfg.Results.TTL = ParseDuration(EnvResultsTTL, cfg.Results.TTL)

	cfg.Cache.Backend = ParseString(EnvCacheBackend, cfg.Cache.Backend)
	cfg.Cache.TTL = ParseDuration(EnvCacheTTL, cfg.Cache.TTL)
	cfg.Cache.RedisAddr = ParseString(EnvRedisAddr, cfg.Cache.RedisAddr)
	cfg.Cache.RedisPassword = ParseString(EnvRedisPassword, cfg.Cache.RedisPassword)
	cfg.Cache.RedisDB = ParseInt(EnvRedisDB, cfg.Cache.RedisDB)

	cfg.Remote.Enabled = ParseBool(EnvRemoteEnabled, cfg.Remote.Enabled)
	if v, ok := os.LookupEnv(EnvRemoteAllowHosts); ok {
		cfg.Remote.AllowHosts = parseCSV(v)
	}
	if v, ok := os.LookupEnv(EnvRemoteAllowCIDRs); ok {
		cfg.Remote.AllowCIDRs = parseCSV(v)
	}
	if v, ok := os.LookupEnv(EnvRemoteAllowPorts); ok {
		cfg.Remote.AllowPorts = parseIntCSV(v)
	}
	if v, ok := os.LookupEnv(EnvRemoteSchemes); ok {
		cfg.Remote.Schemes = parseCSV(v)
	}
	cfg.Remote.Timeout = ParseDuration(EnvRemoteTimeout, cfg.Remote.Timeout)
	cfg.Remote.MaxBytes = int64(ParseInt(EnvRemoteMaxBytes, int(cfg.Remote.MaxBytes)))

	cfg.Telemetry.Enabled = ParseBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Endpoint = ParseString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.Exporter = ParseString(EnvOTelExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.SampleRate = ParseFloat(EnvOTelSampleRate, cfg.Telemetry.SampleRate)
	cfg.Telemetry.Environment = ParseString(EnvOTelEnvironment, cfg.Telemetry.Environment)

	cfg.RateLimit.Enabled = ParseBool(EnvRateLimitEnabled, cfg.RateLimit.Enabled)
	cfg.RateLimit.Requests = ParseInt(EnvRateLimitReqs, cfg.RateLimit.Requests)
	cfg.RateLimit.Window = ParseDuration(EnvRateLimitWindow, cfg.RateLimit.Window)
	cfg.RateLimit.ProfileTrigger = ParseInt(EnvRateLimitProfile, cfg.RateLimit.ProfileTrigger)
}
