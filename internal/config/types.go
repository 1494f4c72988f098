// SPDX-License-Identifier: MIT

package config

import "time"

// AppConfig is the fully resolved service configuration.
type AppConfig struct {
	Version string

	// Paths
	DataDir   string // directory holding dataset files
	ReportDir string // directory receiving profile reports

	// HTTP
	ListenAddr     string   // API listen address
	MetricsAddr    string   // Prometheus listen address, empty disables the listener
	APIToken       string   // bearer token for the API, empty means fail closed
	AuthAnonymous  bool     // allow read-only access without a token
	TrustedProxies string   // comma-separated proxy IPs allowed to set forwarding headers
	CORSOrigins    []string // allowed browser origins, empty applies localhost dev defaults
	MaxUploadBytes int64    // upload size cap for dataset registration

	LogLevel string

	Profile   ProfileConfig
	Watcher   WatcherConfig
	Catalog   CatalogConfig
	Results   ResultsConfig
	Cache     CacheConfig
	Remote    RemoteConfig
	Telemetry TelemetryConfig
	RateLimit RateLimitConfig
}

// ProfileConfig controls the profiling pipeline.
type ProfileConfig struct {
	MaxConcurrency int     // column workers per run
	TopK           int     // frequency levels retained per categorical column
	Bins           int     // histogram bins for numeric columns
	Alpha          float64 // significance level for embedded tests
	BestFit        bool    // fit candidate distributions per numeric column
	Correlations   bool    // compute the numeric correlation matrix
	SampleRows     int     // rows sampled during type inference
}

// WatcherConfig controls the data directory watcher.
type WatcherConfig struct {
	Enabled       bool
	Debounce      time.Duration
	EventsPerMin  float64 // rate limit for watcher-triggered profiling
	EventsBurst   int
	IncludeHidden bool
}

// CatalogConfig controls the SQLite catalog.
type CatalogConfig struct {
	Path          string
	BusyTimeoutMS int
}

// ResultsConfig controls the report blob store.
type ResultsConfig struct {
	Backend string // "memory" or "badger"
	Path    string // badger directory
	TTL     time.Duration
}

// CacheConfig controls the API response cache.
type CacheConfig struct {
	Backend       string // "memory", "redis" or "none"
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// RemoteConfig controls dataset registration from remote URLs.
type RemoteConfig struct {
	Enabled    bool
	AllowHosts []string
	AllowCIDRs []string
	AllowPorts []int
	Schemes    []string
	Timeout    time.Duration
	MaxBytes   int64
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool
	Endpoint    string
	Exporter    string // "grpc" or "http"
	SampleRate  float64
	Environment string
}

// RateLimitConfig controls API rate limiting.
type RateLimitConfig struct {
	Enabled        bool
	Requests       int
	Window         time.Duration
	ProfileTrigger int // stricter per-window cap for profile POSTs
}

// FileConfig mirrors AppConfig for strict YAML decoding. Pointer fields
// distinguish "absent" from "zero" so file values only override when present.
type FileConfig struct {
	DataDir        *string  `yaml:"data_dir"`
	ReportDir      *string  `yaml:"report_dir"`
	Listen         *string  `yaml:"listen"`
	MetricsListen  *string  `yaml:"metrics_listen"`
	APIToken       *string  `yaml:"api_token"`
	AuthAnonymous  *bool    `yaml:"auth_anonymous"`
	TrustedProxies *string  `yaml:"trusted_proxies"`
	CORSOrigins    []string `yaml:"cors_origins"`
	MaxUploadBytes *int64   `yaml:"max_upload_bytes"`
	LogLevel       *string  `yaml:"log_level"`

	Profile *struct {
		MaxConcurrency *int     `yaml:"max_concurrency"`
		TopK           *int     `yaml:"top_k"`
		Bins           *int     `yaml:"bins"`
		Alpha          *float64 `yaml:"alpha"`
		BestFit        *bool    `yaml:"best_fit"`
		Correlations   *bool    `yaml:"correlations"`
		SampleRows     *int     `yaml:"sample_rows"`
	} `yaml:"profile"`

	Watcher *struct {
		Enabled      *bool          `yaml:"enabled"`
		Debounce     *time.Duration `yaml:"debounce"`
		EventsPerMin *float64       `yaml:"events_per_min"`
		EventsBurst  *int           `yaml:"events_burst"`
	} `yaml:"watcher"`

	Catalog *struct {
		Path          *string `yaml:"path"`
		BusyTimeoutMS *int    `yaml:"busy_timeout_ms"`
	} `yaml:"catalog"`

	Results *struct {
		Backend *string        `yaml:"backend"`
		Path    *string        `yaml:"path"`
		TTL     *time.Duration `yaml:"ttl"`
	} `yaml:"results"`

	Cache *struct {
		Backend       *string        `yaml:"backend"`
		TTL           *time.Duration `yaml:"ttl"`
		RedisAddr     *string        `yaml:"redis_addr"`
		RedisPassword *string        `yaml:"redis_password"`
		RedisDB       *int           `yaml:"redis_db"`
	} `yaml:"cache"`

	Remote *struct {
		Enabled    *bool          `yaml:"enabled"`
		AllowHosts []string       `yaml:"allow_hosts"`
		AllowCIDRs []string       `yaml:"allow_cidrs"`
		AllowPorts []int          `yaml:"allow_ports"`
		Schemes    []string       `yaml:"schemes"`
		Timeout    *time.Duration `yaml:"timeout"`
		MaxBytes   *int64         `yaml:"max_bytes"`
	} `yaml:"remote"`

	Telemetry *struct {
		Enabled     *bool    `yaml:"enabled"`
		Endpoint    *string  `yaml:"endpoint"`
		Exporter    *string  `yaml:"exporter"`
		SampleRate  *float64 `yaml:"sample_rate"`
		Environment *string  `yaml:"environment"`
	} `yaml:"telemetry"`

	RateLimit *struct {
		Enabled        *bool          `yaml:"enabled"`
		Requests       *int           `yaml:"requests"`
		Window         *time.Duration `yaml:"window"`
		ProfileTrigger *int           `yaml:"profile_trigger"`
	} `yaml:"rate_limit"`
}
