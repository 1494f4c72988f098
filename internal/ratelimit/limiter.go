// SPDX-License-Identifier: MIT

// Package ratelimit provides token-bucket limiting for data directory
// watcher events. A bulk copy into the watched directory, or a tool that
// rewrites a CSV in a tight loop, must not translate into an unbounded
// stream of profile runs.
package ratelimit

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var eventsThrottled = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "d8a_watcher_events_throttled_total",
		Help: "Watcher events dropped by rate limiting",
	},
	[]string{"scope"},
)

// Config holds event rate limiting configuration.
type Config struct {
	// Global limit across all watched paths.
	GlobalRate  rate.Limit // events per second
	GlobalBurst int

	// Per-path limits, so one hot file cannot starve the rest.
	PerPathRate  rate.Limit
	PerPathBurst int

	// Cleanup interval for per-path limiters.
	CleanupInterval time.Duration
}

// PerMinute converts an events-per-minute budget into a rate.Limit.
func PerMinute(n float64) rate.Limit {
	if n <= 0 {
		return rate.Inf
	}
	return rate.Limit(n / 60.0)
}

// DefaultConfig returns limits suitable for a single watched data directory.
func DefaultConfig() Config {
	return Config{
		GlobalRate:  PerMinute(60),
		GlobalBurst: 10,

		PerPathRate:  PerMinute(12),
		PerPathBurst: 3,

		CleanupInterval: 10 * time.Minute,
	}
}

// Limiter manages event rate limiting for watched paths.
type Limiter struct {
	config Config

	global  *rate.Limiter
	perPath map[string]*rate.Limiter
	mu      sync.Mutex

	lastCleanup time.Time
}

// New creates a limiter with the given config.
func New(config Config) *Limiter {
	return &Limiter{
		config:      config,
		global:      rate.NewLimiter(config.GlobalRate, config.GlobalBurst),
		perPath:     make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether an event for path may be processed now.
func (l *Limiter) Allow(path string) bool {
	if !l.global.Allow() {
		eventsThrottled.WithLabelValues("global").Inc()
		return false
	}

	if !l.pathLimiter(path).Allow() {
		eventsThrottled.WithLabelValues("per_path").Inc()
		return false
	}

	l.maybeCleanup()

	return true
}

func (l *Limiter) pathLimiter(path string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.perPath[path]
	if !exists {
		limiter = rate.NewLimiter(l.config.PerPathRate, l.config.PerPathBurst)
		l.perPath[path] = limiter
	}

	return limiter
}

// maybeCleanup drops all per-path limiters once the cleanup interval has
// passed. Paths that are still active simply get a fresh bucket.
func (l *Limiter) maybeCleanup() {
	if time.Since(l.lastCleanup) < l.config.CleanupInterval {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.perPath = make(map[string]*rate.Limiter)
	l.lastCleanup = time.Now()
}
