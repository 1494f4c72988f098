// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	RequestLimit int           // requests allowed per window
	WindowSize   time.Duration // sliding window length
	// KeyFunc buckets requests for counting; nil buckets by client IP.
	KeyFunc func(r *http.Request) (string, error)
}

// Shaped like RespondError output so clients parse one error format.
const rateLimitedBody = `{"error":"rate_limit_exceeded","detail":"Too many requests. Please try again later."}`

// RateLimit creates sliding-window rate limiting middleware on top of
// httprate. Rejected requests get a 429 with a Retry-After hint of one
// full window.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = httprate.KeyByIP
	}

	limitHandler := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", strconv.Itoa(int(cfg.WindowSize.Seconds())))
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(rateLimitedBody))
	}

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(limitHandler),
	)
}

// ProfileRateLimit returns a rate limiter for profile trigger endpoints.
// Profiling a dataset is CPU-bound, so triggers are capped well below the
// general API limit. Default: 10 requests per minute per IP.
func ProfileRateLimit(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	if requestLimit <= 0 {
		requestLimit = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimit(RateLimitConfig{
		RequestLimit: requestLimit,
		WindowSize:   window,
	})
}

// APIRateLimit returns a rate limiter for general API endpoints.
// Default: 600 requests per minute per IP for standard API operations.
func APIRateLimit(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	if requestLimit <= 0 {
		requestLimit = 600
	}
	if window <= 0 {
		window = time.Minute
	}
	return RateLimit(RateLimitConfig{
		RequestLimit: requestLimit,
		WindowSize:   window,
	})
}
