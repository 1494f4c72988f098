// SPDX-License-Identifier: MIT

package daemon

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/john-james-ai/d8analysis/internal/config"
)

// Deps carries everything the daemon Manager needs. Injecting the full
// set keeps construction explicit and the manager cheap to test.
type Deps struct {
	Logger zerolog.Logger

	// Config is the resolved service configuration.
	Config config.AppConfig

	// APIHandler serves the public API.
	APIHandler http.Handler

	// MetricsHandler serves Prometheus metrics. Nil, or an empty
	// Config.MetricsAddr, disables the metrics listener.
	MetricsHandler http.Handler
}

// Validate reports the first missing required dependency.
func (d *Deps) Validate() error {
	switch {
	case d.Logger.GetLevel() == zerolog.Disabled:
		return ErrMissingLogger
	case d.APIHandler == nil:
		return ErrMissingAPIHandler
	}
	return nil
}
