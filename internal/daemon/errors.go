// SPDX-License-Identifier: MIT

package daemon

import "errors"

// Sentinel errors for daemon construction and lifecycle, so callers can
// branch with errors.Is instead of matching strings.
var (
	ErrMissingLogger     = errors.New("logger is required")
	ErrMissingAPIHandler = errors.New("API handler is required")
	ErrMissingManager    = errors.New("manager is required")
	ErrManagerNotStarted = errors.New("manager not started")

	// Watcher construction.
	ErrMissingCatalog = errors.New("catalog store is required for the watcher")
	ErrMissingTrigger = errors.New("profile trigger is required for the watcher")
)
