// SPDX-License-Identifier: MIT

// Package config loads and validates the service configuration with the
// precedence ENV > file > defaults. A Holder provides hot reloading with
// atomic swaps and listener notification.
package config
