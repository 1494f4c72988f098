// SPDX-License-Identifier: MIT

package version

// Build metadata, stamped via -ldflags at release time. The zero values
// identify a local development build.
var (
	Version = "v0.1.0"
	Commit  = "unknown"
	Date    = "unknown"
)
