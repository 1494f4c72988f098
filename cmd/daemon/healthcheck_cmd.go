// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/john-james-ai/d8analysis/internal/config"
)

// defaultProbeAddr derives the probe target from the daemon's own listen
// env, so a container HEALTHCHECK needs no extra flags.
func defaultProbeAddr() string {
	listen := os.Getenv(config.EnvListen)
	if listen == "" {
		return "localhost:8080"
	}
	if strings.HasPrefix(listen, ":") {
		return "localhost" + listen
	}
	return listen
}

// runHealthcheckCLI probes a running daemon's health endpoints. Container
// orchestrators call this as the image HEALTHCHECK, so it exits 0/1 and
// prints a single line.
func runHealthcheckCLI(args []string) int {
	fs := flag.NewFlagSet("healthcheck", flag.ExitOnError)
	mode := fs.String("mode", "ready", "healthcheck mode: ready (default) or live")
	addr := fs.String("addr", defaultProbeAddr(), "API address to check")
	timeout := fs.Duration("timeout", 5*time.Second, "check timeout")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing healthcheck flags: %v\n", err)
		return 1
	}

	var path string
	switch *mode {
	case "ready":
		path = "/readyz"
	case "live":
		path = "/healthz"
	default:
		fmt.Fprintf(os.Stderr, "Unknown healthcheck mode %q (want ready or live)\n", *mode)
		return 1
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+*addr+path, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (request): %v\n", err)
		return 1
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (network): %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Healthcheck failed (status): %d %s\n", resp.StatusCode, resp.Status)
		return 1
	}

	fmt.Printf("Healthcheck successful (%s)\n", *mode)
	return 0
}
