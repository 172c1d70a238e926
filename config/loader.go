package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the TCPCHAT_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  This should be called BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TCPCHAT_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("TCPCHAT_PORT"); v > 0 {
		cfg.Port = v
	}
	if v := envInt("TCPCHAT_BACKLOG"); v > 0 {
		cfg.Backlog = v
	}
	if v := envInt("TCPCHAT_RECV_BUF"); v > 0 {
		cfg.RecvBufSize = v
	}
	if v := os.Getenv("TCPCHAT_SENTINEL"); v != "" {
		cfg.Sentinel = v
	}
	if v := os.Getenv("TCPCHAT_ACCEPT_POLICY"); v != "" {
		cfg.AcceptPolicy = strings.ToLower(v)
	}
	if v := os.Getenv("TCPCHAT_CONSOLE"); v != "" {
		cfg.ConsoleMode = strings.ToLower(v)
	}
	if envBool("TCPCHAT_LINK_RELAYS") {
		cfg.LinkRelays = true
	}
	if envBool("TCPCHAT_EVICT_CLOSED") {
		cfg.EvictClosed = true
	}
	if v := os.Getenv("TCPCHAT_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}

	// Output
	if v, ok := envIntOK("TCPCHAT_VERBOSE"); ok && v >= 0 {
		cfg.Verbose = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v, _ := envIntOK(key)
	return v
}

func envIntOK(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}
