// Package config holds hubagent's environment-derived configuration.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the agent's process-level configuration, resolved once at
// startup from environment variables. Unlike the hub-issued service
// descriptors (internal/bootstrap), nothing here changes at runtime, so no
// locking is needed.
type Config struct {
	ManifestPath  string        // path to the YAML manifest file (empty = use in-code manifest)
	TokenCachePath string       // path to the persisted token file (internal/bootstrap)
	HubOverride   string        // optional override for the hub base URL used during bootstrap (default http://localhost:8080)
	PollInterval  time.Duration // device-code poll interval (spec default: 1s)
	PollBudget    int           // max polls before DeviceCodeTimeout (spec default: 10)
	LogJSON       bool
	MetricsAddr   string // if non-empty, serve /metrics on this address
}

// Load reads configuration from environment variables, applying defaults.
func Load() *Config {
	return &Config{
		ManifestPath:   envStr("HUBAGENT_MANIFEST", ""),
		TokenCachePath: envStr("HUBAGENT_TOKEN_FILE", ".hubagent-token.json"),
		HubOverride:    envStr("HUBAGENT_HUB_URL", ""),
		PollInterval:   envDuration("HUBAGENT_POLL_INTERVAL", time.Second),
		PollBudget:     envInt("HUBAGENT_POLL_BUDGET", 10),
		LogJSON:        envBool("HUBAGENT_LOG_JSON", false),
		MetricsAddr:    envStr("HUBAGENT_METRICS_ADDR", ""),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
