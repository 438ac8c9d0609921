// Package config defines service configuration structures and loading hooks.
package config

import (
	"context"
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// AuthSecret signs bearer tokens. When empty, authentication is off and
	// every caller may perform every action.
	AuthSecret string `koanf:"auth_secret"`

	// LegacyOfficerPassphrase unlocks submissions to legacy-rubric rounds.
	// Empty refuses all of them.
	LegacyOfficerPassphrase string `koanf:"legacy_officer_passphrase"`

	// RoleActions overrides which roles may perform an action, e.g.
	// delete_run: [admin, officer].
	RoleActions map[string][]string `koanf:"role_actions"`

	// AuditWorkers sets the number of audit re-scoring workers.
	AuditWorkers int `koanf:"audit_workers"`

	// AuditQueueSize bounds the audit queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// DedupeSize sets how many submission keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// VoteRatePerSec and VoteRateBurst limit vote casting per client IP.
	// A zero rate turns the limit off.
	VoteRatePerSec float64 `koanf:"vote_rate_per_sec"`
	VoteRateBurst  int     `koanf:"vote_rate_burst"`

	// PollIntervalMS is the refresh interval advertised to clients.
	PollIntervalMS int `koanf:"poll_interval_ms"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		AuditWorkers:   runtime.NumCPU(),
		AuditQueueSize: 10_000,
		DedupeSize:     50_000,
		VoteRatePerSec: 2,
		VoteRateBurst:  5,
		PollIntervalMS: 3000,
	}
}

// PollInterval returns PollIntervalMS as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}
