// Package config defines service configuration structures and loading hooks.
package config

import (
	"runtime"

	"github.com/okian/salto/internal/domain/rules"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects persistence: memory or sqlite.
	StoreBackend string `koanf:"store_backend"`

	// SQLitePath is the database file when StoreBackend is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// QueueSize bounds the in-memory recalculation queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recalculation workers.
	WorkerCount int `koanf:"worker_count"`

	// CoalesceSize bounds the pending-recalculation set.
	CoalesceSize int `koanf:"coalesce_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// NotifyBuffer sets the per-subscriber change channel buffer.
	NotifyBuffer int `koanf:"notify_buffer"`

	// ApparatusRules maps apparatus codes to panel aggregation rules.
	// Apparatus without an entry use the default drop-high/low policy.
	ApparatusRules map[string]rules.Rule `koanf:"apparatus_rules"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		StoreBackend:        StoreMemory,
		SQLitePath:          "salto.db",
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU() * 4,
		CoalesceSize:        50_000,
		MaxLeaderboardLimit: 100,
		NotifyBuffer:        64,
	}
}
