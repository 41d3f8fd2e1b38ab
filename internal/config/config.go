// Package config loads Mission Control configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const namespace = "MISSION_CONTROL"

// Env holds every setting the mcctl processes read from the environment.
// All variables live under the MISSION_CONTROL_ prefix, e.g.
// MISSION_CONTROL_DB_PATH, MISSION_CONTROL_HTTP_ADDR.
type Env struct {
	DBPath   string `envconfig:"DB_PATH"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Dashboard API server.
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":3000"`

	// Basic auth gate for the dashboard API. Auth is enforced only when
	// both values are set, matching the original deployment behavior.
	BasicAuthUser string `envconfig:"BASIC_AUTH_USER"`
	BasicAuthPass string `envconfig:"BASIC_AUTH_PASS"`

	// Telegram orchestrator bot.
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`

	// Worker runner identity.
	WorkerID           string `envconfig:"WORKER_ID" default:"local-worker-1"`
	WorkerTypes        string `envconfig:"WORKER_TYPES" default:"coder"`
	HeartbeatInterval  string `envconfig:"HEARTBEAT_INTERVAL" default:"15s"`
	WorkerPollInterval string `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
}

// LoadEnv reads the environment into an Env.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

// ResolvedDBPath returns the configured database path, defaulting to
// ~/.mission-control/mission-control.db when unset.
func (e *Env) ResolvedDBPath() (string, error) {
	if e.DBPath != "" {
		return e.DBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".mission-control", "mission-control.db"), nil
}

// WorkerTypeList splits the comma-separated WORKER_TYPES value.
func (e *Env) WorkerTypeList() []string {
	var types []string
	for _, t := range strings.Split(e.WorkerTypes, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			types = append(types, t)
		}
	}
	return types
}

// SlogLevel parses LogLevel into a slog.Level, defaulting to info.
func (e *Env) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// BasicAuthEnabled reports whether the dashboard auth gate is active.
func (e *Env) BasicAuthEnabled() bool {
	return e.BasicAuthUser != "" && e.BasicAuthPass != ""
}
