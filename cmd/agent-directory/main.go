// Package main is the entry point for the agent directory.
package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/stacklok/toolhive-core/logging"

	"github.com/stacklok/agent-directory/cmd/agent-directory/app"
	"github.com/stacklok/agent-directory/internal/config"
	"github.com/stacklok/agent-directory/internal/telemetry"
)

// logLevel reads AGENTDIR_LOG_LEVEL, then LOG_LEVEL. Unset or unparsable
// values mean info.
func logLevel() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	raw := v.GetString("LOG_LEVEL")
	if raw == "" {
		raw = os.Getenv("LOG_LEVEL")
	}
	if raw == "" {
		return slog.LevelInfo
	}
	if strings.EqualFold(raw, "warning") {
		return slog.LevelWarn
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		slog.Warn("Ignoring log level", "value", raw, "error", err)
		return slog.LevelInfo
	}
	return level
}

func main() {
	// Logs go to stderr; stdout carries command output
	handler := logging.NewHandler(logging.WithLevel(logLevel()))
	slog.SetDefault(slog.New(telemetry.NewLogHandler(handler)))

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
