package main

import (
	"log/slog"
	"os"

	"focusd/internal/cli"
)

func main() {
	// Setup structured logging
	level := slog.LevelInfo
	if os.Getenv("FOCUSD_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cli.Execute()
}
