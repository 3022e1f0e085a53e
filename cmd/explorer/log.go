package main

import (
	"io"
	"log/slog"
	"os"
)

func configureLogging() {
	slog.SetDefault(newLogger(os.Stderr, EnvDebugLogging.IsSet(), EnvJSONLogging.IsSet()))
	slog.Debug("debug logging enabled")
}

func newLogger(w io.Writer, debug, json bool) *slog.Logger {
	var (
		logHandler     slog.Handler
		handlerOptions slog.HandlerOptions
	)

	// Configure Log Handler
	if debug {
		handlerOptions = slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true}
	} else {
		// Keep stderr quiet for the command output
		handlerOptions = slog.HandlerOptions{Level: slog.LevelWarn}
	}

	// Setup Log Format
	if json {
		logHandler = slog.NewJSONHandler(w, &handlerOptions)
	} else {
		logHandler = slog.NewTextHandler(w, &handlerOptions)
	}
	return slog.New(logHandler)
}
