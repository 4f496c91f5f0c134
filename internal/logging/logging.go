// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures zerolog for the papercut CLI.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds a console logger writing to w at the given level
// (debug, info, warn, error). Unknown levels fall back to info. The global
// zerolog logger is replaced as well so log.Ctx falls back to it.
func Setup(w io.Writer, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	cw := zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
		cw.Out = w
		cw.TimeFormat = time.RFC3339
	})

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(cw).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
