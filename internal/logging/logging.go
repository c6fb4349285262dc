// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog logger shared by the CLI and server.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/genoscope/pkg/types"
)

// ParseLevel maps a config level name to a zerolog level. An empty name
// means info.
func ParseLevel(name string) (zerolog.Level, error) {
	if strings.TrimSpace(name) == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.NoLevel, &types.ConfigError{Field: "log.level", Reason: fmt.Sprintf("unknown level %q", name)}
	}
	return lvl, nil
}

// New returns a timestamped logger writing to w. With console set, output
// is human-readable instead of JSON lines.
func New(w io.Writer, cfg types.LogConfig) (zerolog.Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	if cfg.Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: true}
	}
	return zerolog.New(w).
		With().
		Timestamp().
		Str("component", "genoscope").
		Logger().
		Level(lvl), nil
}
