// Package logging builds the server's structured logger: a JSON
// log/slog handler over a lumberjack-rotated file, with a fan-out
// handler mirroring WARN-and-above records to stderr. Follows a single
// slog.NewJSONHandler installed as slog.Default(), combined with
// github.com/npratt/atari's LogRotationConfig / cmd/atari/logger.go
// rotation pattern (sized in MB/backups/age), generalized from a
// debug-only file logger to a server log every level writes to.
package logging

import (
	"context"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotationConfig bounds the rolling log file's size and retention.
type RotationConfig struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultRotation matches the file-size/backup/age defaults the rest
// of the corpus uses for rotated operational logs.
func DefaultRotation() RotationConfig {
	return RotationConfig{MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 7, Compress: true}
}

// New builds the server logger. If path is empty, only stderr is used.
func New(path string, level slog.Level, rot RotationConfig) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}

	if path == "" {
		return slog.New(slog.NewJSONHandler(os.Stderr, handlerOpts))
	}

	fileWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    rot.MaxSizeMB,
		MaxBackups: rot.MaxBackups,
		MaxAge:     rot.MaxAgeDays,
		Compress:   rot.Compress,
	}
	fileHandler := slog.NewJSONHandler(fileWriter, handlerOpts)

	return slog.New(newFanoutHandler(fileHandler, slog.LevelWarn))
}

// fanoutHandler writes every record to its primary handler, and
// records at or above mirrorLevel also to stderr, so an operator
// watching the foreground process sees warnings/errors without tailing
// the rotated file.
type fanoutHandler struct {
	primary     slog.Handler
	mirror      slog.Handler
	mirrorLevel slog.Level
}

func newFanoutHandler(primary slog.Handler, mirrorLevel slog.Level) *fanoutHandler {
	return &fanoutHandler{
		primary:     primary,
		mirror:      slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: mirrorLevel}),
		mirrorLevel: mirrorLevel,
	}
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.primary.Enabled(ctx, level)
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.primary.Handle(ctx, r.Clone()); err != nil {
		return err
	}
	if r.Level >= h.mirrorLevel {
		return h.mirror.Handle(ctx, r)
	}
	return nil
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fanoutHandler{
		primary:     h.primary.WithAttrs(attrs),
		mirror:      h.mirror.WithAttrs(attrs),
		mirrorLevel: h.mirrorLevel,
	}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	return &fanoutHandler{
		primary:     h.primary.WithGroup(name),
		mirror:      h.mirror.WithGroup(name),
		mirrorLevel: h.mirrorLevel,
	}
}
