// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log is the structured logging facade of the node.
// Records are produced through go-ethereum's slog based logger, so every package
// shares one root handler which can be swapped at runtime.
package log

import (
	"context"
	"log/slog"
	"slices"

	ethlog "github.com/ethereum/go-ethereum/log"
)

// Logger writes key/value pairs to a Handler.
type Logger = ethlog.Logger

const (
	LevelTrace = ethlog.LevelTrace
	LevelDebug = ethlog.LevelDebug
	LevelInfo  = ethlog.LevelInfo
	LevelWarn  = ethlog.LevelWarn
	LevelError = ethlog.LevelError
	LevelCrit  = ethlog.LevelCrit
)

// Root returns the root logger.
func Root() Logger {
	return ethlog.Root()
}

// SetDefault sets the root logger.
func SetDefault(l Logger) {
	ethlog.SetDefault(l)
}

// NewLogger returns a logger with the specified handler set.
func NewLogger(h slog.Handler) Logger {
	return ethlog.NewLogger(h)
}

// WithContext returns a logger carrying the given context. Records are routed to
// whatever the root handler is at the time they are written, so package level
// loggers pick up handlers installed after package initialization.
func WithContext(ctx ...any) Logger {
	return ethlog.NewLogger(&rootHandler{}).With(ctx...)
}

// FromVerbosity maps the classic 0 (crit) to 5 (trace) verbosity scale onto slog levels.
func FromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return LevelCrit
	case v == 1:
		return LevelError
	case v == 2:
		return LevelWarn
	case v == 3:
		return LevelInfo
	case v == 4:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// ParseLevel converts a level name into a slog level.
func ParseLevel(name string) (slog.Level, bool) {
	switch name {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "crit":
		return LevelCrit, true
	}
	return 0, false
}

// LevelString returns the lower case name of the level.
func LevelString(l slog.Level) string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCrit:
		return "crit"
	default:
		return "unknown"
	}
}

type rootHandler struct {
	attrs []slog.Attr
}

func (h *rootHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return Root().Handler().Enabled(ctx, level)
}

func (h *rootHandler) Handle(ctx context.Context, r slog.Record) error {
	inner := Root().Handler()
	if len(h.attrs) > 0 {
		inner = inner.WithAttrs(h.attrs)
	}
	return inner.Handle(ctx, r)
}

func (h *rootHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &rootHandler{attrs: append(slices.Clip(h.attrs), attrs...)}
}

func (h *rootHandler) WithGroup(_ string) slog.Handler {
	return h
}
