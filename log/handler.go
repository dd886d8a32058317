// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

const timeFormat = "2006-01-02T15:04:05-0700"

// Output formats accepted by NewHandler.
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatLogfmt   = "logfmt"
)

// NewHandler returns a handler writing records at or above level in the
// given format. Color only applies to the terminal format.
func NewHandler(format string, w io.Writer, level *slog.LevelVar, useColor bool) (slog.Handler, error) {
	switch format {
	case FormatTerminal, "":
		return TerminalHandlerWithLevel(w, level, useColor), nil
	case FormatJSON:
		return JSONHandlerWithLevel(w, level), nil
	case FormatLogfmt:
		return LogfmtHandlerWithLevel(w, level), nil
	}
	return nil, errors.Errorf("unknown log format %q", format)
}

// TerminalHandlerWithLevel is the human friendly format of go-ethereum.
func TerminalHandlerWithLevel(w io.Writer, level *slog.LevelVar, useColor bool) slog.Handler {
	return &leveled{Handler: ethlog.NewTerminalHandler(w, useColor), level: level}
}

func JSONHandlerWithLevel(w io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level, ReplaceAttr: replacer(false)})
}

func LogfmtHandlerWithLevel(w io.Writer, level *slog.LevelVar) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level, ReplaceAttr: replacer(true)})
}

// leveled drops records below a level that can change at runtime.
type leveled struct {
	slog.Handler
	level *slog.LevelVar
}

func (h *leveled) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= h.level.Level() && h.Handler.Enabled(ctx, l)
}

func (h *leveled) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &leveled{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

// replacer renames the time and level keys to t and lvl and renders
// amounts and addresses as plain strings.
func replacer(logfmt bool) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, a slog.Attr) slog.Attr {
		switch a.Key {
		case slog.TimeKey:
			if a.Value.Kind() != slog.KindTime {
				break
			}
			if logfmt {
				return slog.String("t", a.Value.Time().Format(timeFormat))
			}
			return slog.Attr{Key: "t", Value: a.Value}
		case slog.LevelKey:
			if l, ok := a.Value.Any().(slog.Level); ok {
				return slog.String("lvl", LevelString(l))
			}
		}

		if a.Value.Kind() == slog.KindTime && logfmt {
			a.Value = slog.StringValue(a.Value.Time().Format(timeFormat))
		}
		if a.Value.Kind() != slog.KindAny {
			return a
		}
		switch v := a.Value.Any().(type) {
		case *big.Int:
			a.Value = stringValue(v == nil, v)
		case *uint256.Int:
			if v == nil {
				a.Value = slog.StringValue("<nil>")
			} else {
				a.Value = slog.StringValue(v.Dec())
			}
		case fmt.Stringer:
			a.Value = stringValue(isNil(v), v)
		}
		return a
	}
}

func stringValue(null bool, s fmt.Stringer) slog.Value {
	if null {
		return slog.StringValue("<nil>")
	}
	return slog.StringValue(s.String())
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
