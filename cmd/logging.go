package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"github.com/nextlevelbuilder/goclaw-node/internal/config"
	"github.com/nextlevelbuilder/goclaw-node/internal/debuglog"
)

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// newLogHandler picks JSON or tint output. An empty format means tint on a
// terminal and JSON otherwise.
func newLogHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	level := parseLevel(cfg.Level)
	tty := isTerminal(w)

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = "json"
		if tty {
			format = "text"
		}
	}
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
		NoColor:    !tty,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			return a
		},
	})
}

// setupLogging installs the default logger: output to stderr, with a
// scrubbed tail kept in memory for debug.logs.
func setupLogging(cfg config.LogConfig) *debuglog.Ring {
	ring := debuglog.NewRing(newLogHandler(os.Stderr, cfg), slog.LevelInfo, cfg.Ring)
	slog.SetDefault(slog.New(ring))
	return ring
}
