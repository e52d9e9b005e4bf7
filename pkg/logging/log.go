package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// Handler is a line-oriented slog.Handler for the engine processes:
// level tag, optional task prefix, message, then key=value attributes.
type Handler struct {
	writer io.Writer
	level  slog.Level
	prefix string
	color  bool
}

func NewHandler(w io.Writer, level slog.Level) *Handler {
	return &Handler{
		writer: w,
		level:  level,
		color:  true,
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder

	tag := levelTag(r.Level)
	if h.color {
		switch {
		case r.Level >= slog.LevelError:
			tag = colorRed + tag + colorReset
		case r.Level >= slog.LevelWarn:
			tag = colorYellow + tag + colorReset
		case r.Level < slog.LevelInfo:
			tag = colorGray + tag + colorReset
		}
	}
	b.WriteString(tag)
	b.WriteString(" ")

	if h.prefix != "" {
		b.WriteString("[" + h.prefix + "] ")
	}
	b.WriteString(r.Message)

	r.Attrs(func(a slog.Attr) bool {
		b.WriteString(fmt.Sprintf(" %s=%v", a.Key, a.Value))
		return true
	})

	_, err := fmt.Fprintln(h.writer, b.String())
	return err
}

func (h *Handler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &Handler{
		writer: h.writer,
		level:  h.level,
		prefix: name,
		color:  h.color,
	}
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func NewLogger(level string) *slog.Logger {
	return slog.New(NewHandler(os.Stderr, ParseLogLevel(level)))
}

// Setup installs the default loggers for both logging stacks the
// engine uses: slog for the scoring paths and logrus for the data
// layer.
func Setup(level string) {
	slog.SetDefault(NewLogger(level))
	logrus.SetLevel(toLogrusLevel(ParseLogLevel(level)))
	logrus.SetOutput(os.Stderr)
}

// ParseLogLevel converts a string log level to slog.Level.
// Defaults to slog.LevelInfo for unrecognized strings.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func toLogrusLevel(level slog.Level) logrus.Level {
	switch {
	case level >= slog.LevelError:
		return logrus.ErrorLevel
	case level >= slog.LevelWarn:
		return logrus.WarnLevel
	case level >= slog.LevelInfo:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}
