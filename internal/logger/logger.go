package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var levelVar = new(slog.LevelVar)

// L is the shared application logger. The chat screen owns stdout, so logs go
// to stderr by default.
var L = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: levelVar}))

// SetLevel configures the global log level (debug, info, warn, error).
func SetLevel(lvl string) {
	switch strings.ToLower(lvl) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// SetOutput redirects the global logger, e.g. to a file while the chat screen
// is drawing, or to io.Discard in tests.
func SetOutput(w io.Writer) {
	L = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: levelVar}))
}
