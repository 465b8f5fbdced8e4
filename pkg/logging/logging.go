package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Init configures the global slog default. Level is one of debug, info,
// warn, error; format is "text" or "json". If w is nil, os.Stderr is
// used.
func Init(level, format string, w ...io.Writer) error {
	var writer io.Writer = os.Stderr
	if len(w) > 0 && w[0] != nil {
		writer = w[0]
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("bad log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "", "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		return fmt.Errorf("bad log format %q (want text or json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// New returns a logger scoped to one component.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}
