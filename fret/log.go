package fret

import (
	"log/slog"
	"os"
)

// logger is the package-wide structured logger. Safe to use before InitLogger
// is called; defaults to slog.Default().
var logger = slog.Default()

// InitLogger configures the shared slog logger for the fret package and calls
// slog.SetDefault so the stdlib log package also routes through the same
// handler. Host programs that already configure a logger (e.g. cmd/fretsim)
// should call this once at startup; library callers that embed the engine in
// a larger program may skip it and rely on slog.Default().
func InitLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}
