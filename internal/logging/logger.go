package logging

import (
	"log/slog"
	"os"
)

// Setup installs a JSON stdout logger as the slog default. Extra handlers
// (the Postgres sink) receive every record as well.
func Setup(extra ...slog.Handler) {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	if len(extra) > 0 {
		handler = NewMultiHandler(append([]slog.Handler{handler}, extra...)...)
	}
	slog.SetDefault(slog.New(handler))
}
