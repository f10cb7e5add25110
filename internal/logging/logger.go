package logging

import (
	"log/slog"
	"os"
)

// Setup replaces the default slog logger with a JSON handler writing to
// stdout at INFO. Called once at startup before anything else logs; main
// later swaps in a MultiHandler once the database sink is available.
func Setup() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}
