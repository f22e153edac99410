package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/scott-cotton/cli"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(),
	})))

	cli.MainContext(context.Background(), MainCommand())
}

func slogLevel() slog.Level {
	if os.Getenv("DEBUG") != "" {
		return slog.LevelDebug
	}

	return slog.LevelWarn
}
