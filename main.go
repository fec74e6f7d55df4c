package main

import (
	"log/slog"
	"os"

	"github.com/signalnine/abebench/cmd"
)

func main() {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	if err := cmd.NewRootCmd(logger, level).Execute(); err != nil {
		os.Exit(1)
	}
}
