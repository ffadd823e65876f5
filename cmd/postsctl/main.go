package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/mitchellh/cli"

	"github.com/qepting91/reddit-conversations/internal/command"
	"github.com/qepting91/reddit-conversations/internal/config"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	// Load .env early so LOG_LEVEL applies to the logger.
	_ = godotenv.Load(config.EnvFile)
	level, _ := config.EnvString("LOG_LEVEL")
	logger := config.NewLogger(os.Stderr, level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	c := &cli.CLI{
		Name:     "postsctl",
		Args:     args[1:],
		Version:  version,
		Commands: command.Commands(&command.Meta{Ctx: ctx, UI: ui, Log: logger, Out: os.Stdout}),
	}

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err)
		return 1
	}
	if ctx.Err() != nil && exitCode == 0 {
		logger.Warn("interrupted")
		return 1
	}
	return exitCode
}
