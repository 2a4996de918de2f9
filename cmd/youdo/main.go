// Package main is the entry point for the youdo CLI.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"youdo/internal/backend/youdoapi"
	"youdo/internal/cli"
	"youdo/internal/commands"
	"youdo/internal/config"
	"youdo/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// The session is the credential source; it is attached to the client
	// by the dispatcher.
	factory := func(ctx context.Context, cfg *config.Config, creds service.Credentials, logger *slog.Logger) (service.Service, error) {
		return youdoapi.New(cfg, creds, youdoapi.WithLogger(logger)), nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory, cli.WithInput(os.Stdin))

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}
