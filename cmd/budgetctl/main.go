// Command budgetctl edits and reports on the ledger from the shell, using
// the same backend and event broker as the server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/google/subcommands"

	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/log"
	"budget/internal/services"
)

func main() {
	cli.LoadEnvFile()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	register(commander, &app{
		open:   openLedger(newLogger()),
		stdout: os.Stdout,
		stderr: os.Stderr,
		stdin:  os.Stdin,
	})

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// newLogger writes to stderr so command output stays pipeable. Without
// LOG_LEVEL only warnings and errors are shown.
func newLogger() *log.Logger {
	cfg := log.Config{Level: slog.LevelWarn, Component: log.ComponentCLI, Output: os.Stderr}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if lvl, err := config.ParseLevel(v); err == nil {
			cfg.Level = lvl
		}
	}
	return log.New(cfg)
}

// openLedger loads the configured backend and hydrates a ledger from it.
func openLedger(logger *log.Logger) opener {
	return func(ctx context.Context) (*services.LedgerService, func(), error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
		loc, err := cfg.Location()
		if err != nil {
			return nil, nil, fmt.Errorf("timezone: %w", err)
		}
		bcfg, err := backend.FromAppConfig(cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s backend: %w", bcfg.Type, err)
		}

		opts := services.Options{Logger: logger, Location: loc, Currency: cfg.Currency}
		client := cli.ConnectAMQP(logger, cfg)
		if client != nil {
			opts.Publisher = client
		}
		cleanup := func() {
			if client != nil {
				_ = client.Close()
			}
			_ = store.Close()
		}

		svc, err := services.NewLedgerService(ctx, store.KV, opts)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		return svc, cleanup, nil
	}
}
