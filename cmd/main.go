package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/yungbote/ground-catalog/internal/app"
)

func main() {
	fs := flag.NewFlagSet("ground", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file (overrides CATALOG_CONFIG)")
	migrateOnly := fs.Bool("migrate-only", false, "Create the backend schema and exit")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ground [options]

Serves the versioned metadata catalog over HTTP.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}
	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *migrateOnly {
		cfg.Migrate = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if *migrateOnly {
		a.Log.Info("schema migrated", "backend", cfg.Backend)
		return
	}

	a.Start()
	if err := a.Run(ctx); err != nil {
		a.Log.Error("server failed", "error", err)
		a.Close()
		os.Exit(1)
	}
}
