// invoiceseed imports extracted invoice documents into the analytics tables
// and prints reports over them.
//
// Usage: go run ./cmd/invoiceseed <command> [args]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"invoiceseed/internal/adapters/cli"
	"invoiceseed/internal/app"
	"invoiceseed/internal/config"
	"invoiceseed/internal/core"
	"invoiceseed/internal/db"
	"invoiceseed/internal/logging"
	"invoiceseed/internal/seed"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, cli.Usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store core.Store
		lock  app.RunLock
	)
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		conn, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer conn.Close()
		store = core.NewSQLiteStore(conn)
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("database: %v", err)
		}
		defer pool.Close()
		store = core.NewPostgresStore(pool)
		lock = db.SeedLocker{Pool: pool}
	}

	seeder := seed.NewSeeder(store,
		seed.WithRand(seed.NewRand(cfg.SeedRandomSeed)),
		seed.WithClock(time.Now),
		seed.WithLogger(logger),
		seed.WithProgressEvery(cfg.ProgressEvery),
	)
	reporting := core.NewReportingService(store)
	svc := app.NewAppService(store, seeder, reporting, cfg.SeedFile, lock)

	err = cli.Run(ctx, svc, os.Stdout, os.Args[1:])
	if err != nil {
		switch {
		case cli.ExitCode(err) == 2:
			fmt.Fprintf(os.Stderr, "%v\n\n%s\n", err, cli.Usage)
		case cli.IsBatchError(err):
			logger.WithError(err).Error("seed batch could not be loaded; nothing was imported")
		default:
			logger.WithError(err).Error("command failed")
		}
	}
	code := cli.ExitCode(err)
	stop()
	if code != 0 {
		os.Exit(code)
	}
}
