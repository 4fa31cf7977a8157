// Package main runs the HomeVault core as a standalone process: it
// opens the local store, migrates the schema, and keeps the background
// sync scheduler running until interrupted. Desktop and mobile shells
// embed the same internal packages directly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yihsuanlo/homevault/backend/internal/config"
	"github.com/yihsuanlo/homevault/backend/internal/db"
	"github.com/yihsuanlo/homevault/backend/internal/logging"
	syncpkg "github.com/yihsuanlo/homevault/backend/internal/sync"
	"github.com/yihsuanlo/homevault/backend/internal/sync/queue"
	"github.com/yihsuanlo/homevault/backend/internal/sync/scheduler"
)

// Version is set at build time.
var Version = "0.1.0"

func main() {
	configPath := flag.String("config", "homevault.yaml", "path to config file")
	dataDir := flag.String("data", "", "override data directory")
	flag.Parse()

	if err := run(*configPath, *dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "homevault: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dataDir string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	logging.Init(os.Stdout, cfg.LogLevel)
	logging.Info("homevault core starting", logging.Fields{
		"version":  Version,
		"data_dir": cfg.DataDir,
	})

	database, err := db.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database.DB); err != nil {
		return err
	}

	q := queue.New(database.DB)
	store := db.NewStore(database.DB, q)
	remote := syncpkg.NewClient(cfg.Remote.Endpoint, cfg.Remote.Token, cfg.Remote.Timeout)
	engine := syncpkg.NewEngine(store, q, remote, cfg.Sync)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.New(engine, scheduler.Config{
		SyncInterval:  cfg.Sync.Interval,
		QueueInterval: cfg.Sync.QueueInterval,
	})
	sched.Start(ctx)
	defer sched.Stop()

	// Kick off one sync at startup; failures are retried by the
	// scheduler, and an unconfigured remote just stays offline.
	if _, err := engine.FullSync(ctx); err != nil {
		logging.Warn("initial sync skipped", logging.Fields{"error": err.Error()})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logging.Info("shutting down", logging.Fields{"signal": sig.String()})
	return nil
}
