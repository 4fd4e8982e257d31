package main

// Watch a drop folder and feed every new document through the intake
// pipeline:
//   WATCH_DIR=./inbox go run ./cmd/watcher

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"intake-backend/internal/bootstrap"
	"intake-backend/internal/ingest"
	"intake-backend/internal/shared/config"
)

func main() {
	cfg := config.Load()
	if cfg.WatchDir == "" {
		log.Fatal("WATCH_DIR is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	defer app.Close()

	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:        cfg.WatchDir,
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("watcher error: %v", err)
	}
	go func() {
		for watchErr := range errs {
			log.Printf("watch error: %v", watchErr)
		}
	}()

	log.Printf("Watching %s for documents", cfg.WatchDir)
	ingest.NewRunner(app.Jobs).Run(ctx, paths)
}
