package main

import (
	"context"
	"log"

	"intake-backend/internal/bootstrap"
	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	defer app.Close()

	r := server.NewRouter(cfg, app)

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s", addr)

	if err := r.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
