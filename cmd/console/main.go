// Command console serves the Appsistencia admin console: the session-guarded
// JSON API in front of the school backend plus the built frontend.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/app"
	"github.com/Victordev32-dnivel/micole-admin-web-sub001/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("create app: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		log.Fatalf("run app: %v", err)
	}
}
