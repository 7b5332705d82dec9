package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/pelyams/sneaker_house_service/cmd/api/app"
	"github.com/pelyams/sneaker_house_service/internal/config"
)

func main() {
	// CATALOG_CONFIG names a YAML file; without it ./catalog.yaml is used if present
	cfg, err := config.Load(os.Getenv("CATALOG_CONFIG"))
	if err != nil {
		log.Fatal(err)
	}

	app, err := app.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
