package main

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/pelyams/sneaker_house_service/internal/config"
)

func openPostgres(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
