package main

import (
	"context"
	"time"

	migrations "labbook/internal/migrations/mongo"
	"labbook/pkg/config"
)

const migrationTimeout = 2 * time.Minute

func main() {
	cfg := config.Load("migrate")
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()

	if err := migrations.NewMigrator(cfg).Run(ctx); err != nil {
		cfg.Log.Fatal("Migration failed", "error", err)
	}
}
