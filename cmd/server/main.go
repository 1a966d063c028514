package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"

	"github.com/mira/dine-finder/internal/api"
	"github.com/mira/dine-finder/internal/db"
	"github.com/mira/dine-finder/internal/logging"
)

func main() {
	_ = godotenv.Load()
	logger := logging.Setup(logging.FromEnv())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("connecting to database")
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("applying migrations")
	}

	srv := api.NewServer(pool)
	logger.Info().Str("port", port).Msg("server starting")
	if err := srv.Start(port); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}
