// Seeder populates the database with restaurants for one city, fetched
// from the business-listings search API. Safe to re-run: the city row is
// reused and all staged rows land in a single transaction.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/mira/dine-finder/internal/config"
	"github.com/mira/dine-finder/internal/db"
	"github.com/mira/dine-finder/internal/ingest"
	"github.com/mira/dine-finder/internal/logging"
	"github.com/mira/dine-finder/internal/search"
)

func main() {
	_ = godotenv.Load()
	logger := logging.Setup(logging.FromEnv())

	cityFlag := flag.String("city", "", "city to seed (defaults to the configured city)")
	settingsFlag := flag.String("settings", os.Getenv("SETTINGS_FILE"), "settings file (defaults to the embedded settings)")
	flag.Parse()

	cfg, err := config.Load(*settingsFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading settings")
	}

	creds, err := config.LoadCredentials(cfg.Search.CredentialsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("loading credentials")
	}

	city := *cityFlag
	if city == "" {
		city = cfg.Seed.City
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

	client := search.NewClient(search.Config{
		BaseURL: cfg.Search.BaseURL,
		APIKey:  creds.APIKey,
		Term:    cfg.Search.Term,
		Timeout: cfg.Search.Timeout(),
	})
	loader := ingest.NewLoader(client, ingest.Config{
		PageSize:  cfg.Search.PageSize,
		MaxOffset: cfg.Search.MaxOffset,
	})
	store := db.NewStore(pool)

	runID := uuid.New()
	if err := store.CreateSeedRun(ctx, runID, city); err != nil {
		logger.Fatal().Err(err).Msg("recording seed run")
	}

	var stats *ingest.Stats
	err = db.InTx(ctx, pool, func(tx pgx.Tx) error {
		var loadErr error
		stats, loadErr = loader.LoadRestaurants(ctx, store.WithTx(tx), city)
		return loadErr
	})
	if err != nil {
		completeRun(ctx, store, runID, "failed", stats, err)
		logger.Fatal().Err(err).Str("city", city).Msg("seeding failed, transaction rolled back")
	}
	completeRun(ctx, store, runID, "completed", stats, nil)

	next, err := store.ResetRestaurantIDSequence(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("resetting restaurant id sequence")
	}

	logger.Info().
		Str("city", city).
		Int64("city_id", stats.CityID).
		Bool("city_created", stats.CityCreated).
		Int("total_available", stats.TotalAvailable).
		Int("pages", stats.Pages).
		Int("staged", stats.Staged).
		Int64("next_restaurant_id", next).
		Msg("seeding complete")
}

func completeRun(ctx context.Context, store *db.Store, runID uuid.UUID, status string, stats *ingest.Stats, runErr error) {
	totalListed, totalStaged, pages := 0, 0, 0
	if stats != nil {
		totalListed, totalStaged, pages = stats.TotalAvailable, stats.Staged, stats.Pages
	}
	if err := store.CompleteSeedRun(ctx, runID, status, totalListed, totalStaged, pages, runErr); err != nil {
		log.Warn().Err(err).Str("run_id", runID.String()).Msg("updating seed run record")
	}
}
