package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mira/dine-finder/internal/models"
)

// Seed run bookkeeping. Runs are written outside the ingestion transaction
// so a rolled-back pass still leaves a failed run on record.

func (s *Store) CreateSeedRun(ctx context.Context, runID uuid.UUID, city string) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO seed_runs (run_id, city, status) VALUES ($1, $2, 'running')",
		runID, city)
	if err != nil {
		return fmt.Errorf("create seed run: %w", err)
	}
	return nil
}

func (s *Store) CompleteSeedRun(ctx context.Context, runID uuid.UUID, status string, totalListed, totalStaged, pages int, runErr error) error {
	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}

	_, err := s.db.Exec(ctx, `
		UPDATE seed_runs
		SET status = $2, total_listed = $3, total_staged = $4, pages = $5,
		    error = $6, completed_at = NOW()
		WHERE run_id = $1
	`, runID, status, totalListed, totalStaged, pages, errMsg)
	if err != nil {
		return fmt.Errorf("complete seed run: %w", err)
	}
	return nil
}

func (s *Store) ListRecentSeedRuns(ctx context.Context, limit int) ([]models.SeedRun, error) {
	rows, err := s.db.Query(ctx, `
		SELECT run_id, city, status, total_listed, total_staged, pages, error, started_at, completed_at
		FROM seed_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list seed runs: %w", err)
	}
	defer rows.Close()

	var runs []models.SeedRun
	for rows.Next() {
		var run models.SeedRun
		var errMsg *string
		if err := rows.Scan(&run.RunID, &run.City, &run.Status, &run.TotalListed,
			&run.TotalStaged, &run.Pages, &errMsg, &run.StartedAt, &run.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan seed run: %w", err)
		}
		if errMsg != nil {
			run.Error = *errMsg
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return runs, nil
}
