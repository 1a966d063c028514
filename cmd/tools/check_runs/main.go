package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mira/dine-finder/internal/db"
	"github.com/mira/dine-finder/internal/ingest"
)

func main() {
	ctx := context.Background()
	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	runs, err := db.NewStore(pool).ListRecentSeedRuns(ctx, 10)
	if err != nil {
		log.Fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"City", "Status", "Listed", "Staged", "Pages", "Duration", "Started At", "Error"})

	for _, run := range runs {
		duration := "Running..."
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
		}

		t.AppendRow(table.Row{
			run.City,
			run.Status,
			run.TotalListed,
			run.TotalStaged,
			run.Pages,
			duration,
			run.StartedAt.Format("15:04:05"),
			ingest.TruncateText(run.Error, 40),
		})
	}
	t.Render()
}
