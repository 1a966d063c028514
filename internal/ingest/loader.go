// Package ingest loads restaurant listings from the search API into the
// database, one city at a time.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mira/dine-finder/internal/logging"
	"github.com/mira/dine-finder/internal/models"
	"github.com/mira/dine-finder/internal/search"
)

// SearchClient fetches one page of business listings for a location.
type SearchClient interface {
	Search(ctx context.Context, location string, offset int) (*search.Result, error)
}

// Sink receives resolved cities and staged restaurants. *db.Store satisfies
// it against either a pool or an open transaction.
type Sink interface {
	FindCityByName(ctx context.Context, name string) (int64, bool, error)
	CreateCity(ctx context.Context, name string) (int64, error)
	InsertRestaurant(ctx context.Context, r *models.Restaurant) error
}

type Config struct {
	PageSize  int
	MaxOffset int
}

// Stats summarizes one load run.
type Stats struct {
	CityID         int64
	CityCreated    bool
	TotalAvailable int
	Pages          int
	Staged         int
	NextOffset     int
}

type Loader struct {
	search SearchClient
	cfg    Config
	logger zerolog.Logger
}

func NewLoader(client SearchClient, cfg Config) *Loader {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxOffset <= 0 {
		cfg.MaxOffset = 1000
	}

	return &Loader{
		search: client,
		cfg:    cfg,
		logger: logging.NewLogger("ingest"),
	}
}

// ResolveCityID returns the id of the city row for name, creating it when
// absent. The bool reports whether a row was created.
func (l *Loader) ResolveCityID(ctx context.Context, sink Sink, name string) (int64, bool, error) {
	if strings.TrimSpace(name) == "" {
		return 0, false, fmt.Errorf("city name is empty")
	}

	id, found, err := sink.FindCityByName(ctx, name)
	if err != nil {
		return 0, false, fmt.Errorf("looking up city %q: %w", name, err)
	}
	if found {
		return id, false, nil
	}

	id, err = sink.CreateCity(ctx, name)
	if err != nil {
		return 0, false, fmt.Errorf("creating city %q: %w", name, err)
	}
	return id, true, nil
}

// LoadRestaurants resolves city to its row id, then walks the search
// results page by page and stages every business into sink. The result
// total is taken from the first page only; the offset advances by the
// configured page size regardless of how many businesses a page actually
// carried, and the walk stops once it reaches the total or the API's
// offset ceiling. Any fetch or stage failure aborts the run with the
// stats collected so far.
func (l *Loader) LoadRestaurants(ctx context.Context, sink Sink, city string) (*Stats, error) {
	cityID, created, err := l.ResolveCityID(ctx, sink, city)
	if err != nil {
		return nil, err
	}

	stats := &Stats{CityID: cityID, CityCreated: created}
	l.logger.Info().
		Str("city", city).
		Int64("city_id", cityID).
		Bool("created", created).
		Msg("starting load")

	offset := 0
	total := 0
	for {
		page, err := l.search.Search(ctx, city, offset)
		if err != nil {
			stats.NextOffset = offset
			return stats, fmt.Errorf("fetching page at offset %d: %w", offset, err)
		}
		if offset == 0 {
			total = page.Total
			stats.TotalAvailable = total
		}
		stats.Pages++

		for i := range page.Businesses {
			r := restaurantFromBusiness(cityID, &page.Businesses[i])
			if err := sink.InsertRestaurant(ctx, r); err != nil {
				stats.NextOffset = offset
				return stats, fmt.Errorf("staging restaurant %q: %w", r.Name, err)
			}
			stats.Staged++
		}

		l.logger.Debug().
			Int("offset", offset).
			Int("businesses", len(page.Businesses)).
			Int("total", total).
			Msg("staged page")

		offset += l.cfg.PageSize
		if offset >= total || offset >= l.cfg.MaxOffset {
			break
		}
	}
	stats.NextOffset = offset

	l.logger.Info().
		Str("city", city).
		Int("total_available", stats.TotalAvailable).
		Int("pages", stats.Pages).
		Int("staged", stats.Staged).
		Msg("load finished")

	return stats, nil
}
