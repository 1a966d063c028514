package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mira/dine-finder/internal/models"
)

// DBTX is the querying surface shared by *pgxpool.Pool and pgx.Tx, so the
// same store methods run either on the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	db DBTX
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// WithTx returns a store whose operations run on tx instead of the pool.
// Writes through it stay invisible to other connections until commit.
func (s *Store) WithTx(tx pgx.Tx) *Store {
	return &Store{db: tx}
}

// FindCityByName looks up a city by exact name. Absence is reported through
// the found flag, not an error.
func (s *Store) FindCityByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(ctx, "SELECT id FROM cities WHERE name = $1", name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find city %q: %w", name, err)
	}
	return id, true, nil
}

func (s *Store) CreateCity(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, "INSERT INTO cities (name) VALUES ($1) RETURNING id", name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create city %q: %w", name, err)
	}
	return id, nil
}

func (s *Store) InsertRestaurant(ctx context.Context, r *models.Restaurant) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO restaurants (city_id, name, address, phone, image_url, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.CityID, r.Name, r.Address, r.Phone, r.ImageURL, r.Latitude, r.Longitude)
	if err != nil {
		return fmt.Errorf("insert restaurant %q: %w", r.Name, err)
	}
	return nil
}

type ListParams struct {
	City   string // exact city name
	Query  string // substring match on name or address
	Limit  int
	Offset int
}

type ListResult struct {
	Restaurants []models.Restaurant `json:"restaurants"`
	Total       int                 `json:"total"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
}

const restaurantCols = `r.id, r.city_id, r.name, r.address, r.phone, r.image_url, r.latitude, r.longitude`

const restaurantFrom = `FROM restaurants r JOIN cities c ON c.id = r.city_id `

func buildRestaurantFilter(params ListParams) (string, []interface{}) {
	where := "WHERE 1=1"
	var args []interface{}
	argIdx := 1

	if params.City != "" {
		where += fmt.Sprintf(" AND c.name = $%d", argIdx)
		args = append(args, params.City)
		argIdx++
	}
	if params.Query != "" {
		where += fmt.Sprintf(" AND (r.name ILIKE '%%' || $%d || '%%' OR r.address ILIKE '%%' || $%d || '%%')", argIdx, argIdx)
		args = append(args, params.Query)
		argIdx++
	}

	return where, args
}

func scanRestaurant(scan func(dest ...interface{}) error) (models.Restaurant, error) {
	var r models.Restaurant
	var address, phone, imageURL *string
	var latitude, longitude *float64

	err := scan(&r.ID, &r.CityID, &r.Name, &address, &phone, &imageURL, &latitude, &longitude)
	if err != nil {
		return r, err
	}

	if address != nil {
		r.Address = *address
	}
	if phone != nil {
		r.Phone = *phone
	}
	if imageURL != nil {
		r.ImageURL = *imageURL
	}
	if latitude != nil {
		r.Latitude = *latitude
	}
	if longitude != nil {
		r.Longitude = *longitude
	}

	return r, nil
}

func (s *Store) ListRestaurants(ctx context.Context, params ListParams) (*ListResult, error) {
	where, args := buildRestaurantFilter(params)

	var total int
	countSQL := "SELECT COUNT(*) " + restaurantFrom + where
	if err := s.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count failed: %w", err)
	}

	selectSQL := fmt.Sprintf("SELECT %s %s%s ORDER BY r.name ASC, r.id ASC LIMIT $%d OFFSET $%d",
		restaurantCols, restaurantFrom, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.db.Query(ctx, selectSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var restaurants []models.Restaurant
	for rows.Next() {
		r, err := scanRestaurant(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		restaurants = append(restaurants, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if restaurants == nil {
		restaurants = []models.Restaurant{}
	}

	return &ListResult{
		Restaurants: restaurants,
		Total:       total,
		Limit:       params.Limit,
		Offset:      params.Offset,
	}, nil
}

func (s *Store) GetRestaurant(ctx context.Context, id int64) (*models.Restaurant, bool, error) {
	sql := fmt.Sprintf("SELECT %s %sWHERE r.id = $1", restaurantCols, restaurantFrom)
	row := s.db.QueryRow(ctx, sql, id)

	r, err := scanRestaurant(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get restaurant %d: %w", id, err)
	}

	return &r, true, nil
}

func (s *Store) ListCities(ctx context.Context) ([]models.CityListing, error) {
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.name, COUNT(r.id)
		FROM cities c
		LEFT JOIN restaurants r ON r.city_id = c.id
		GROUP BY c.id, c.name
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	defer rows.Close()

	var cities []models.CityListing
	for rows.Next() {
		var c models.CityListing
		if err := rows.Scan(&c.ID, &c.Name, &c.Restaurants); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		cities = append(cities, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	if cities == nil {
		cities = []models.CityListing{}
	}

	return cities, nil
}

func (s *Store) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var cities int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM cities").Scan(&cities); err != nil {
		return nil, fmt.Errorf("count cities: %w", err)
	}
	stats["cities"] = cities

	var restaurants int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM restaurants").Scan(&restaurants); err != nil {
		return nil, fmt.Errorf("count restaurants: %w", err)
	}
	stats["restaurants"] = restaurants

	var located int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM restaurants WHERE latitude IS NOT NULL AND longitude IS NOT NULL").Scan(&located); err != nil {
		return nil, fmt.Errorf("count located restaurants: %w", err)
	}
	stats["with_coordinates"] = located

	byCity := map[string]int{}
	rows, err := s.db.Query(ctx, `
		SELECT c.name, COUNT(*) FROM restaurants r
		JOIN cities c ON c.id = r.city_id
		GROUP BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("count by city: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var count int
		if scanErr := rows.Scan(&name, &count); scanErr == nil {
			byCity[name] = count
		}
	}
	stats["by_city"] = byCity

	return stats, nil
}

// ResetRestaurantIDSequence points the restaurants id sequence at
// max(id) + 1, keeping generation ahead of rows written with explicit ids.
// Returns the next id it installed.
func (s *Store) ResetRestaurantIDSequence(ctx context.Context) (int64, error) {
	var next int64
	if err := s.db.QueryRow(ctx, "SELECT COALESCE(MAX(id), 0) + 1 FROM restaurants").Scan(&next); err != nil {
		return 0, fmt.Errorf("compute next restaurant id: %w", err)
	}

	if _, err := s.db.Exec(ctx, "SELECT setval(pg_get_serial_sequence('restaurants', 'id'), $1, false)", next); err != nil {
		return 0, fmt.Errorf("reset restaurant id sequence: %w", err)
	}

	return next, nil
}
