package models

import (
	"time"

	"github.com/google/uuid"
)

type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CityListing is a city plus its restaurant count, used by the read API.
type CityListing struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Restaurants int    `json:"restaurants"`
}

type Restaurant struct {
	ID        int64   `json:"id"`
	CityID    int64   `json:"city_id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	ImageURL  string  `json:"image_url"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SeedRun records one seeding pass.
type SeedRun struct {
	RunID       uuid.UUID  `json:"run_id"`
	City        string     `json:"city"`
	Status      string     `json:"status"` // running, completed, failed
	TotalListed int        `json:"total_listed"`
	TotalStaged int        `json:"total_staged"`
	Pages       int        `json:"pages"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
