// Package search is the client for the external business-listings search
// API used to seed restaurants.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/mira/dine-finder/internal/logging"
)

var (
	searchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listings_search_requests_total",
		Help: "Total search API requests by status",
	}, []string{"status"})

	searchRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "listings_search_request_duration_seconds",
		Help:    "Search API request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})
)

// Result is one page of the search API response. Total counts every match
// known to the API, not the page length.
type Result struct {
	Total      int        `json:"total"`
	Businesses []Business `json:"businesses"`
}

type Business struct {
	Name         string   `json:"name"`
	DisplayPhone string   `json:"display_phone"`
	ImageURL     string   `json:"image_url"`
	Location     Location `json:"location"`
}

type Location struct {
	DisplayAddress []string   `json:"display_address"`
	Coordinate     Coordinate `json:"coordinate"`
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Term    string
	Timeout time.Duration
}

// Client queries the listings search API. It never retries: a transient
// failure surfaces to the caller unchanged.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	term       string
	logger     zerolog.Logger
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	term := cfg.Term
	if term == "" {
		term = "restaurant"
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		term:       term,
		logger:     logging.NewLogger("search"),
	}
}

// Search fetches one result page for location starting at offset. The page
// size is fixed by the API and is not sent as a parameter.
func (c *Client) Search(ctx context.Context, location string, offset int) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	q := url.Values{}
	q.Set("term", c.term)
	q.Set("location", location)
	q.Set("offset", strconv.Itoa(offset))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	c.logger.Debug().Str("location", location).Int("offset", offset).Msg("fetching page")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	searchRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		searchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	searchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search API returned %d: %s", resp.StatusCode, string(body))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	c.logger.Debug().Int("businesses", len(result.Businesses)).Int("total", result.Total).Msg("got page")

	return &result, nil
}
