// Package config loads runtime settings and the API credential file.
package config

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed settings.yaml
var settingsYAML embed.FS

// Settings is the full runtime configuration.
type Settings struct {
	Search SearchSettings `yaml:"search"`
	Seed   SeedSettings   `yaml:"seed"`
}

// SearchSettings configures the business-listings search client and the
// pagination bounds of a seeding pass. Page size and max offset mirror
// limits imposed by the external API and may need to track it.
type SearchSettings struct {
	BaseURL         string `yaml:"base_url"`
	Term            string `yaml:"term"`
	PageSize        int    `yaml:"page_size"`
	MaxOffset       int    `yaml:"max_offset"`
	TimeoutSeconds  int    `yaml:"timeout_seconds,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// SeedSettings configures the default seeding target.
type SeedSettings struct {
	City string `yaml:"city"`
}

// Timeout returns the configured HTTP timeout.
func (s SearchSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Load reads settings from path if it exists, otherwise from the embedded
// defaults. Environment variables referenced as ${VAR} are expanded before
// parsing.
func Load(path string) (*Settings, error) {
	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read settings file %s: %w", path, err)
		}
	} else {
		data, err = settingsYAML.ReadFile("settings.yaml")
		if err != nil {
			return nil, fmt.Errorf("read embedded settings: %w", err)
		}
	}

	expanded := os.ExpandEnv(string(data))

	var settings Settings
	if err := yaml.Unmarshal([]byte(expanded), &settings); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	settings.applyDefaults()
	if err := settings.validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

func (s *Settings) applyDefaults() {
	if s.Search.Term == "" {
		s.Search.Term = "restaurant"
	}
	if s.Search.PageSize == 0 {
		s.Search.PageSize = 20
	}
	if s.Search.MaxOffset == 0 {
		s.Search.MaxOffset = 1000
	}
	if s.Search.TimeoutSeconds == 0 {
		s.Search.TimeoutSeconds = 30
	}
	if s.Search.CredentialsFile == "" {
		s.Search.CredentialsFile = "config_secret.json"
	}
	if s.Seed.City == "" {
		s.Seed.City = "Sunnyvale"
	}
}

func (s *Settings) validate() error {
	if s.Search.BaseURL == "" {
		return fmt.Errorf("settings: search.base_url is required")
	}
	if s.Search.PageSize < 1 {
		return fmt.Errorf("settings: search.page_size must be positive, got %d", s.Search.PageSize)
	}
	if s.Search.MaxOffset < 1 {
		return fmt.Errorf("settings: search.max_offset must be positive, got %d", s.Search.MaxOffset)
	}
	return nil
}

// Credentials holds the search API authentication parameters, read from a
// local JSON file that stays out of version control.
type Credentials struct {
	APIKey string `json:"api_key"`
}

// LoadCredentials reads and validates the credential file. A missing,
// unreadable, or malformed file is a startup-fatal error for the caller.
func LoadCredentials(path string) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file %s: %w", path, err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials file %s: %w", path, err)
	}

	if strings.TrimSpace(creds.APIKey) == "" {
		return nil, fmt.Errorf("credentials file %s: api_key is empty", path)
	}

	return &creds, nil
}
