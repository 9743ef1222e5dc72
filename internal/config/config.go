// Package config loads and validates the application configuration from
// ~/.cyclecoach/config.json, with environment variables (optionally via a
// .env file) overriding file values.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Strava    StravaConfig    `json:"strava"`
	Athlete   AthleteConfig   `json:"athlete"`
	Narrative NarrativeConfig `json:"narrative"`
}

// StravaConfig holds Strava API credentials
type StravaConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// AthleteConfig holds athlete-specific settings
type AthleteConfig struct {
	FTP                     float64 `json:"ftp"`
	WeightKg                float64 `json:"weight_kg"`
	HoursPerWeek            float64 `json:"hours_per_week"`
	SessionsPerWeek         int     `json:"sessions_per_week"`
	PreferredSessionMinutes int     `json:"preferred_session_minutes"`
}

// NarrativeConfig holds the optional plan-generation API settings.
// When APIKey is empty the deterministic planner is used alone.
type NarrativeConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Athlete: AthleteConfig{
			WeightKg:                75,
			HoursPerWeek:            8,
			SessionsPerWeek:         4,
			PreferredSessionMinutes: 90,
		},
	}
}

// Load reads the configuration from ~/.cyclecoach/config.json, then applies
// environment overrides. A .env file in the working directory is loaded
// first when present.
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Athlete.WeightKg == 0 {
		c.Athlete.WeightKg = defaults.Athlete.WeightKg
	}
	if c.Athlete.HoursPerWeek == 0 {
		c.Athlete.HoursPerWeek = defaults.Athlete.HoursPerWeek
	}
	if c.Athlete.SessionsPerWeek == 0 {
		c.Athlete.SessionsPerWeek = defaults.Athlete.SessionsPerWeek
	}
	if c.Athlete.PreferredSessionMinutes == 0 {
		c.Athlete.PreferredSessionMinutes = defaults.Athlete.PreferredSessionMinutes
	}
}

// applyEnv layers environment variables over the file config. godotenv is
// best-effort: a missing .env file is not an error.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("STRAVA_CLIENT_ID"); v != "" {
		c.Strava.ClientID = v
	}
	if v := os.Getenv("STRAVA_CLIENT_SECRET"); v != "" {
		c.Strava.ClientSecret = v
	}
	if v := os.Getenv("NARRATIVE_API_KEY"); v != "" {
		c.Narrative.APIKey = v
	}
	if v := os.Getenv("NARRATIVE_MODEL"); v != "" {
		c.Narrative.Model = v
	}
	if v := os.Getenv("NARRATIVE_BASE_URL"); v != "" {
		c.Narrative.BaseURL = v
	}
	if v := os.Getenv("CYCLECOACH_FTP"); v != "" {
		if ftp, err := strconv.ParseFloat(v, 64); err == nil {
			c.Athlete.FTP = ftp
		}
	}
}

// Save writes the configuration to ~/.cyclecoach/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := Config{
		Strava: StravaConfig{
			ClientID:     "YOUR_CLIENT_ID",
			ClientSecret: "YOUR_CLIENT_SECRET",
		},
		Athlete: AthleteConfig{
			FTP:                     250,
			WeightKg:                75,
			HoursPerWeek:            8,
			SessionsPerWeek:         4,
			PreferredSessionMinutes: 90,
		},
	}

	return Save(&example)
}

// Validate checks if the config has required fields
func (c *Config) Validate() error {
	if c.Strava.ClientID == "" || c.Strava.ClientID == "YOUR_CLIENT_ID" {
		return errors.New("strava.client_id is required - get it from https://www.strava.com/settings/api")
	}
	if c.Strava.ClientSecret == "" || c.Strava.ClientSecret == "YOUR_CLIENT_SECRET" {
		return errors.New("strava.client_secret is required - get it from https://www.strava.com/settings/api")
	}

	if c.Athlete.FTP <= 0 {
		return errors.New("athlete.ftp is required - set your functional threshold power in watts")
	}
	if c.Athlete.WeightKg < 0 {
		return fmt.Errorf("athlete.weight_kg must be positive, got %v", c.Athlete.WeightKg)
	}
	if c.Athlete.SessionsPerWeek < 0 || c.Athlete.SessionsPerWeek > 14 {
		return fmt.Errorf("athlete.sessions_per_week must be between 0 and 14, got %d", c.Athlete.SessionsPerWeek)
	}
	if c.Athlete.HoursPerWeek < 0 {
		return fmt.Errorf("athlete.hours_per_week must be positive, got %v", c.Athlete.HoursPerWeek)
	}

	return nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".cyclecoach", "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".cyclecoach"), nil
}
