package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	return Config{
		Strava: StravaConfig{
			ClientID:     "12345",
			ClientSecret: "secret",
		},
		Athlete: AthleteConfig{
			FTP:             250,
			WeightKg:        75,
			HoursPerWeek:    8,
			SessionsPerWeek: 4,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing client id", func(c *Config) { c.Strava.ClientID = "" }, "client_id"},
		{"placeholder client id", func(c *Config) { c.Strava.ClientID = "YOUR_CLIENT_ID" }, "client_id"},
		{"missing client secret", func(c *Config) { c.Strava.ClientSecret = "" }, "client_secret"},
		{"missing ftp", func(c *Config) { c.Athlete.FTP = 0 }, "ftp"},
		{"negative ftp", func(c *Config) { c.Athlete.FTP = -100 }, "ftp"},
		{"absurd session count", func(c *Config) { c.Athlete.SessionsPerWeek = 20 }, "sessions_per_week"},
		{"negative hours", func(c *Config) { c.Athlete.HoursPerWeek = -1 }, "hours_per_week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Athlete: AthleteConfig{FTP: 250}}
	cfg.applyDefaults()

	if cfg.Athlete.WeightKg != 75 {
		t.Errorf("WeightKg = %v, want default 75", cfg.Athlete.WeightKg)
	}
	if cfg.Athlete.SessionsPerWeek != 4 {
		t.Errorf("SessionsPerWeek = %d, want default 4", cfg.Athlete.SessionsPerWeek)
	}
	if cfg.Athlete.FTP != 250 {
		t.Errorf("FTP = %v, explicit value must survive defaults", cfg.Athlete.FTP)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("STRAVA_CLIENT_ID", "env-id")
	t.Setenv("NARRATIVE_API_KEY", "env-key")
	t.Setenv("CYCLECOACH_FTP", "280")

	cfg := validConfig()
	cfg.applyEnv()

	if cfg.Strava.ClientID != "env-id" {
		t.Errorf("ClientID = %q, want env override", cfg.Strava.ClientID)
	}
	if cfg.Narrative.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override", cfg.Narrative.APIKey)
	}
	if cfg.Athlete.FTP != 280 {
		t.Errorf("FTP = %v, want env override 280", cfg.Athlete.FTP)
	}
}

func TestApplyEnvIgnoresBadFTP(t *testing.T) {
	t.Setenv("CYCLECOACH_FTP", "lots")

	cfg := validConfig()
	cfg.applyEnv()

	if cfg.Athlete.FTP != 250 {
		t.Errorf("FTP = %v, unparseable env value must not clobber config", cfg.Athlete.FTP)
	}
}
