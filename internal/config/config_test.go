package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.Driver != "memory" {
		t.Fatalf("storage driver = %q, want memory", cfg.Storage.Driver)
	}
	if cfg.Notifications.DeliveryTimeout != 10*time.Second {
		t.Fatalf("delivery timeout = %v", cfg.Notifications.DeliveryTimeout)
	}
	if cfg.Scheduler.InactivityThreshold != 7*24*time.Hour {
		t.Fatalf("inactivity threshold = %v", cfg.Scheduler.InactivityThreshold)
	}
	if cfg.Certification.MinLevel != 1 {
		t.Fatalf("min level = %d", cfg.Certification.MinLevel)
	}
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if !errors.Is(err, ErrMissingEnvironmentVariables) {
		t.Fatalf("want ErrMissingEnvironmentVariables, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Storage:       Storage{Driver: "memory"},
			Email:         Email{Provider: "console"},
			Live:          Live{Drivers: []string{"hub"}},
			Objects:       Objects{Driver: "local", ManagedCategories: []string{"upload"}},
			Certification: Certification{ArtifactCategory: "certificate"},
			Notifications: Notifications{MaxConcurrent: 4},
			Scheduler:     Scheduler{MaxConcurrent: 4, BatchSize: 10, Timezone: "UTC"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"sendgrid without key", func(c *Config) { c.Email.Provider = "sendgrid" }, ErrMissingEnvironmentVariables},
		{"redis without addr", func(c *Config) { c.Live.Drivers = []string{"redis"} }, ErrMissingEnvironmentVariables},
		{"unknown live driver", func(c *Config) { c.Live.Drivers = []string{"pigeon"} }, ErrInvalidConfig},
		{"sweeping certificates", func(c *Config) { c.Objects.ManagedCategories = []string{"certificate"} }, ErrInvalidConfig},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, ErrInvalidConfig},
		{"zero fan-out", func(c *Config) { c.Notifications.MaxConcurrent = 0 }, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}
