package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load defaults: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Distance.Timeout != 3*time.Second {
		t.Errorf("expected 3s distance timeout, got %v", cfg.Distance.Timeout)
	}
	if cfg.Pricing.RatePerKm.String() != "10" {
		t.Errorf("expected rate 10, got %s", cfg.Pricing.RatePerKm)
	}
	if cfg.Pricing.Commission.String() != "0.3" {
		t.Errorf("expected commission 0.3, got %s", cfg.Pricing.Commission)
	}
	if cfg.Matching.TopRatedThreshold != 4.8 {
		t.Errorf("expected threshold 4.8, got %v", cfg.Matching.TopRatedThreshold)
	}
	if !strings.Contains(cfg.Database.DSN(), "dbname=ride_hailing") {
		t.Errorf("unexpected DSN %q", cfg.Database.DSN())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("FARE_RATE_PER_KM", "12.5")
	t.Setenv("PLATFORM_COMMISSION", "0.25")
	t.Setenv("MATCHING_SOURCE", "sql")
	t.Setenv("DISTANCE_TIMEOUT", "750ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if cfg.Store.Backend != "memory" || cfg.Database.Driver != "pgx" {
		t.Errorf("expected memory/pgx, got %s/%s", cfg.Store.Backend, cfg.Database.Driver)
	}
	if cfg.Pricing.RatePerKm.StringFixed(2) != "12.50" || cfg.Pricing.Commission.StringFixed(2) != "0.25" {
		t.Errorf("unexpected pricing %+v", cfg.Pricing)
	}
	if cfg.Matching.Source != "sql" {
		t.Errorf("expected sql matching, got %s", cfg.Matching.Source)
	}
	if cfg.Distance.Timeout != 750*time.Millisecond {
		t.Errorf("expected 750ms, got %v", cfg.Distance.Timeout)
	}
}

func TestLoad_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "mongo"}, wantErr: "STORE_BACKEND"},
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "mysql"}, wantErr: "DB_DRIVER"},
		{name: "google without key", env: map[string]string{"DISTANCE_PROVIDER": "google", "GOOGLE_MAPS_API_KEY": ""}, wantErr: "GOOGLE_MAPS_API_KEY"},
		{name: "unknown provider", env: map[string]string{"DISTANCE_PROVIDER": "mapbox"}, wantErr: "DISTANCE_PROVIDER"},
		{name: "unknown matching source", env: map[string]string{"MATCHING_SOURCE": "h3"}, wantErr: "MATCHING_SOURCE"},
		{name: "commission above one", env: map[string]string{"PLATFORM_COMMISSION": "1.5"}, wantErr: "PLATFORM_COMMISSION"},
		{name: "zero rate", env: map[string]string{"FARE_RATE_PER_KM": "0"}, wantErr: "FARE_RATE_PER_KM"},
		{name: "malformed rate", env: map[string]string{"FARE_RATE_PER_KM": "ten"}, wantErr: "load config"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}
