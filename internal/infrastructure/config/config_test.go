package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.JWTSecret != devJWTSecret {
		t.Fatalf("expected development secret, got %q", cfg.JWTSecret)
	}
	if cfg.Sessions.CacheTTL != 30*time.Minute || cfg.Clients.ProvisionRetryDelay != 2*time.Second {
		t.Fatalf("unexpected durations: %+v %+v", cfg.Sessions, cfg.Clients)
	}
	if cfg.Tasks.StrictTransitions {
		t.Fatalf("transitions must be permissive by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":                "production",
		"JWT_SECRET":         "s3cr3t",
		"STRICT_TRANSITIONS": "true",
		"RECURRENCE_WORKERS": "2",
		"TOKEN_TTL":          "1h",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Tasks.StrictTransitions || cfg.Tasks.RecurrenceWorkers != 2 || cfg.TokenTTL != time.Hour {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "production"}))
	if err == nil {
		t.Fatalf("expected error without JWT_SECRET in production")
	}
}
