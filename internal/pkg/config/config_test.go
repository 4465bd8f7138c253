package config_test

import (
	"strings"
	"testing"

	"github.com/midzapp/midz/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("midz-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Planner.ResolveTimeoutMs != 3000 {
		t.Errorf("expected resolve timeout 3000ms, got %d", cfg.Planner.ResolveTimeoutMs)
	}
	if cfg.Planner.MaxVenues != 10 {
		t.Errorf("expected 10 venues, got %d", cfg.Planner.MaxVenues)
	}
	if cfg.Planner.LandSearchQuery != "restaurant" {
		t.Errorf("expected restaurant, got %s", cfg.Planner.LandSearchQuery)
	}
	if cfg.Telemetry.ServiceName != "midz-test" {
		t.Errorf("expected service name midz-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MIDZ_PLANNER_MAX_VENUES", "5")
	cfg, err := config.Load("midz-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Planner.MaxVenues != 5 {
		t.Errorf("expected 5 venues from env, got %d", cfg.Planner.MaxVenues)
	}
}

func TestValidate_CollectsErrors(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "geocoder.base_url", "planner.max_venues"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %v", want, err)
		}
	}
}
