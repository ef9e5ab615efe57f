package config

import "testing"

func TestLoad_RequiresServiceName(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when SERVICE_NAME is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "blogs")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LISTING_DEFAULT_LIMIT", "")
	t.Setenv("LISTING_MAX_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.HTTP.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default level info, got %q", cfg.LogLevel)
	}
	if cfg.Listing.DefaultLimit != 20 || cfg.Listing.MaxLimit != 100 {
		t.Fatalf("unexpected listing defaults: %+v", cfg.Listing)
	}
}

func TestLoad_MaxLimitNeverBelowDefault(t *testing.T) {
	t.Setenv("SERVICE_NAME", "blogs")
	t.Setenv("LISTING_DEFAULT_LIMIT", "50")
	t.Setenv("LISTING_MAX_LIMIT", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listing.MaxLimit != 50 {
		t.Fatalf("expected max limit raised to 50, got %d", cfg.Listing.MaxLimit)
	}
}

func TestIsProduction(t *testing.T) {
	if (AppConfig{Env: "Production"}).IsProduction() != true {
		t.Fatal("expected case-insensitive production match")
	}
	if (AppConfig{Env: "dev"}).IsProduction() {
		t.Fatal("dev must not be production")
	}
}
