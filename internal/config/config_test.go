package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STAFFMAP_HTTP_PORT", "")
	t.Setenv("STAFFMAP_OWNER_ID", "")
	t.Setenv("STAFFMAP_CLIENT_STATE_PATH", "")
	t.Setenv("STAFFMAP_LOG_LEVEL", "")
	t.Setenv("STAFFMAP_VERBOSE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.OwnerID != "local" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ClientStatePath != "staffmap_client.json" || cfg.Verbose {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverridesAndValidation(t *testing.T) {
	t.Setenv("STAFFMAP_HTTP_PORT", "9090")
	t.Setenv("STAFFMAP_OWNER_ID", "alice")
	t.Setenv("STAFFMAP_VERBOSE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != 9090 || cfg.OwnerID != "alice" || !cfg.Verbose {
		t.Fatalf("overrides not applied: %+v", cfg)
	}

	t.Setenv("STAFFMAP_HTTP_PORT", "not-a-port")
	if _, err := Load(); err == nil {
		t.Fatal("invalid port must be rejected")
	}
}
