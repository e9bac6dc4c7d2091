package config

import (
	"testing"
	"time"
)

func TestEnvOr_ReturnsEnvValueWhenSet(t *testing.T) {
	t.Setenv("UMBRASOL_TEST_STR", "custom")
	if got := envOr("UMBRASOL_TEST_STR", "default"); got != "custom" {
		t.Errorf("envOr = %q, want custom", got)
	}
}

func TestEnvOr_ReturnsDefaultWhenUnset(t *testing.T) {
	if got := envOr("UMBRASOL_TEST_UNSET_STR", "default"); got != "default" {
		t.Errorf("envOr = %q, want default", got)
	}
}

func TestEnvInt_ParsesValidInt(t *testing.T) {
	t.Setenv("UMBRASOL_TEST_INT", "7")
	if got := envInt("UMBRASOL_TEST_INT", 1); got != 7 {
		t.Errorf("envInt = %d, want 7", got)
	}
}

func TestEnvInt_FallsBackOnMalformedValue(t *testing.T) {
	t.Setenv("UMBRASOL_TEST_INT_BAD", "not-a-number")
	if got := envInt("UMBRASOL_TEST_INT_BAD", 5); got != 5 {
		t.Errorf("envInt = %d, want fallback 5", got)
	}
}

func TestEnvDuration_ParsesSeconds(t *testing.T) {
	t.Setenv("UMBRASOL_TEST_DUR", "45")
	if got := envDuration("UMBRASOL_TEST_DUR", time.Second); got != 45*time.Second {
		t.Errorf("envDuration = %v, want 45s", got)
	}
}

func TestEnvDuration_FallsBackWhenUnset(t *testing.T) {
	if got := envDuration("UMBRASOL_TEST_DUR_UNSET", 10*time.Second); got != 10*time.Second {
		t.Errorf("envDuration = %v, want default 10s", got)
	}
}

func TestLoad_FillsDefaultsAndCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UMBRASOL_CACHE_DIR", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SystemName != defaultSystemName {
		t.Errorf("SystemName = %q, want %q", cfg.SystemName, defaultSystemName)
	}
	if cfg.MaxRetries != defaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.MaxRetries, defaultMaxRetries)
	}
}
