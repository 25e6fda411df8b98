package config

import "testing"

func TestFromEnv_Defaults(t *testing.T) {
	cfg := FromEnv()

	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.Env != "dev" {
		t.Errorf("Env = %q, want dev", cfg.Env)
	}
	if cfg.DBPath != "./data/gatewarden.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Errorf("logging defaults = %q/%q", cfg.LogLevel, cfg.LogFormat)
	}
	if !cfg.PresenceSuccessOnly {
		t.Error("PresenceSuccessOnly should default to true")
	}
	if cfg.MonitorIntervalSeconds != 60 {
		t.Errorf("MonitorIntervalSeconds = %d, want 60", cfg.MonitorIntervalSeconds)
	}
	if cfg.NotifyBaseURL != "" {
		t.Errorf("NotifyBaseURL = %q, want empty", cfg.NotifyBaseURL)
	}
	if cfg.NotifyTimeoutSeconds != 5 {
		t.Errorf("NotifyTimeoutSeconds = %d, want 5", cfg.NotifyTimeoutSeconds)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("GATEWARDEN_HTTP_ADDR", ":9090")
	t.Setenv("GATEWARDEN_ENV", "PROD")
	t.Setenv("GATEWARDEN_PRESENCE_SUCCESS_ONLY", "false")
	t.Setenv("GATEWARDEN_MONITOR_INTERVAL_SECONDS", "0")
	t.Setenv("GATEWARDEN_NOTIFY_URL", "  http://notify.local  ")

	cfg := FromEnv()

	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.Env != "prod" {
		t.Errorf("Env = %q, want prod (lowercased)", cfg.Env)
	}
	if cfg.PresenceSuccessOnly {
		t.Error("PresenceSuccessOnly should be false")
	}
	if cfg.MonitorIntervalSeconds != 0 {
		t.Errorf("MonitorIntervalSeconds = %d, want 0", cfg.MonitorIntervalSeconds)
	}
	if cfg.NotifyBaseURL != "http://notify.local" {
		t.Errorf("NotifyBaseURL = %q, want trimmed", cfg.NotifyBaseURL)
	}
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("GATEWARDEN_ENV", "staging")
	t.Setenv("GATEWARDEN_MONITOR_INTERVAL_SECONDS", "-5")
	t.Setenv("GATEWARDEN_NOTIFY_TIMEOUT_SECONDS", "soon")
	t.Setenv("GATEWARDEN_PRESENCE_SUCCESS_ONLY", "sometimes")

	cfg := FromEnv()

	if cfg.Env != "dev" {
		t.Errorf("Env = %q, unknown value should fall back to dev", cfg.Env)
	}
	if cfg.MonitorIntervalSeconds != 60 {
		t.Errorf("MonitorIntervalSeconds = %d, negative should fall back", cfg.MonitorIntervalSeconds)
	}
	if cfg.NotifyTimeoutSeconds != 5 {
		t.Errorf("NotifyTimeoutSeconds = %d, non-numeric should fall back", cfg.NotifyTimeoutSeconds)
	}
	if !cfg.PresenceSuccessOnly {
		t.Error("unparsable bool should fall back to default true")
	}
}

func TestGetenvHelpers(t *testing.T) {
	t.Setenv("GATEWARDEN_TEST_STR", "   ")
	if got := getenvDefault("GATEWARDEN_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("whitespace-only value should use default, got %q", got)
	}

	t.Setenv("GATEWARDEN_TEST_INT", " 42 ")
	if got := getenvInt("GATEWARDEN_TEST_INT", 7); got != 42 {
		t.Errorf("getenvInt = %d, want 42", got)
	}

	t.Setenv("GATEWARDEN_TEST_BOOL", "1")
	if got := getenvBool("GATEWARDEN_TEST_BOOL", false); !got {
		t.Error("getenvBool should parse 1 as true")
	}
}
