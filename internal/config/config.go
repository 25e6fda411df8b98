package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/gatewarden.db"

	// Logging
	LogLevel  string // debug | info | warn | error
	LogFormat string // json | console

	// Presence derivation: when true, only outcome=success events flip a
	// member's presence state.
	PresenceSuccessOnly bool

	// Device monitor sweep interval.  0 disables the monitor.
	MonitorIntervalSeconds int

	// Notification gateway.  Empty URL means notifications are discarded.
	NotifyBaseURL        string
	NotifyTimeoutSeconds int
}

func FromEnv() Config {
	env := strings.ToLower(getenvDefault("GATEWARDEN_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	return Config{
		HTTPAddr: getenvDefault("GATEWARDEN_HTTP_ADDR", ":8080"),

		Env:    env,
		DBPath: getenvDefault("GATEWARDEN_DB_PATH", "./data/gatewarden.db"),

		LogLevel:  getenvDefault("GATEWARDEN_LOG_LEVEL", "info"),
		LogFormat: getenvDefault("GATEWARDEN_LOG_FORMAT", "json"),

		PresenceSuccessOnly: getenvBool("GATEWARDEN_PRESENCE_SUCCESS_ONLY", true),

		MonitorIntervalSeconds: getenvInt("GATEWARDEN_MONITOR_INTERVAL_SECONDS", 60),

		NotifyBaseURL:        strings.TrimSpace(os.Getenv("GATEWARDEN_NOTIFY_URL")),
		NotifyTimeoutSeconds: getenvInt("GATEWARDEN_NOTIFY_TIMEOUT_SECONDS", 5),
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
