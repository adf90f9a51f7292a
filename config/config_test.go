package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "PORT", "JWT_ACCESS_TTL", "REDIS_ENABLED", "AUTH_RATE_LIMIT", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.StoreDriver != "postgres" || cfg.Port != "5000" {
		t.Fatalf("defaults: driver=%q port=%q", cfg.StoreDriver, cfg.Port)
	}
	if cfg.AccessTTL != time.Hour || !cfg.RedisEnabled || cfg.AuthRateLimit != 20 {
		t.Fatalf("defaults: %+v", cfg)
	}
}

func TestLoadOverridesAndBadValues(t *testing.T) {
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("AUTH_RATE_LIMIT", "not-a-number")
	t.Setenv("AUTH_RATE_WINDOW", "soon")
	t.Setenv("AUTH_REQUIRE_CONFIRMATION", "yes please")

	cfg := Load()
	if cfg.StoreDriver != "memory" {
		t.Errorf("driver should be lower-cased, got %q", cfg.StoreDriver)
	}
	if cfg.AccessTTL != 15*time.Minute || cfg.RedisEnabled {
		t.Errorf("overrides not applied: ttl=%v redis=%v", cfg.AccessTTL, cfg.RedisEnabled)
	}
	if cfg.AuthRateLimit != 20 || cfg.AuthRateWindow != time.Minute || cfg.AuthRequireConfirmation {
		t.Errorf("bad values should fall back to defaults: %+v", cfg)
	}
}

func TestDerivedValues(t *testing.T) {
	cfg := &Config{
		DBUser: "u", DBPassword: "p", DBHost: "db", DBPort: "5432", DBName: "tasks", DBSSLMode: "disable",
		CORSAllowedOrigins: " http://a.test, ,http://b.test ",
		ElasticsearchAddrs: "",
	}
	if got, want := cfg.PostgresDSN(), "postgres://u:p@db:5432/tasks?sslmode=disable"; got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
	if got := cfg.CORSOrigins(); !reflect.DeepEqual(got, []string{"http://a.test", "http://b.test"}) {
		t.Errorf("origins = %v", got)
	}
	if got := cfg.ESAddrs(); len(got) != 0 {
		t.Errorf("es addrs = %v", got)
	}
}

func TestPostgresDSNEscapesCredentials(t *testing.T) {
	cfg := &Config{DBUser: "app", DBPassword: "p@ss/word", DBHost: "db", DBPort: "5432", DBName: "tasks", DBSSLMode: "require"}
	if got, want := cfg.PostgresDSN(), "postgres://app:p%40ss%2Fword@db:5432/tasks?sslmode=require"; got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}

func TestValidate(t *testing.T) {
	good := func() *Config {
		return &Config{
			Env: "production", JWTAccessSecret: "a", JWTRefreshSecret: "b",
			AccessTTL: time.Hour, RefreshTTL: time.Hour,
		}
	}
	if err := good().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(*Config){
		"zero ttl":       func(c *Config) { c.AccessTTL = 0 },
		"missing secret": func(c *Config) { c.JWTRefreshSecret = "" },
		"same secrets":   func(c *Config) { c.JWTRefreshSecret = c.JWTAccessSecret },
		"dev secret":     func(c *Config) { c.JWTAccessSecret = devAccessSecret },
	}
	for name, mutate := range cases {
		c := good()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	dev := good()
	dev.Env = "development"
	dev.JWTAccessSecret, dev.JWTRefreshSecret = devAccessSecret, devRefreshSecret
	if err := dev.Validate(); err != nil {
		t.Fatalf("dev secrets outside production: %v", err)
	}
}
