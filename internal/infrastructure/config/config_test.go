package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if cfg.Auth.Issuer != "library-system" || cfg.Auth.TokenTTL != 30*time.Minute || cfg.Auth.BcryptCost != 10 {
		t.Fatalf("unexpected auth defaults: %+v", cfg.Auth)
	}
	if cfg.Store.Driver != DriverSQLite || cfg.Store.SQLitePath != "library.db" {
		t.Fatalf("unexpected store defaults: %+v", cfg.Store)
	}
	if cfg.RevocationEnabled() {
		t.Fatalf("revocation should be off without REDIS_ADDR")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with a secret should validate: %v", err)
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":         "s3cret",
		"TOKEN_TTL":          "5m",
		"STORE_DRIVER":       " Postgres ",
		"POSTGRES_DSN":       "postgres://localhost/library",
		"POSTGRES_MAX_CONNS": "16",
		"REDIS_ADDR":         "localhost:6379",
		"ENV":                "production",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Store.Driver != DriverPostgres || cfg.Postgres.MaxConns != 16 {
		t.Fatalf("unexpected store config: %+v %+v", cfg.Store, cfg.Postgres)
	}
	if cfg.Auth.TokenTTL != 5*time.Minute {
		t.Fatalf("expected 5m ttl, got %v", cfg.Auth.TokenTTL)
	}
	if !cfg.RevocationEnabled() || cfg.IsDevelopment() {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadFrom_BadDuration(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"TOKEN_TTL": "soon",
	}))
	if err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"STORE_DRIVER": "mongo",
		"BCRYPT_COST":  "2",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	err = cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"JWT_SECRET", "BCRYPT_COST", "MONGO_URI"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg, _ := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":   "x",
		"STORE_DRIVER": "cassandra",
	}))
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "cassandra") {
		t.Fatalf("expected unknown driver error, got %v", err)
	}
}
