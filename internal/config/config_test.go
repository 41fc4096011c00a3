package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.Address != ":8080" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.JWT.Algorithm != "HS256" {
		t.Errorf("algorithm = %q", cfg.JWT.Algorithm)
	}
	if cfg.JWT.ExpiresIn.Std() != 24*time.Hour {
		t.Errorf("expires_in = %v", cfg.JWT.ExpiresIn)
	}
	if cfg.Database.Type != "postgres" {
		t.Errorf("database type = %q", cfg.Database.Type)
	}
}

func TestLoadMissingSecretFails(t *testing.T) {
	os.Unsetenv("STORERATINGS_JWT_SECRET")

	if _, err := Load(""); err == nil {
		t.Fatal("expected an error when jwt secret is unset")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STORERATINGS_JWT_SECRET", "env-secret")
	t.Setenv("STORERATINGS_SERVER_ADDRESS", ":9999")
	t.Setenv("STORERATINGS_DATABASE_TYPE", "memory")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Errorf("secret = %q", cfg.JWT.Secret)
	}
	if cfg.Server.Address != ":9999" {
		t.Errorf("address = %q", cfg.Server.Address)
	}
	if cfg.Database.Type != "memory" {
		t.Errorf("database type = %q", cfg.Database.Type)
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("STORERATINGS_JWT_SECRET", "")

	content := `
server:
  address: ":7070"
  mode: "debug"
jwt:
  secret: "file-secret"
  expires_in: 1h
database:
  type: "memory"
logging:
  level: "debug"
  development: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Address != ":7070" || cfg.Server.Mode != "debug" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.JWT.Secret != "file-secret" || cfg.JWT.ExpiresIn.Std() != time.Hour {
		t.Errorf("jwt = %+v", cfg.JWT)
	}
	if !cfg.Logging.Development {
		t.Error("development logging not picked up")
	}
	// fields absent from the file keep their defaults
	if cfg.JWT.Algorithm != "HS256" {
		t.Errorf("algorithm = %q, want default", cfg.JWT.Algorithm)
	}
}

func TestLoadUnknownDatabaseType(t *testing.T) {
	t.Setenv("STORERATINGS_JWT_SECRET", "secret")
	t.Setenv("STORERATINGS_DATABASE_TYPE", "mysql")

	if _, err := Load(""); err == nil {
		t.Fatal("expected an error for unknown database type")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}
