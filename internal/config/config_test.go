package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Clear environment
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.JWTSecret != DefaultJWTSecret {
		t.Errorf("JWTSecret = %q, want compiled-in default", cfg.JWTSecret)
	}
	if cfg.JWTTTLHours != 168 {
		t.Errorf("JWTTTLHours = %d, want 168", cfg.JWTTTLHours)
	}
	if cfg.BlacklistBackend != "postgres" {
		t.Errorf("BlacklistBackend = %q, want %q", cfg.BlacklistBackend, "postgres")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.TokenTTL() != 168*time.Hour {
		t.Errorf("TokenTTL = %v, want 168h", cfg.TokenTTL())
	}
	if cfg.PurgeInterval() != time.Hour {
		t.Errorf("PurgeInterval = %v, want 1h", cfg.PurgeInterval())
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("HTTP_ADDR", ":9090")
	os.Setenv("JWT_TTL_HOURS", "1")
	os.Setenv("BLACKLIST_PURGE_INTERVAL", "15m")
	os.Setenv("BCRYPT_COST", "14")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.TokenTTL() != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", cfg.TokenTTL())
	}
	if cfg.PurgeInterval() != 15*time.Minute {
		t.Errorf("PurgeInterval = %v, want 15m", cfg.PurgeInterval())
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for BCRYPT_COST out of range")
	}
}

func TestLoad_InvalidTTL(t *testing.T) {
	os.Clearenv()
	os.Setenv("JWT_TTL_HOURS", "-3")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative JWT_TTL_HOURS")
	}
}

func TestLoad_InvalidBlacklistBackend(t *testing.T) {
	os.Clearenv()
	os.Setenv("BLACKLIST_BACKEND", "memcached")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown BLACKLIST_BACKEND")
	}
}

func TestLoad_ProductionRefusesDefaultSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for default JWT_SECRET in production")
	}

	os.Setenv("JWT_SECRET", "an-actual-secret-set-by-the-operator")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with overridden secret: %v", err)
	}
	if cfg.JWTSecret == DefaultJWTSecret {
		t.Error("JWTSecret still the compiled-in default")
	}
}

func TestLoad_EmptySecretFallsBackToDefault(t *testing.T) {
	// A ".env" with "JWT_SECRET=" is set-but-empty; it must not shadow the
	// compiled-in default with an empty signing key.
	os.Clearenv()
	t.Chdir(t.TempDir())
	if err := os.WriteFile(".env", []byte("JWT_SECRET=\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTSecret != DefaultJWTSecret {
		t.Errorf("JWTSecret = %q, want compiled-in default", cfg.JWTSecret)
	}
}

func TestLoad_ProductionRefusesEmptySecret(t *testing.T) {
	os.Clearenv()
	t.Chdir(t.TempDir())
	env := "JWT_SECRET=\nAPP_ENV=production\n"
	if err := os.WriteFile(".env", []byte(env), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected error for empty JWT_SECRET in production")
	}
}

func TestPurgeInterval_InvalidFallsBack(t *testing.T) {
	cfg := &Config{BlacklistPurgeInterval: "not-a-duration"}
	if cfg.PurgeInterval() != time.Hour {
		t.Errorf("PurgeInterval = %v, want 1h fallback", cfg.PurgeInterval())
	}
}
