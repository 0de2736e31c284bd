package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.DB.Host != "localhost" {
		t.Errorf("DB.Host = %q, want localhost", cfg.DB.Host)
	}
	if cfg.DB.Port != 5432 {
		t.Errorf("DB.Port = %d, want 5432", cfg.DB.Port)
	}
	if cfg.Search.FuzzyMinScore != 0.1 {
		t.Errorf("FuzzyMinScore = %g, want 0.1", cfg.Search.FuzzyMinScore)
	}
	if cfg.Search.SemanticMinScore != 0.3 {
		t.Errorf("SemanticMinScore = %g, want 0.3", cfg.Search.SemanticMinScore)
	}
	if cfg.OpTimeout != 10*time.Second {
		t.Errorf("OpTimeout = %s, want 10s", cfg.OpTimeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PG_HOST", "db.internal")
	t.Setenv("PG_PORT", "6432")
	t.Setenv("SEARCH_SEMANTIC_MIN_SCORE", "0.5")
	t.Setenv("FINTRACK_OP_TIMEOUT", "3s")

	cfg := Load()

	if cfg.DB.Host != "db.internal" {
		t.Errorf("DB.Host = %q, want db.internal", cfg.DB.Host)
	}
	if cfg.DB.Port != 6432 {
		t.Errorf("DB.Port = %d, want 6432", cfg.DB.Port)
	}
	if cfg.Search.SemanticMinScore != 0.5 {
		t.Errorf("SemanticMinScore = %g, want 0.5", cfg.Search.SemanticMinScore)
	}
	if cfg.OpTimeout != 3*time.Second {
		t.Errorf("OpTimeout = %s, want 3s", cfg.OpTimeout)
	}
}

func TestEnvBadValuesFallBack(t *testing.T) {
	t.Setenv("PG_PORT", "not-a-port")
	t.Setenv("SEARCH_FUZZY_MIN_SCORE", "high")

	cfg := Load()

	if cfg.DB.Port != 5432 {
		t.Errorf("DB.Port = %d, want default 5432", cfg.DB.Port)
	}
	if cfg.Search.FuzzyMinScore != 0.1 {
		t.Errorf("FuzzyMinScore = %g, want default 0.1", cfg.Search.FuzzyMinScore)
	}
}

func TestDSN(t *testing.T) {
	db := DBConfig{Host: "h", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "require"}
	want := "host=h port=5432 user=u password=p dbname=d sslmode=require"
	if got := db.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
