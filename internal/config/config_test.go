package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MNEMOSYNE_AUTH_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.API.ListenAddr != ":8080" {
		t.Errorf("expected default listen addr ':8080', got '%s'", cfg.API.ListenAddr)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("expected default DB port 5432, got %d", cfg.Database.Port)
	}
	if cfg.Playback.SaveInterval != 5*time.Second {
		t.Errorf("expected default save interval 5s, got %v", cfg.Playback.SaveInterval)
	}
	if cfg.Playback.CompletionThreshold != 0.9 {
		t.Errorf("expected default completion threshold 0.9, got %v", cfg.Playback.CompletionThreshold)
	}
	if cfg.Retention.Enabled {
		t.Error("expected retention disabled by default")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("MNEMOSYNE_AUTH_ENABLED", "false")
	t.Setenv("MNEMOSYNE_API_LISTEN_ADDR", ":9999")
	t.Setenv("MNEMOSYNE_PLAYBACK_SAVE_INTERVAL", "10s")
	t.Setenv("MNEMOSYNE_PLAYBACK_COMPLETION_THRESHOLD", "0.95")
	t.Setenv("MNEMOSYNE_API_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.API.ListenAddr != ":9999" {
		t.Errorf("expected listen addr ':9999', got '%s'", cfg.API.ListenAddr)
	}
	if cfg.Playback.SaveInterval != 10*time.Second {
		t.Errorf("expected save interval 10s, got %v", cfg.Playback.SaveInterval)
	}
	if cfg.Playback.CompletionThreshold != 0.95 {
		t.Errorf("expected completion threshold 0.95, got %v", cfg.Playback.CompletionThreshold)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected CORS origins: %v", cfg.API.CORSOrigins)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("MNEMOSYNE_AUTH_ENABLED", "true")
	t.Setenv("MNEMOSYNE_AUTH_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("expected error when auth enabled without JWT secret")
	}
}

func TestValidateCompletionThreshold(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		wantErr   bool
	}{
		{"zero", 0, true},
		{"negative", -0.5, true},
		{"above one", 1.5, true},
		{"ninety percent", 0.9, false},
		{"exactly one", 1.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Playback: PlaybackConfig{
					SaveInterval:        5 * time.Second,
					CompletionThreshold: tt.threshold,
				},
			}
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		Name:     "checkpoints",
		User:     "svc",
		Password: "secret",
		SSLMode:  "require",
	}

	want := "host=db.internal port=5433 dbname=checkpoints user=svc password=secret sslmode=require"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
