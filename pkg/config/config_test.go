package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Audio.Volume != 1.0 {
		t.Errorf("expected full default volume, got %v", cfg.Audio.Volume)
	}
	if cfg.Narrator.MaxStoryChars != 1000 {
		t.Errorf("expected 1000 max story chars, got %d", cfg.Narrator.MaxStoryChars)
	}
	if cfg.LLM.Model == "" || cfg.LLM.SpeechModel == "" {
		t.Error("default models must be set")
	}
}

func TestLoad_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cicerone.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be created: %v", err)
	}
	if cfg.Server.Address == "" {
		t.Error("expected default server address")
	}
}

func TestLoad_MergesExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cicerone.yaml")

	content := []byte("llm:\n  model: gemini-exp\nnarrator:\n  voice: Puck\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.LLM.Model != "gemini-exp" {
		t.Errorf("expected overridden model, got %s", cfg.LLM.Model)
	}
	if cfg.Narrator.Voice != "Puck" {
		t.Errorf("expected overridden voice, got %s", cfg.Narrator.Voice)
	}
	// Untouched fields keep defaults.
	if cfg.Audio.Volume != 1.0 {
		t.Errorf("expected default volume, got %v", cfg.Audio.Volume)
	}
}

func TestLoad_EnvFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cicerone.yaml")
	t.Setenv("GEMINI_API_KEY", "env-key-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.Key != "env-key-123" {
		t.Errorf("expected env fallback key, got %q", cfg.LLM.Key)
	}
}

func TestLoad_RejectsInvalidVolume(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cicerone.yaml")

	content := []byte("audio:\n  volume: 1.5\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for out-of-range volume")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"30s", 30 * time.Second},
		{"2h45m", 2*time.Hour + 45*time.Minute},
		{"1d", Day},
		{"2w", 2 * Week},
		{"1d12h", Day + 12*time.Hour},
		{"", 0},
	}

	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if err != nil {
			t.Errorf("ParseDuration(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	if _, err := ParseDuration("xyzd"); err == nil {
		t.Error("expected error for garbage input")
	}
}
