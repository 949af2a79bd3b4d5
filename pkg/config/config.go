package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Narrator NarratorConfig `yaml:"narrator"`
	Audio    AudioConfig    `yaml:"audio"`
	Request  RequestConfig  `yaml:"request"`
	Log      LogConfig      `yaml:"log"`
	DB       DBConfig       `yaml:"db"`
	Server   ServerConfig   `yaml:"server"`
}

// LLMConfig holds settings for the Gemini capability client.
type LLMConfig struct {
	Model       string            `yaml:"model"`        // text/vision model, e.g. "gemini-2.5-flash"
	SpeechModel string            `yaml:"speech_model"` // TTS model, e.g. "gemini-2.5-flash-preview-tts"
	Key         string            `yaml:"key"`          // API Key
	Profiles    map[string]string `yaml:"profiles"`     // Map of intent -> model
}

// NarratorConfig holds settings for narration generation.
type NarratorConfig struct {
	Voice          string  `yaml:"voice"`            // prebuilt voice name for speech synthesis
	MaxStoryChars  int     `yaml:"max_story_chars"`  // hard payload cap for the narration prompt
	StoryMaxWords  int     `yaml:"story_max_words"`  // target story length for research
	Temperature    float32 `yaml:"temperature"`      // generation temperature for research
	TargetLanguage string  `yaml:"target_language"`  // e.g. "en-US"
	MaxImageBytes  int64   `yaml:"max_image_bytes"`  // upload size guard
	EnrichLandmark bool    `yaml:"enrich_landmark"`  // fetch Wikipedia thumbnail after identify
}

// AudioConfig holds playback settings. The PCM sample rate is not
// configurable: it is a wire contract with the synthesis capability
// (codec.SampleRate).
type AudioConfig struct {
	Volume float64 `yaml:"volume"` // 0.0 to 1.0
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int      `yaml:"retries"`
	Timeout Duration `yaml:"timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
	Gemini   LogSettings `yaml:"gemini"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:       "gemini-2.5-flash",
			SpeechModel: "gemini-2.5-flash-preview-tts",
			Key:         "",
			Profiles: map[string]string{
				"identify": "gemini-2.5-flash",
				"research": "gemini-2.5-flash",
			},
		},
		Narrator: NarratorConfig{
			Voice:          "Kore",
			MaxStoryChars:  1000,
			StoryMaxWords:  250,
			Temperature:    1.0,
			TargetLanguage: "en-US",
			MaxImageBytes:  8 << 20,
			EnrichLandmark: true,
		},
		Audio: AudioConfig{
			Volume: 1.0,
		},
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(120 * time.Second),
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
			Gemini: LogSettings{
				Path:  "./logs/gemini.log",
				Level: "INFO",
			},
		},
		DB: DBConfig{
			Path: "./data/cicerone.db",
		},
		Server: ServerConfig{
			Address: "localhost:1889",
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		applyEnvFallbacks(cfg)
		return cfg, validate(cfg)
	}

	// File does not exist: save defaults so the user has something to edit.
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	applyEnvFallbacks(cfg)
	return cfg, validate(cfg)
}

// applyEnvFallbacks fills in secrets from the environment when the file
// leaves them empty. Never saved back to disk.
func applyEnvFallbacks(cfg *Config) {
	if cfg.LLM.Key == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			cfg.LLM.Key = key
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Audio.Volume < 0 || cfg.Audio.Volume > 1 {
		return fmt.Errorf("invalid audio volume %v: must be in [0, 1]", cfg.Audio.Volume)
	}
	if cfg.Narrator.MaxStoryChars <= 0 {
		return fmt.Errorf("invalid narrator max_story_chars %d: must be positive", cfg.Narrator.MaxStoryChars)
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Cicerone Configuration
# ----------------------
# Supported Duration units: ns, us (or µs), ms, s, m, h, d (day), w (week)
# The Gemini API key can also be supplied via the GEMINI_API_KEY env var.

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return Save(path, DefaultConfig())
}
