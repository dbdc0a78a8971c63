// Package config loads server configuration from a YAML file, a .env file and
// the process environment.
//
// Precedence (highest to lowest): environment variables, YAML file, defaults.
// Values from .env are loaded into the environment first and therefore act as
// environment variables unless the variable is already set.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider names accepted for stt.provider and stt.fallback.
const (
	ProviderOpenAI   = "openai"
	ProviderDeepgram = "deepgram"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	STT      STTConfig      `yaml:"stt"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	MaxAudioBytes int    `yaml:"max_audio_bytes"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path     string `yaml:"path"`
	DebugSQL bool   `yaml:"debug_sql"`
}

// STTConfig selects and configures the speech-to-text providers.
type STTConfig struct {
	Provider string         `yaml:"provider"`
	Fallback string         `yaml:"fallback"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Deepgram DeepgramConfig `yaml:"deepgram"`

	// Retries is how often a transient provider error is retried before
	// the fallback is tried.
	Retries      int           `yaml:"retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// OpenAIConfig configures the Whisper client.
type OpenAIConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// DeepgramConfig configures the Deepgram client.
type DeepgramConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig configures the session transcript cache. An empty URL selects
// the in-process cache.
type RedisConfig struct {
	URL        string        `yaml:"url"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// AuthConfig configures access tokens.
type AuthConfig struct {
	Secret   string        `yaml:"jwt_secret"`
	Issuer   string        `yaml:"jwt_issuer"`
	TokenTTL time.Duration `yaml:"token_ttl"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          3000,
			MaxAudioBytes: 25 << 20,
		},
		Database: DatabaseConfig{
			Path: "voice-keyboard.db",
		},
		STT: STTConfig{
			Provider:     ProviderOpenAI,
			Retries:      2,
			RetryBackoff: 500 * time.Millisecond,

			OpenAI: OpenAIConfig{
				Model:   "whisper-1",
				Timeout: 60 * time.Second,
			},
			Deepgram: DeepgramConfig{
				BaseURL: "https://api.deepgram.com",
				Model:   "nova-2",
				Timeout: 60 * time.Second,
			},
		},
		Redis: RedisConfig{
			SessionTTL: 2 * time.Hour,
		},
		Auth: AuthConfig{
			Issuer:   "voice-keyboard",
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Load builds the configuration. A missing .env or YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Host, "HOST")
	setString(&c.Database.Path, "DATABASE_PATH")
	setString(&c.STT.Provider, "STT_PROVIDER")
	setString(&c.STT.Fallback, "STT_FALLBACK")
	setString(&c.STT.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&c.STT.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&c.STT.OpenAI.Model, "WHISPER_MODEL")
	setString(&c.STT.Deepgram.APIKey, "DEEPGRAM_API_KEY")
	setString(&c.STT.Deepgram.BaseURL, "DEEPGRAM_URL")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Auth.Secret, "JWT_SECRET")
	setString(&c.Auth.Issuer, "JWT_ISSUER")

	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Server.MaxAudioBytes, "MAX_AUDIO_BYTES"); err != nil {
		return err
	}
	if err := setInt(&c.STT.Retries, "STT_RETRIES"); err != nil {
		return err
	}
	if err := setDuration(&c.Redis.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.Auth.TokenTTL, "TOKEN_TTL"); err != nil {
		return err
	}
	if v, ok := lookup("DEBUG_SQL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DEBUG_SQL: %w", err)
		}
		c.Database.DebugSQL = b
	}
	return nil
}

// Validate checks Config for validity.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxAudioBytes <= 0 {
		return fmt.Errorf("server.max_audio_bytes must be positive, got %d", c.Server.MaxAudioBytes)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if err := c.validateProvider("stt.provider", c.STT.Provider); err != nil {
		return err
	}
	if c.STT.Fallback != "" {
		if c.STT.Fallback == c.STT.Provider {
			return fmt.Errorf("stt.fallback must differ from stt.provider (%s)", c.STT.Provider)
		}
		if err := c.validateProvider("stt.fallback", c.STT.Fallback); err != nil {
			return err
		}
	}

	if c.STT.Retries < 0 {
		return fmt.Errorf("stt.retries must not be negative, got %d", c.STT.Retries)
	}

	if len(c.Auth.Secret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Redis.SessionTTL <= 0 {
		return fmt.Errorf("redis.session_ttl must be positive")
	}
	return nil
}

func (c *Config) validateProvider(field, name string) error {
	switch name {
	case ProviderOpenAI:
		if c.STT.OpenAI.APIKey == "" {
			return fmt.Errorf("%s is %q but OPENAI_API_KEY is not set", field, name)
		}
	case ProviderDeepgram:
		if c.STT.Deepgram.APIKey == "" {
			return fmt.Errorf("%s is %q but DEEPGRAM_API_KEY is not set", field, name)
		}
	default:
		return fmt.Errorf("%s: unknown provider %q", field, name)
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
