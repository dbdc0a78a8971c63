package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// clearEnv unsets every variable Load reads so the host environment cannot
// leak in. t.Setenv restores the previous values when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOST", "PORT", "DATABASE_PATH", "STT_PROVIDER", "STT_FALLBACK",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "WHISPER_MODEL",
		"DEEPGRAM_API_KEY", "DEEPGRAM_URL", "REDIS_URL", "SESSION_TTL",
		"JWT_SECRET", "JWT_ISSUER", "TOKEN_TTL", "MAX_AUDIO_BYTES", "DEBUG_SQL",
		"STT_RETRIES",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	t.Chdir(t.TempDir())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsWithEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load("does-not-exist.yaml")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
	assert.Equal(t, ProviderOpenAI, cfg.STT.Provider)
	assert.Equal(t, "whisper-1", cfg.STT.OpenAI.Model)
	assert.Equal(t, "sk-test", cfg.STT.OpenAI.APIKey)
	assert.Equal(t, 2, cfg.STT.Retries)
	assert.Equal(t, 500*time.Millisecond, cfg.STT.RetryBackoff)
	assert.Equal(t, 2*time.Hour, cfg.Redis.SessionTTL)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}

func TestLoad_YAMLThenEnvOverride(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
server:
  host: 127.0.0.1
  port: 8080
database:
  path: /tmp/dictation.db
  debug_sql: true
stt:
  provider: deepgram
  fallback: openai
  openai:
    api_key: sk-from-file
  deepgram:
    api_key: dg-from-file
    model: nova-2-general
    timeout: 15s
redis:
  url: redis://localhost:6379/0
  session_ttl: 30m
auth:
  jwt_secret: `+testSecret+`
`)
	t.Setenv("PORT", "9090")
	t.Setenv("DEEPGRAM_API_KEY", "dg-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/dictation.db", cfg.Database.Path)
	assert.True(t, cfg.Database.DebugSQL)
	assert.Equal(t, ProviderDeepgram, cfg.STT.Provider)
	assert.Equal(t, ProviderOpenAI, cfg.STT.Fallback)
	assert.Equal(t, "dg-from-env", cfg.STT.Deepgram.APIKey)
	assert.Equal(t, "nova-2-general", cfg.STT.Deepgram.Model)
	assert.Equal(t, 15*time.Second, cfg.STT.Deepgram.Timeout)
	assert.Equal(t, "https://api.deepgram.com", cfg.STT.Deepgram.BaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 30*time.Minute, cfg.Redis.SessionTTL)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	cwd, err := os.Getwd()
	require.NoError(t, err)
	writeFile(t, cwd, ".env", "OPENAI_API_KEY=sk-dotenv\nJWT_SECRET="+testSecret+"\nPORT=4000\n")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-dotenv", cfg.STT.OpenAI.APIKey)
	assert.Equal(t, 4000, cfg.Server.Port)
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SESSION_TTL", "forever")

	_, err := Load("")
	assert.ErrorContains(t, err, "SESSION_TTL")
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.yaml", "server: [unclosed")

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.STT.OpenAI.APIKey = "sk-test"
		cfg.Auth.Secret = testSecret
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"audio limit", func(c *Config) { c.Server.MaxAudioBytes = 0 }, "max_audio_bytes"},
		{"database", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"unknown provider", func(c *Config) { c.STT.Provider = "vosk" }, "unknown provider"},
		{"missing key", func(c *Config) { c.STT.OpenAI.APIKey = "" }, "OPENAI_API_KEY"},
		{"fallback same", func(c *Config) { c.STT.Fallback = ProviderOpenAI }, "must differ"},
		{"fallback key", func(c *Config) { c.STT.Fallback = ProviderDeepgram }, "DEEPGRAM_API_KEY"},
		{"negative retries", func(c *Config) { c.STT.Retries = -1 }, "stt.retries"},
		{"short secret", func(c *Config) { c.Auth.Secret = "short" }, "jwt_secret"},
		{"token ttl", func(c *Config) { c.Auth.TokenTTL = 0 }, "token_ttl"},
		{"session ttl", func(c *Config) { c.Redis.SessionTTL = 0 }, "session_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
