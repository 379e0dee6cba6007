package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9091", cfg.MetricsPort)
	assert.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	assert.Equal(t, "tts-1", cfg.SpeechModel)
	assert.Equal(t, 5*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 3, cfg.GenerateBurst)
	assert.False(t, cfg.Development)
	assert.False(t, cfg.TelegramBotEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envFrom(map[string]string{
		"PORT":                 "9090",
		"BASE_URL":             "https://podnplay.example/",
		"APP_ENV":              "development",
		"TELEGRAM_BOT_ENABLED": "true",
		"SEARCH_TIMEOUT":       "750ms",
		"GENERATE_RATE":        "1.5",
		"GENERATE_BURST":       "10",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://podnplay.example", cfg.BaseURL)
	assert.True(t, cfg.Development)
	assert.True(t, cfg.TelegramBotEnabled)
	assert.Equal(t, 750*time.Millisecond, cfg.SearchTimeout)
	assert.Equal(t, 1.5, cfg.GenerateRate)
	assert.Equal(t, 10, cfg.GenerateBurst)
}

func TestFromEnvInvalidValues(t *testing.T) {
	_, err := FromEnv(envFrom(map[string]string{
		"SEARCH_TIMEOUT": "soon",
		"GENERATE_BURST": "many",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEARCH_TIMEOUT")
	assert.Contains(t, err.Error(), "GENERATE_BURST")
}

func TestValidateServer(t *testing.T) {
	cfg, err := FromEnv(envFrom(nil))
	require.NoError(t, err)

	err = cfg.ValidateServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	cfg.DatabaseURL = "postgres://localhost/podnplay"
	cfg.TelegramBotToken = "token"
	cfg.OpenAIKey = "sk-test"
	assert.NoError(t, cfg.ValidateServer())
	assert.NoError(t, cfg.ValidateWorker())
}
