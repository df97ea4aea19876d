package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ADDR", "PORT", "SESSION_IDLE_TIMEOUT", "SESSION_COOKIE_SECURE",
		"ASSISTANT_PROVIDER", "ASSISTANT_MODEL", "ASSISTANT_TEMPERATURE", "ASSISTANT_MAX_OUTPUT_TOKENS",
		"GOOGLE_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL",
		"ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_BASE_URL", "ARK_REGION",
		"ASSISTANT_DEFAULT_PERSONA", "ASSISTANT_LOGO_PATH", "CHAT_EXCLUDE_FAILED_TURNS",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultsWithGeminiKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "test-key")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 2*time.Hour, cfg.Server.SessionIdleTimeout)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.Model)
	assert.Equal(t, "test-key", cfg.AI.APIKey)
	assert.Nil(t, cfg.AI.Temperature)
	assert.Nil(t, cfg.AI.MaxOutputTokens)
	assert.Equal(t, "qa", cfg.Chat.DefaultPersona)
	assert.False(t, cfg.Chat.ExcludeFailedTurns)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMissingGoogleKeyIsFatal(t *testing.T) {
	clearEnv(t)

	_, err := Load(viper.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY")
}

func TestLoadMockProviderNeedsNoKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_PROVIDER", "MOCK")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, cfg.AI.Provider)
	assert.Equal(t, "mock-model", cfg.AI.Model)
}

func TestLoadArkAcceptsAccessKeyPair(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_PROVIDER", "ark")
	t.Setenv("ASSISTANT_MODEL", "ep-123")
	t.Setenv("ARK_ACCESS_KEY", "ak")
	t.Setenv("ARK_SECRET_KEY", "sk")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "cn-beijing", cfg.AI.Region)
	assert.Equal(t, "ak", cfg.AI.AccessKey)
}

func TestLoadArkRequiresModel(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_PROVIDER", "ark")
	t.Setenv("ARK_API_KEY", "key")

	_, err := Load(viper.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSISTANT_MODEL")
}

func TestLoadUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_PROVIDER", "bard")

	_, err := Load(viper.New())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMissingAPIKey))
}

func TestLoadGenerationOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_PROVIDER", "mock")
	t.Setenv("ASSISTANT_TEMPERATURE", "0.2")
	t.Setenv("ASSISTANT_MAX_OUTPUT_TOKENS", "64")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	require.NotNil(t, cfg.AI.Temperature)
	assert.InDelta(t, 0.2, *cfg.AI.Temperature, 1e-6)
	require.NotNil(t, cfg.AI.MaxOutputTokens)
	assert.Equal(t, int32(64), *cfg.AI.MaxOutputTokens)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"ASSISTANT_TEMPERATURE":       "warm",
		"ASSISTANT_MAX_OUTPUT_TOKENS": "0",
		"SESSION_IDLE_TIMEOUT":        "soon",
		"CHAT_EXCLUDE_FAILED_TURNS":   "maybe",
		"PORT":                        "80 80",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ASSISTANT_PROVIDER", "mock")
			t.Setenv(key, value)

			_, err := Load(viper.New())
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoadAddrPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_PROVIDER", "mock")
	t.Setenv("PORT", "9000")

	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)

	t.Setenv("ADDR", "127.0.0.1:7000")
	cfg, err = Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Addr)
}

func TestNewChatModelRejectsOtherProviders(t *testing.T) {
	_, err := AIConfig{Provider: ProviderGemini, APIKey: "k", Model: "m"}.NewChatModel(t.Context())
	require.Error(t, err)
}
