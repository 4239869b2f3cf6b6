package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HTTP_ADDR", "STORE_BACKEND", "MONGO_URI", "MONGO_DB", "MONGO_CONNECT_TIMEOUT",
		"RESTAURANT_COLLECTION", "RATING_COLLECTION", "AUTH_JWT_SECRET", "AUTH_JWT_ISSUER",
		"AUTH_JWT_AUDIENCE", "API_ALLOWED_ORIGINS", "REVIEW_TX_MAX_RETRIES", "REVIEW_TX_MAX_ELAPSED",
		"REDIS_ADDR", "REDIS_PASSWORD", "REVIEW_RATE_LIMIT", "REVIEW_RATE_WINDOW", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, BackendMongo, cfg.Backend)
	assert.Equal(t, "friendlyeats", cfg.MongoDatabase)
	assert.Equal(t, "restaurants", cfg.RestaurantCollection)
	assert.Equal(t, "ratings", cfg.RatingCollection)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 10, cfg.ReviewRetry.MaxRetries)
	assert.Equal(t, 5, cfg.ReviewRateLimit)
	assert.Equal(t, time.Minute, cfg.ReviewRateWindow)
	assert.Equal(t, logrus.InfoLevel, cfg.Logger.GetLevel())
	assert.False(t, cfg.AuthEnabled())
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_BACKEND", "Memory")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("API_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("REVIEW_TX_MAX_RETRIES", "3")
	t.Setenv("REVIEW_TX_MAX_ELAPSED", "750ms")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Backend)
	require.True(t, cfg.AuthEnabled())
	assert.Equal(t, "friendlyeats-auth", cfg.JWTConfigs[0].Issuer)
	assert.Equal(t, []byte("s3cret"), cfg.JWTConfigs[0].Secret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3, cfg.ReviewRetry.MaxRetries)
	assert.Equal(t, 750*time.Millisecond, cfg.ReviewRetry.MaxElapsedTime)
	assert.Equal(t, logrus.DebugLevel, cfg.Logger.GetLevel())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"STORE_BACKEND":         "postgres",
		"MONGO_CONNECT_TIMEOUT": "soon",
		"REVIEW_TX_MAX_RETRIES": "many",
		"REVIEW_RATE_WINDOW":    "1 minute",
		"LOG_LEVEL":             "chatty",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
