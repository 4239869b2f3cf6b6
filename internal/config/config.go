package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendMongo  = "mongo"
	BackendMemory = "memory"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                 string
	Backend              string
	MongoURI             string
	MongoDatabase        string
	RestaurantCollection string
	RatingCollection     string
	Timeout              time.Duration
	Logger               *logrus.Logger
	JWTConfigs           []JWTConfig
	JWTAudience          string
	AllowedOrigins       []string
	ReviewRetry          application.RetryPolicy
	RedisAddr            string
	RedisPassword        string
	ReviewRateLimit      int
	ReviewRateWindow     time.Duration
}

// AuthEnabled reports whether write endpoints can verify tokens.
func (c Config) AuthEnabled() bool {
	return len(c.JWTConfigs) > 0
}

// Load reads an optional .env file and the environment and returns a fully
// populated Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(envOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)

	backend := strings.ToLower(envOrDefault("STORE_BACKEND", BackendMongo))
	if backend != BackendMongo && backend != BackendMemory {
		return Config{}, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendMongo, BackendMemory, backend)
	}

	timeout, err := parseDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}

	retry := application.DefaultRetryPolicy()
	if retry.MaxRetries, err = parseInt("REVIEW_TX_MAX_RETRIES", retry.MaxRetries); err != nil {
		return Config{}, err
	}
	if retry.MaxElapsedTime, err = parseDuration("REVIEW_TX_MAX_ELAPSED", retry.MaxElapsedTime); err != nil {
		return Config{}, err
	}

	rateLimit, err := parseInt("REVIEW_RATE_LIMIT", 5)
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration("REVIEW_RATE_WINDOW", time.Minute)
	if err != nil {
		return Config{}, err
	}

	var jwtConfigs []JWTConfig
	if secret := strings.TrimSpace(os.Getenv("AUTH_JWT_SECRET")); secret != "" {
		jwtConfigs = append(jwtConfigs, JWTConfig{
			Issuer: envOrDefault("AUTH_JWT_ISSUER", "friendlyeats-auth"),
			Secret: []byte(secret),
		})
	}

	cfg := Config{
		Addr:                 envOrDefault("HTTP_ADDR", ":8080"),
		Backend:              backend,
		MongoURI:             envOrDefault("MONGO_URI", "mongodb://mongo:27017/?replicaSet=rs0"),
		MongoDatabase:        envOrDefault("MONGO_DB", "friendlyeats"),
		RestaurantCollection: envOrDefault("RESTAURANT_COLLECTION", application.CollectionRestaurants),
		RatingCollection:     envOrDefault("RATING_COLLECTION", application.CollectionRatings),
		Timeout:              timeout,
		Logger:               logger,
		JWTConfigs:           jwtConfigs,
		JWTAudience:          strings.TrimSpace(os.Getenv("AUTH_JWT_AUDIENCE")),
		AllowedOrigins:       parseList("API_ALLOWED_ORIGINS", []string{"*"}),
		ReviewRetry:          retry,
		RedisAddr:            strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		ReviewRateLimit:      rateLimit,
		ReviewRateWindow:     rateWindow,
	}

	logger.WithFields(logrus.Fields{
		"backend":      cfg.Backend,
		"db":           cfg.MongoDatabase,
		"auth_enabled": cfg.AuthEnabled(),
		"rate_limited": cfg.RedisAddr != "",
	}).Info("loaded config")

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func parseInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func parseList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			values = append(values, part)
		}
	}

	if len(values) == 0 {
		return fallback
	}
	return values
}
