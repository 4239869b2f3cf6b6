package server

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/friendlyeats/api/internal/config"
	"github.com/sngm3741/friendlyeats/api/internal/infrastructure/memory"
	mongostore "github.com/sngm3741/friendlyeats/api/internal/infrastructure/mongo"
	redisstore "github.com/sngm3741/friendlyeats/api/internal/infrastructure/redis"
)

const reviewRateLimitPrefix = "friendlyeats:ratelimit:reviews"

// Open connects the store backend selected by cfg and, when configured, the
// Redis rate limiter.
func Open(ctx context.Context, cfg config.Config) (Deps, error) {
	var deps Deps

	switch cfg.Backend {
	case config.BackendMemory:
		deps.Store = memory.New()
		cfg.Logger.Warn("using the in-memory store, data is lost on restart")
	default:
		store, client, err := OpenMongo(ctx, cfg)
		if err != nil {
			return Deps{}, err
		}
		deps.Store = store
		deps.Pinger = store
		deps.Closers = append(deps.Closers, client.Disconnect)
	}

	if cfg.RedisAddr != "" {
		client, err := redisstore.NewClient(ctx, redisstore.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			closeAll(ctx, deps)
			return Deps{}, err
		}
		deps.RateLimiter = redisstore.NewLimiter(client, reviewRateLimitPrefix, cfg.ReviewRateLimit, cfg.ReviewRateWindow)
		deps.Closers = append(deps.Closers, func(context.Context) error { return client.Close() })
	}
	return deps, nil
}

// OpenMongo connects to MongoDB and makes sure the directory indexes exist.
func OpenMongo(ctx context.Context, cfg config.Config) (*mongostore.Store, *mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	store := mongostore.NewStore(client.Database(cfg.MongoDatabase), mongostore.Collections{
		Restaurants: cfg.RestaurantCollection,
		Ratings:     cfg.RatingCollection,
	})
	if err := store.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return store, client, nil
}

func closeAll(ctx context.Context, deps Deps) {
	for _, closeFn := range deps.Closers {
		_ = closeFn(ctx)
	}
}
