package main

import (
	"context"
	"flag"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/config"
	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/infrastructure/memory"
	"github.com/sngm3741/friendlyeats/api/internal/seed"
	"github.com/sngm3741/friendlyeats/api/internal/server"
)

type seedOptions struct {
	count           int
	dropCollections bool
	randomSeed      int64
	memory          bool
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := cfg.Logger

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var store application.Store
	if opts.memory {
		store = memory.New()
		logger.Info("seeding an in-memory store (dry run)")
	} else {
		mongoStore, client, err := server.OpenMongo(ctx, cfg)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to MongoDB")
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		if opts.dropCollections {
			if err := mongoStore.Drop(ctx); err != nil {
				logger.WithError(err).Fatal("failed to drop collections")
			}
			if err := mongoStore.EnsureIndexes(ctx); err != nil {
				logger.WithError(err).Fatal("failed to recreate indexes")
			}
			logger.Info("dropped existing collections")
		}
		store = mongoStore
	}

	seeder := seed.NewSeeder(
		application.NewRestaurantCommandService(store),
		application.NewRatingAggregator(store, cfg.ReviewRetry, nil, logger),
		logger,
	)

	rng := rand.New(rand.NewSource(opts.randomSeed))
	fixtures := seed.Generate(rng, opts.count, time.Now())

	result, err := seeder.Run(ctx, fixtures)
	entry := logger.WithFields(logrus.Fields{
		"restaurants": result.Restaurants,
		"reviews":     result.Reviews,
		"failed":      result.Failed,
		"seed":        opts.randomSeed,
		"db":          cfg.MongoDatabase,
	})
	if err != nil {
		entry.WithError(err).Fatal("seed finished with errors")
	}
	entry.Info("seed complete")
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.IntVar(&opts.count, "count", 20, "number of restaurants to generate")
	flag.BoolVar(&opts.dropCollections, "drop", false, "drop the restaurant and rating collections first")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "random seed, for reproducible data")
	flag.BoolVar(&opts.memory, "memory", false, "seed an in-memory store instead of MongoDB")
	flag.Parse()

	if opts.count <= 0 {
		logrus.Fatal("count must be at least 1")
	}
	return opts
}
