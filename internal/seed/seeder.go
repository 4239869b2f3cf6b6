package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

// Result summarizes a seeding run.
type Result struct {
	Restaurants int
	Reviews     int
	Failed      int
}

// Seeder writes fixtures through the restaurant and review services.
type Seeder struct {
	restaurants application.RestaurantCommandService
	reviews     application.ReviewCommandService
	logger      logrus.FieldLogger
}

// NewSeeder creates a Seeder.
func NewSeeder(restaurants application.RestaurantCommandService, reviews application.ReviewCommandService, logger logrus.FieldLogger) *Seeder {
	return &Seeder{restaurants: restaurants, reviews: reviews, logger: logger}
}

// Run creates every restaurant with empty aggregates and then submits its
// reviews one by one through the rating aggregator. A failing fixture is
// skipped; all failures are returned together once the run ends.
func (s *Seeder) Run(ctx context.Context, fixtures []Fixture) (Result, error) {
	var (
		result Result
		errs   []error
	)
	for i, fixture := range fixtures {
		if err := ctx.Err(); err != nil {
			return result, errors.Join(append(errs, err)...)
		}

		restaurant, err := s.restaurants.Create(ctx, fixture.Restaurant)
		if err != nil {
			result.Failed++
			errs = append(errs, fmt.Errorf("fixture %d (%s): %w", i, fixture.Restaurant.Name, err))
			s.logger.WithError(err).WithField("fixture", i).Warn("failed to create restaurant")
			continue
		}
		result.Restaurants++

		for _, review := range fixture.Reviews {
			if _, err := s.reviews.Submit(ctx, restaurant.ID, review); err != nil {
				result.Failed++
				errs = append(errs, fmt.Errorf("review for %s: %w", restaurant.ID, err))
				s.logger.WithError(err).WithField("restaurant_id", restaurant.ID).Warn("failed to submit review")
				continue
			}
			result.Reviews++
		}
		s.logger.WithFields(logrus.Fields{
			"restaurant_id": restaurant.ID,
			"name":          restaurant.Name,
			"reviews":       len(fixture.Reviews),
		}).Debug("seeded restaurant")
	}
	return result, errors.Join(errs...)
}
