package application

import (
	"context"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// RestaurantQueryService provides one-shot and live reads over restaurants.
type RestaurantQueryService interface {
	List(ctx context.Context, criteria domain.Criteria) ([]domain.Restaurant, error)
	Watch(ctx context.Context, criteria domain.Criteria) (*Stream[domain.Restaurant], error)
	Subscribe(ctx context.Context, criteria domain.Criteria, onUpdate func(Update[domain.Restaurant])) (Unsubscribe, error)
	Detail(ctx context.Context, id string) (*domain.Restaurant, error)
}

// RestaurantCommandService handles restaurant writes outside the rating aggregate.
type RestaurantCommandService interface {
	Create(ctx context.Context, restaurant domain.NewRestaurant) (*domain.Restaurant, error)
	UpdatePhoto(ctx context.Context, id, url string) error
}

// ReviewQueryService provides one-shot and live reads over one restaurant's reviews.
type ReviewQueryService interface {
	List(ctx context.Context, restaurantID string) ([]domain.Review, error)
	Watch(ctx context.Context, restaurantID string) (*Stream[domain.Review], error)
	Subscribe(ctx context.Context, restaurantID string, onUpdate func(Update[domain.Review])) (Unsubscribe, error)
}

// ReviewCommandService submits reviews and keeps restaurant aggregates consistent.
type ReviewCommandService interface {
	Submit(ctx context.Context, restaurantID string, review domain.NewReview) (*domain.Review, error)
}

// Metrics receives operational signals from the services. A nil Metrics is valid.
type Metrics interface {
	ReviewSubmitted(result string)
	TransactionConflict()
	SubscriptionOpened(kind string)
	SubscriptionClosed(kind string)
}

const (
	SubscriptionRestaurants = "restaurants"
	SubscriptionReviews     = "reviews"

	SubmitResultOK       = "ok"
	SubmitResultConflict = "conflict"
	SubmitResultError    = "error"
)

type noopMetrics struct{}

func (noopMetrics) ReviewSubmitted(string)    {}
func (noopMetrics) TransactionConflict()      {}
func (noopMetrics) SubscriptionOpened(string) {}
func (noopMetrics) SubscriptionClosed(string) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
