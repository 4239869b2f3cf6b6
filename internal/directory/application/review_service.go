package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// reviewQueryService implements ReviewQueryService.
type reviewQueryService struct {
	store   Store
	metrics Metrics
}

// NewReviewQueryService creates a review reader over store.
func NewReviewQueryService(store Store, metrics Metrics) ReviewQueryService {
	return &reviewQueryService{store: store, metrics: metricsOrNoop(metrics)}
}

func (s *reviewQueryService) List(ctx context.Context, restaurantID string) ([]domain.Review, error) {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return nil, domain.InvalidArgument("restaurant id is required")
	}
	docs, err := s.store.Query(ctx, reviewQuery(restaurantID))
	if err != nil {
		return nil, fmt.Errorf("list reviews of %s: %w", restaurantID, err)
	}
	return projectReviews(restaurantID)(docs)
}

func (s *reviewQueryService) Watch(ctx context.Context, restaurantID string) (*Stream[domain.Review], error) {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return nil, domain.InvalidArgument("restaurant id is required")
	}
	listener, err := s.store.Listen(ctx, reviewQuery(restaurantID))
	if err != nil {
		return nil, fmt.Errorf("listen reviews of %s: %w", restaurantID, err)
	}
	s.metrics.SubscriptionOpened(SubscriptionReviews)
	return newStream(ctx, listener, projectReviews(restaurantID), func() {
		s.metrics.SubscriptionClosed(SubscriptionReviews)
	}), nil
}

func (s *reviewQueryService) Subscribe(ctx context.Context, restaurantID string, onUpdate func(Update[domain.Review])) (Unsubscribe, error) {
	if onUpdate == nil {
		return nil, domain.InvalidArgument("onUpdate callback is required")
	}
	stream, err := s.Watch(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	return subscribe(stream, onUpdate), nil
}

func projectReviews(restaurantID string) func([]RawDocument) ([]domain.Review, error) {
	return func(docs []RawDocument) ([]domain.Review, error) {
		reviews := make([]domain.Review, 0, len(docs))
		for _, doc := range docs {
			review, err := ProjectReview(restaurantID, doc)
			if err != nil {
				return nil, err
			}
			reviews = append(reviews, review)
		}
		return reviews, nil
	}
}
