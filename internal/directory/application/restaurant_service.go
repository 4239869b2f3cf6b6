package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// restaurantQueryService is the concrete implementation of RestaurantQueryService.
type restaurantQueryService struct {
	store   Store
	metrics Metrics
}

// NewRestaurantQueryService creates a restaurant reader over store.
func NewRestaurantQueryService(store Store, metrics Metrics) RestaurantQueryService {
	return &restaurantQueryService{store: store, metrics: metricsOrNoop(metrics)}
}

func (s *restaurantQueryService) List(ctx context.Context, criteria domain.Criteria) ([]domain.Restaurant, error) {
	q, err := CompileRestaurantQuery(NewQuery(Restaurants()), criteria)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return projectRestaurants(docs)
}

func (s *restaurantQueryService) Watch(ctx context.Context, criteria domain.Criteria) (*Stream[domain.Restaurant], error) {
	q, err := CompileRestaurantQuery(NewQuery(Restaurants()), criteria)
	if err != nil {
		return nil, err
	}
	listener, err := s.store.Listen(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listen restaurants: %w", err)
	}
	s.metrics.SubscriptionOpened(SubscriptionRestaurants)
	return newStream(ctx, listener, projectRestaurants, func() {
		s.metrics.SubscriptionClosed(SubscriptionRestaurants)
	}), nil
}

func (s *restaurantQueryService) Subscribe(ctx context.Context, criteria domain.Criteria, onUpdate func(Update[domain.Restaurant])) (Unsubscribe, error) {
	if onUpdate == nil {
		return nil, domain.InvalidArgument("onUpdate callback is required")
	}
	stream, err := s.Watch(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return subscribe(stream, onUpdate), nil
}

func (s *restaurantQueryService) Detail(ctx context.Context, id string) (*domain.Restaurant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.InvalidArgument("restaurant id is required")
	}
	doc, err := s.store.Get(ctx, Restaurants().Doc(id))
	if err != nil {
		return nil, fmt.Errorf("get restaurant %s: %w", id, err)
	}
	restaurant, err := ProjectRestaurant(doc)
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

func projectRestaurants(docs []RawDocument) ([]domain.Restaurant, error) {
	restaurants := make([]domain.Restaurant, 0, len(docs))
	for _, doc := range docs {
		restaurant, err := ProjectRestaurant(doc)
		if err != nil {
			return nil, err
		}
		restaurants = append(restaurants, restaurant)
	}
	return restaurants, nil
}

type restaurantCommandService struct {
	store Store
	now   func() time.Time
}

// NewRestaurantCommandService creates the restaurant writer.
func NewRestaurantCommandService(store Store) RestaurantCommandService {
	return &restaurantCommandService{store: store, now: time.Now}
}

// Create stores a new restaurant. Aggregates always start at zero; they only
// change through ReviewCommandService.
func (s *restaurantCommandService) Create(ctx context.Context, in domain.NewRestaurant) (*domain.Restaurant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	restaurant := domain.Restaurant{
		Name:       strings.TrimSpace(in.Name),
		Category:   strings.TrimSpace(in.Category),
		City:       strings.TrimSpace(in.City),
		Price:      in.Price,
		Photo:      strings.TrimSpace(in.Photo),
		AvgRating:  0,
		NumRatings: 0,
		Timestamp:  s.now().UTC().Truncate(time.Millisecond),
	}
	ref, err := s.store.Create(ctx, Restaurants(), map[string]any{
		FieldName:       restaurant.Name,
		FieldCategory:   restaurant.Category,
		FieldCity:       restaurant.City,
		FieldPrice:      restaurant.Price,
		FieldPhoto:      restaurant.Photo,
		FieldAvgRating:  restaurant.AvgRating,
		FieldNumRatings: restaurant.NumRatings,
		FieldTimestamp:  restaurant.Timestamp,
	})
	if err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}
	restaurant.ID = ref.ID
	return &restaurant, nil
}

// UpdatePhoto overwrites the photo field. An empty id cannot address a document,
// so the call is a no-op; any other id is always written.
func (s *restaurantCommandService) UpdatePhoto(ctx context.Context, id, url string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	if err := s.store.Update(ctx, Restaurants().Doc(id), map[string]any{FieldPhoto: url}); err != nil {
		return fmt.Errorf("update photo of restaurant %s: %w", id, err)
	}
	return nil
}
