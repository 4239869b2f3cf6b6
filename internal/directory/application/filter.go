package application

import (
	"strings"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// CompileRestaurantQuery appends the predicates described by c to base.
//
// Predicates are added in a fixed order: category, city, price. Empty criteria
// fields add nothing. Exactly one ordering clause is appended afterwards:
// numRatings desc for SortByReview, avgRating desc otherwise.
// The price token is decoded with domain.DecodePriceTier and compared by
// equality against the stored ordinal tier.
func CompileRestaurantQuery(base Query, c domain.Criteria) (Query, error) {
	q := base

	if category := strings.TrimSpace(c.Category); category != "" {
		q = q.Where(FieldCategory, category)
	}
	if city := strings.TrimSpace(c.City); city != "" {
		q = q.Where(FieldCity, city)
	}
	if strings.TrimSpace(c.Price) != "" {
		tier, err := domain.DecodePriceTier(c.Price)
		if err != nil {
			return Query{}, err
		}
		q = q.Where(FieldPrice, tier)
	}

	if c.Sort == domain.SortByReview {
		q = q.OrderBy(FieldNumRatings, Descending)
	} else {
		q = q.OrderBy(FieldAvgRating, Descending)
	}

	if c.Limit > 0 {
		q = q.WithLimit(c.Limit)
	}
	return q, nil
}

// reviewQuery lists the reviews of one restaurant, newest first. It is not
// affected by any caller criteria.
func reviewQuery(restaurantID string) Query {
	return NewQuery(RatingsOf(restaurantID)).OrderBy(FieldTimestamp, Descending)
}
