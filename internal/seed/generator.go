// Package seed generates demo restaurants and reviews and writes them through
// the same services the API uses, so aggregates are consistent from the first
// write.
package seed

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// MaxReviewsPerRestaurant bounds the generated reviews of one restaurant.
const MaxReviewsPerRestaurant = 5

// Fixture is one synthetic restaurant and the reviews to submit for it, in
// submission order.
type Fixture struct {
	Restaurant domain.NewRestaurant
	Reviews    []domain.NewReview
}

// Generate builds count fixtures. The same rng seed and now produce the same
// fixtures.
func Generate(rng *rand.Rand, count int, now time.Time) []Fixture {
	fixtures := make([]Fixture, 0, count)
	for i := 0; i < count; i++ {
		fixtures = append(fixtures, Fixture{
			Restaurant: randomRestaurant(rng),
			Reviews:    randomReviews(rng, now),
		})
	}
	return fixtures
}

func randomRestaurant(rng *rand.Rand) domain.NewRestaurant {
	return domain.NewRestaurant{
		Name:     fmt.Sprintf("%s %s", pick(rng, nameAdjectives), pick(rng, nameNouns)),
		Category: pick(rng, categories),
		City:     pick(rng, cities),
		Price:    domain.MinPriceTier + rng.Intn(domain.MaxPriceTier-domain.MinPriceTier+1),
		Photo:    fmt.Sprintf(photoURLFormat, 1+rng.Intn(photoCount)),
	}
}

// randomReviews returns up to MaxReviewsPerRestaurant reviews dated within the
// last 30 days, oldest first.
func randomReviews(rng *rand.Rand, now time.Time) []domain.NewReview {
	n := rng.Intn(MaxReviewsPerRestaurant + 1)
	reviews := make([]domain.NewReview, 0, n)
	for i := 0; i < n; i++ {
		rating := domain.MinRating + rng.Intn(domain.MaxRating-domain.MinRating+1)
		name := pick(rng, reviewerNames)
		reviews = append(reviews, domain.NewReview{
			Rating:    rating,
			Text:      pick(rng, reviewTexts[rating]),
			UserID:    fmt.Sprintf("seed-%s-%04d", name, rng.Intn(10000)),
			UserName:  name,
			Timestamp: now.Add(-time.Duration(rng.Int63n(int64(30 * 24 * time.Hour)))).UTC().Truncate(time.Millisecond),
		})
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].Timestamp.Before(reviews[j].Timestamp)
	})
	return reviews
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
