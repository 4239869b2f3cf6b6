package public

import (
	"time"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

type restaurantResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	City       string    `json:"city"`
	Price      int       `json:"price"`
	PriceLabel string    `json:"priceLabel"`
	Photo      string    `json:"photo"`
	AvgRating  float64   `json:"avgRating"`
	NumRatings int       `json:"numRatings"`
	Timestamp  time.Time `json:"timestamp"`
}

type restaurantListResponse struct {
	Items []restaurantResponse `json:"items"`
	Count int                  `json:"count"`
}

type reviewListResponse struct {
	Items []domain.Review `json:"items"`
	Count int             `json:"count"`
}

type submitReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

type submitReviewResponse struct {
	Status string        `json:"status"`
	Review domain.Review `json:"review"`
}

// liveMessage is one websocket frame of a live query.
type liveMessage struct {
	Type  string `json:"type"`
	Items any    `json:"items,omitempty"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

const (
	liveTypeSnapshot = "snapshot"
	liveTypeError    = "error"
)

// toRestaurantResponse は Restaurant ドメインモデルを表示用 DTO に変換する。
func toRestaurantResponse(r domain.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:         r.ID,
		Name:       r.Name,
		Category:   r.Category,
		City:       r.City,
		Price:      r.Price,
		PriceLabel: domain.EncodePriceTier(r.Price),
		Photo:      r.Photo,
		AvgRating:  r.AvgRating,
		NumRatings: r.NumRatings,
		Timestamp:  r.Timestamp,
	}
}

// toRestaurantResponses は一覧表示用に DTO をまとめて変換する。
func toRestaurantResponses(items []domain.Restaurant) []restaurantResponse {
	out := make([]restaurantResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toRestaurantResponse(r))
	}
	return out
}

func toReviewResponses(items []domain.Review) []domain.Review {
	if items == nil {
		return []domain.Review{}
	}
	return items
}
