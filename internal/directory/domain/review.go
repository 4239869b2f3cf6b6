package domain

import "time"

// Review is a single rating left on a restaurant.
type Review struct {
	ID           string    `json:"id"`
	RestaurantID string    `json:"restaurantId"`
	Rating       int       `json:"rating"`
	Text         string    `json:"text"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewReview is the payload of a review submission.
type NewReview struct {
	Rating   int
	Text     string
	UserID   string
	UserName string
	// Timestamp defaults to the submission time when zero.
	Timestamp time.Time
}
