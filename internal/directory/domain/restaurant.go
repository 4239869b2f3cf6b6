package domain

import "time"

// Restaurant represents a publicly listed restaurant.
// AvgRating and NumRatings are derived from the restaurant's reviews and are
// only ever written by the rating aggregator.
type Restaurant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	City       string    `json:"city"`
	Price      int       `json:"price"`
	Photo      string    `json:"photo"`
	AvgRating  float64   `json:"avgRating"`
	NumRatings int       `json:"numRatings"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRestaurant carries the caller-supplied attributes of a restaurant to create.
type NewRestaurant struct {
	Name     string
	Category string
	City     string
	Price    int
	Photo    string
}
