package domain

import "strings"

// SortOrder selects the single ordering clause of a restaurant query.
type SortOrder string

const (
	SortByRating SortOrder = "Rating"
	SortByReview SortOrder = "Review"
)

// Criteria is the sparse, caller-supplied restaurant filter. Empty fields are ignored.
type Criteria struct {
	Category string
	City     string
	// Price is the tier token as the caller sends it, e.g. "$$". See DecodePriceTier.
	Price string
	Sort  SortOrder
	// Limit caps the result set when positive.
	Limit int
}

// ParseSortOrder maps user input onto a SortOrder. Unknown values fall back to SortByRating.
func ParseSortOrder(input string) SortOrder {
	if strings.EqualFold(strings.TrimSpace(input), string(SortByReview)) {
		return SortByReview
	}
	return SortByRating
}
