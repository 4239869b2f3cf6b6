package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	MinRating = 1
	MaxRating = 5

	MinPriceTier = 1
	MaxPriceTier = 4
)

// DecodePriceTier turns a price token into the ordinal tier stored on restaurants.
//
// A token of repeated "$" characters decodes to its length, so "$$$" is tier 3.
// A decimal token decodes to its value, so "3" is tier 3 as well.
// Anything else, or a tier outside 1-4, is an invalid argument.
func DecodePriceTier(token string) (int, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return 0, InvalidArgument("price token is empty")
	}

	var tier int
	if strings.Trim(trimmed, "$") == "" {
		tier = len(trimmed)
	} else {
		parsed, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, InvalidArgument("price token %q is neither a run of '$' nor a number", token)
		}
		tier = parsed
	}

	if err := ValidatePriceTier(tier); err != nil {
		return 0, err
	}
	return tier, nil
}

// EncodePriceTier is the inverse of DecodePriceTier for "$" tokens.
func EncodePriceTier(tier int) string {
	if tier <= 0 {
		return ""
	}
	return strings.Repeat("$", tier)
}

func ValidatePriceTier(tier int) error {
	if tier < MinPriceTier || tier > MaxPriceTier {
		return InvalidArgument("price tier %d is outside %d-%d", tier, MinPriceTier, MaxPriceTier)
	}
	return nil
}

func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return InvalidArgument("rating %d is outside %d-%d", rating, MinRating, MaxRating)
	}
	return nil
}

// ValidatePhotoURL accepts absolute http(s) URLs only.
func ValidatePhotoURL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return InvalidArgument("photo url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return InvalidArgument("photo url: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return InvalidArgument("photo url must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return InvalidArgument("photo url has no host")
	}
	return nil
}

// Validate checks the attributes of a restaurant to create.
func (r NewRestaurant) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return InvalidArgument("name is required")
	}
	if strings.TrimSpace(r.Category) == "" {
		return InvalidArgument("category is required")
	}
	if strings.TrimSpace(r.City) == "" {
		return InvalidArgument("city is required")
	}
	if err := ValidatePriceTier(r.Price); err != nil {
		return err
	}
	if r.Photo != "" {
		if err := ValidatePhotoURL(r.Photo); err != nil {
			return fmt.Errorf("photo: %w", err)
		}
	}
	return nil
}

// Validate checks a review submission.
func (r NewReview) Validate() error {
	if err := ValidateRating(r.Rating); err != nil {
		return err
	}
	if strings.TrimSpace(r.UserID) == "" {
		return InvalidArgument("userId is required")
	}
	return nil
}
