package application

import (
	"fmt"
	"math"
	"time"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// temporal is implemented by store-native timestamp values, e.g. the Mongo
// driver's primitive.DateTime.
type temporal interface {
	Time() time.Time
}

// ProjectRestaurant converts a stored restaurant into its domain form.
// A missing or non-temporal timestamp yields a *domain.MalformedRecordError.
func ProjectRestaurant(raw RawDocument) (domain.Restaurant, error) {
	p := projection{collection: CollectionRestaurants, raw: raw}
	r := domain.Restaurant{
		ID:         raw.ID,
		Name:       p.string(FieldName),
		Category:   p.string(FieldCategory),
		City:       p.string(FieldCity),
		Price:      p.int(FieldPrice),
		Photo:      p.string(FieldPhoto),
		AvgRating:  p.float(FieldAvgRating),
		NumRatings: p.int(FieldNumRatings),
		Timestamp:  p.timestamp(FieldTimestamp),
	}
	if p.err != nil {
		return domain.Restaurant{}, p.err
	}
	return r, nil
}

// ProjectReview converts a stored review of restaurantID into its domain form.
func ProjectReview(restaurantID string, raw RawDocument) (domain.Review, error) {
	p := projection{collection: RatingsOf(restaurantID).String(), raw: raw}
	r := domain.Review{
		ID:           raw.ID,
		RestaurantID: restaurantID,
		Rating:       p.int(FieldRating),
		Text:         p.string(FieldText),
		UserID:       p.string(FieldUserID),
		UserName:     p.string(FieldUserName),
		Timestamp:    p.timestamp(FieldTimestamp),
	}
	if p.err != nil {
		return domain.Review{}, p.err
	}
	return r, nil
}

// projection reads typed fields from a raw document and keeps the first error.
// Absent descriptive fields read as zero values; only type mismatches and a
// missing timestamp are errors.
type projection struct {
	collection string
	raw        RawDocument
	err        error
}

func (p *projection) fail(field, reason string) {
	if p.err != nil {
		return
	}
	p.err = &domain.MalformedRecordError{
		Collection: p.collection,
		ID:         p.raw.ID,
		Field:      field,
		Reason:     reason,
	}
}

func (p *projection) string(field string) string {
	v, ok := p.raw.Fields[field]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		p.fail(field, fmt.Sprintf("has type %T, want string", v))
		return ""
	}
	return s
}

func (p *projection) float(field string) float64 {
	v, ok := p.raw.Fields[field]
	if !ok || v == nil {
		return 0
	}
	f, ok := toFloat(v)
	if !ok {
		p.fail(field, fmt.Sprintf("has type %T, want number", v))
		return 0
	}
	return f
}

func (p *projection) int(field string) int {
	f := p.float(field)
	if f != math.Trunc(f) {
		p.fail(field, fmt.Sprintf("has fractional value %v, want integer", f))
		return 0
	}
	return int(f)
}

func (p *projection) timestamp(field string) time.Time {
	v, ok := p.raw.Fields[field]
	if !ok || v == nil {
		p.fail(field, "is missing")
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t
	case temporal:
		return t.Time().UTC()
	default:
		p.fail(field, fmt.Sprintf("has type %T, want timestamp", v))
		return time.Time{}
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
