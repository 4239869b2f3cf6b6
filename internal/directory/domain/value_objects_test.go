package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePriceTier(t *testing.T) {
	tests := []struct {
		token   string
		want    int
		wantErr bool
	}{
		{token: "$", want: 1},
		{token: "$$", want: 2},
		{token: " $$$ ", want: 3},
		{token: "$$$$", want: 4},
		{token: "1", want: 1},
		{token: "4", want: 4},
		{token: "", wantErr: true},
		{token: "$$$$$", wantErr: true},
		{token: "0", wantErr: true},
		{token: "5", wantErr: true},
		{token: "-2", wantErr: true},
		{token: "cheap", wantErr: true},
		{token: "$1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := DecodePriceTier(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodePriceTier(t *testing.T) {
	assert.Equal(t, "", EncodePriceTier(0))
	assert.Equal(t, "$", EncodePriceTier(1))
	assert.Equal(t, "$$$$", EncodePriceTier(4))

	for tier := MinPriceTier; tier <= MaxPriceTier; tier++ {
		got, err := DecodePriceTier(EncodePriceTier(tier))
		require.NoError(t, err)
		assert.Equal(t, tier, got)
	}
}

func TestParseSortOrder(t *testing.T) {
	assert.Equal(t, SortByReview, ParseSortOrder("Review"))
	assert.Equal(t, SortByReview, ParseSortOrder(" review "))
	assert.Equal(t, SortByRating, ParseSortOrder("Rating"))
	assert.Equal(t, SortByRating, ParseSortOrder(""))
	assert.Equal(t, SortByRating, ParseSortOrder("distance"))
}

func TestValidatePhotoURL(t *testing.T) {
	assert.NoError(t, ValidatePhotoURL("https://example.com/p.png"))
	assert.NoError(t, ValidatePhotoURL("http://example.com/p.png"))
	for _, bad := range []string{"", "ftp://example.com/p.png", "/relative.png", "https://"} {
		assert.ErrorIs(t, ValidatePhotoURL(bad), ErrInvalidArgument, bad)
	}
}

func TestNewRestaurantValidate(t *testing.T) {
	valid := NewRestaurant{Name: "Curry House", Category: "Indian", City: "Boston", Price: 2}
	require.NoError(t, valid.Validate())

	tests := map[string]func(*NewRestaurant){
		"missing name":     func(r *NewRestaurant) { r.Name = " " },
		"missing category": func(r *NewRestaurant) { r.Category = "" },
		"missing city":     func(r *NewRestaurant) { r.City = "" },
		"price too high":   func(r *NewRestaurant) { r.Price = 5 },
		"price missing":    func(r *NewRestaurant) { r.Price = 0 },
		"bad photo":        func(r *NewRestaurant) { r.Photo = "not a url" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			r := valid
			mutate(&r)
			assert.ErrorIs(t, r.Validate(), ErrInvalidArgument)
		})
	}
}

func TestNewReviewValidate(t *testing.T) {
	assert.NoError(t, NewReview{Rating: 1, UserID: "u"}.Validate())
	assert.NoError(t, NewReview{Rating: 5, UserID: "u"}.Validate())
	assert.ErrorIs(t, NewReview{Rating: 0, UserID: "u"}.Validate(), ErrInvalidArgument)
	assert.ErrorIs(t, NewReview{Rating: 6, UserID: "u"}.Validate(), ErrInvalidArgument)
	assert.ErrorIs(t, NewReview{Rating: 3}.Validate(), ErrInvalidArgument)
}

func TestMalformedRecordError(t *testing.T) {
	err := &MalformedRecordError{Collection: "restaurants", ID: "abc", Field: "timestamp", Reason: "is missing"}
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `malformed record restaurants/abc: field "timestamp" is missing`, err.Error())
}
