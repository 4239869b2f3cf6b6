package public

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
	"github.com/sngm3741/friendlyeats/api/internal/infrastructure/memory"
	"github.com/sngm3741/friendlyeats/api/internal/interfaces/http/common"
)

type fakeLimiter struct {
	allowed    bool
	retryAfter time.Duration
	err        error
	keys       []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	return l.allowed, l.retryAfter, l.err
}

func fakeAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := common.ContextWithUser(r.Context(), common.AuthenticatedUser{ID: "user-1", Name: "Ada"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newTestRouter(t *testing.T, limiter RateLimiter) (chi.Router, *memory.Store, string) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.New()
	ref, err := store.Create(context.Background(), application.Restaurants(), map[string]any{
		application.FieldName:       "Noodles",
		application.FieldCategory:   "Ramen",
		application.FieldCity:       "Sapporo",
		application.FieldPrice:      1,
		application.FieldAvgRating:  0.0,
		application.FieldNumRatings: 0,
		application.FieldTimestamp:  time.Now(),
	})
	require.NoError(t, err)

	h := NewHandler(Config{
		Logger:         logger,
		Restaurants:    application.NewRestaurantQueryService(store, nil),
		ReviewQueries:  application.NewReviewQueryService(store, nil),
		ReviewCommands: application.NewRatingAggregator(store, application.DefaultRetryPolicy(), nil, logger),
		RateLimiter:    limiter,
	})
	r := chi.NewRouter()
	h.Register(r, fakeAuth)
	return r, store, ref.ID
}

func postReview(r http.Handler, id string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/restaurants/"+id+"/reviews", strings.NewReader(`{"rating":5,"text":"great"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitRejects(t *testing.T) {
	limiter := &fakeLimiter{allowed: false, retryAfter: 1500 * time.Millisecond}
	r, _, id := newTestRouter(t, limiter)

	rec := postReview(r, id)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, []string{"user-1"}, limiter.keys)
}

func TestRateLimitFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	r, _, id := newTestRouter(t, limiter)

	rec := postReview(r, id)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestNoLimiterAllowsSubmission(t *testing.T) {
	r, store, id := newTestRouter(t, nil)

	rec := postReview(r, id)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	doc, err := store.Get(context.Background(), application.Restaurants().Doc(id))
	require.NoError(t, err)
	assert.EqualValues(t, 1, doc.Fields[application.FieldNumRatings])
}

func TestCriteriaFromQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/restaurants?category=+Sushi+&city=Tokyo&price=$$&sort=review&limit=999", nil)

	c := criteriaFromQuery(req.URL.Query())

	assert.Equal(t, domain.Criteria{
		Category: "Sushi",
		City:     "Tokyo",
		Price:    "$$",
		Sort:     domain.SortByReview,
		Limit:    common.MaxListLimit,
	}, c)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/restaurants/live", nil)
	assert.True(t, check(req), "no Origin header")

	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))

	req.Header.Set("Origin", "http://api.example.com")
	assert.True(t, check(req), "same origin")

	assert.True(t, originChecker([]string{"*"})(req))
}

func TestFrameForHidesInternalErrors(t *testing.T) {
	convert := func(items []domain.Review) any { return items }

	msg := frameFor(application.Update[domain.Review]{Err: errors.New("socket reset by peer")}, convert)
	assert.Equal(t, liveTypeError, msg.Type)
	assert.Equal(t, "live query failed", msg.Error)

	msg = frameFor(application.Update[domain.Review]{Items: []domain.Review{{ID: "r1"}}}, convert)
	assert.Equal(t, liveTypeSnapshot, msg.Type)
	assert.Equal(t, 1, msg.Count)
}
