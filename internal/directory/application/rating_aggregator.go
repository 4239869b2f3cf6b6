package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

// RetryPolicy bounds how long a review submission keeps retrying after
// transaction conflicts.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryPolicy allows 10 retries within 5 seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:      10,
		InitialInterval: 10 * time.Millisecond,
		MaxInterval:     250 * time.Millisecond,
		MaxElapsedTime:  5 * time.Second,
	}
}

func (p RetryPolicy) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		eb.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		eb.MaxInterval = p.MaxInterval
	}
	eb.MaxElapsedTime = p.MaxElapsedTime
	eb.Reset()
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(eb, uint64(retries))
}

// ApplyRating folds one more rating into an aggregate.
func ApplyRating(avgRating float64, numRatings, rating int) (float64, int) {
	newNum := numRatings + 1
	newAvg := (avgRating*float64(numRatings) + float64(rating)) / float64(newNum)
	return newAvg, newNum
}

// ratingAggregator implements ReviewCommandService. Each submission appends the
// review and recomputes the parent's avgRating/numRatings in one transaction.
type ratingAggregator struct {
	store   Store
	policy  RetryPolicy
	metrics Metrics
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewRatingAggregator creates the review writer. A nil logger discards output.
func NewRatingAggregator(store Store, policy RetryPolicy, metrics Metrics, logger logrus.FieldLogger) ReviewCommandService {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	return &ratingAggregator{
		store:   store,
		policy:  policy,
		metrics: metricsOrNoop(metrics),
		logger:  logger,
		now:     time.Now,
	}
}

// Submit stores review under restaurantID and updates the restaurant aggregate
// atomically. Transaction conflicts are retried according to the retry policy;
// once it is exhausted the error matches domain.ErrConcurrentUpdateConflict.
func (a *ratingAggregator) Submit(ctx context.Context, restaurantID string, in domain.NewReview) (*domain.Review, error) {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return nil, domain.InvalidArgument("restaurant id is required")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	review := domain.Review{
		RestaurantID: restaurantID,
		Rating:       in.Rating,
		Text:         strings.TrimSpace(in.Text),
		UserID:       strings.TrimSpace(in.UserID),
		UserName:     strings.TrimSpace(in.UserName),
		Timestamp:    in.Timestamp,
	}
	if in.Timestamp.IsZero() {
		review.Timestamp = a.now()
	}
	// Stores keep millisecond precision; return what a later read will see.
	review.Timestamp = review.Timestamp.UTC().Truncate(time.Millisecond)

	// The id is fixed across attempts so a replayed insert cannot add a second review.
	ref := RatingsOf(restaurantID).Doc(a.store.NewID())
	review.ID = ref.ID

	logger := a.logger.WithFields(logrus.Fields{"restaurant_id": restaurantID, "review_id": ref.ID})
	attempts := 0
	operation := func() error {
		attempts++
		err := a.store.RunTransaction(ctx, func(ctx context.Context, tx Transaction) error {
			return a.apply(ctx, tx, ref, review)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrDocumentExists) && attempts > 1:
			// An earlier attempt committed even though it was reported as failed.
			logger.WithField("attempt", attempts).Warn("review already stored by an earlier attempt")
			return nil
		case errors.Is(err, ErrTransactionConflict):
			a.metrics.TransactionConflict()
			logger.WithField("attempt", attempts).Debug("review transaction conflicted, retrying")
			return err
		default:
			return backoff.Permanent(err)
		}
	}

	err := backoff.Retry(operation, backoff.WithContext(a.policy.newBackOff(), ctx))
	switch {
	case err == nil:
		a.metrics.ReviewSubmitted(SubmitResultOK)
		return &review, nil
	case errors.Is(err, ErrTransactionConflict):
		a.metrics.ReviewSubmitted(SubmitResultConflict)
		return nil, fmt.Errorf("%w: restaurant %s after %d attempts", domain.ErrConcurrentUpdateConflict, restaurantID, attempts)
	default:
		a.metrics.ReviewSubmitted(SubmitResultError)
		return nil, fmt.Errorf("submit review to %s: %w", restaurantID, err)
	}
}

// apply is one attempt of the read-modify-write: read the current aggregate,
// fold the rating in, then write the review and the new aggregate.
func (a *ratingAggregator) apply(ctx context.Context, tx Transaction, ref DocumentRef, review domain.Review) error {
	restaurantRef := Restaurants().Doc(review.RestaurantID)
	doc, err := tx.Get(ctx, restaurantRef)
	if err != nil {
		return err
	}

	p := projection{collection: CollectionRestaurants, raw: doc}
	avgRating := p.float(FieldAvgRating)
	numRatings := p.int(FieldNumRatings)
	if p.err != nil {
		return p.err
	}
	if numRatings < 0 {
		return &domain.MalformedRecordError{
			Collection: CollectionRestaurants,
			ID:         doc.ID,
			Field:      FieldNumRatings,
			Reason:     fmt.Sprintf("is negative (%d)", numRatings),
		}
	}

	newAvg, newNum := ApplyRating(avgRating, numRatings, review.Rating)

	fields := map[string]any{
		FieldRating:    review.Rating,
		FieldText:      review.Text,
		FieldUserID:    review.UserID,
		FieldTimestamp: review.Timestamp,
	}
	if review.UserName != "" {
		fields[FieldUserName] = review.UserName
	}
	if err := tx.Create(ref, fields); err != nil {
		return err
	}
	return tx.Update(restaurantRef, map[string]any{
		FieldAvgRating:  newAvg,
		FieldNumRatings: newNum,
	})
}
