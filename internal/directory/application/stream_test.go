package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

func restaurantDoc(id, name string) application.RawDocument {
	return application.RawDocument{ID: id, Fields: map[string]any{
		application.FieldName:      name,
		application.FieldTimestamp: epoch,
	}}
}

func watchScripted(t *testing.T, ctx context.Context) (*application.Stream[domain.Restaurant], *scriptedListener, *fakeMetrics) {
	t.Helper()
	l := newScriptedListener()
	metrics := newFakeMetrics()
	svc := application.NewRestaurantQueryService(&listenerStore{listener: l}, metrics)
	stream, err := svc.Watch(ctx, domain.Criteria{})
	require.NoError(t, err)
	return stream, l, metrics
}

func TestStreamProjectionErrorKeepsStreamAlive(t *testing.T) {
	stream, l, _ := watchScripted(t, context.Background())
	defer stream.Close()

	go l.push(t, application.ListenEvent{Documents: []application.RawDocument{{ID: "bad", Fields: map[string]any{}}}})
	u := nextUpdate(t, stream.Updates())
	assert.ErrorIs(t, u.Err, domain.ErrMalformedRecord)

	go l.push(t, application.ListenEvent{Documents: []application.RawDocument{restaurantDoc("a", "Alpha")}})
	u = nextUpdate(t, stream.Updates())
	require.NoError(t, u.Err)
	assert.Equal(t, []string{"Alpha"}, names(u.Items))
}

func TestStreamListenerErrorEndsStream(t *testing.T) {
	stream, l, metrics := watchScripted(t, context.Background())
	boom := errors.New("change stream lost")

	go l.push(t, application.ListenEvent{Err: boom})
	u := nextUpdate(t, stream.Updates())
	assert.ErrorIs(t, u.Err, boom)

	requireClosed(t, stream.Updates())
	select {
	case <-l.stopped:
	case <-time.After(waitFor):
		t.Fatal("listener was not stopped")
	}
	stream.Close()

	_, _, closed := metrics.snapshot()
	assert.Equal(t, 1, closed[application.SubscriptionRestaurants])
}

func TestStreamEndsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stream, l, _ := watchScripted(t, ctx)

	cancel()
	requireClosed(t, stream.Updates())
	select {
	case <-l.stopped:
	case <-time.After(waitFor):
		t.Fatal("listener was not stopped")
	}
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	stream, l, metrics := watchScripted(t, context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		stream.Close()
	}()
	stream.Close()
	<-done
	stream.Close()

	requireClosed(t, stream.Updates())
	select {
	case <-l.stopped:
	default:
		t.Fatal("listener was not stopped")
	}
	_, _, closed := metrics.snapshot()
	assert.Equal(t, 1, closed[application.SubscriptionRestaurants])
}

func TestStreamClosedListenerEndsStream(t *testing.T) {
	stream, l, _ := watchScripted(t, context.Background())
	close(l.events)

	requireClosed(t, stream.Updates())
	stream.Close()
}
