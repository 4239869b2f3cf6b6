package application_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
	"github.com/sngm3741/friendlyeats/api/internal/infrastructure/memory"
)

const waitFor = 2 * time.Second

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func createRestaurant(t *testing.T, store application.Store, in domain.NewRestaurant) *domain.Restaurant {
	t.Helper()
	r, err := application.NewRestaurantCommandService(store).Create(context.Background(), in)
	require.NoError(t, err)
	return r
}

func newRestaurant(name, category, city string, price int) domain.NewRestaurant {
	return domain.NewRestaurant{Name: name, Category: category, City: city, Price: price}
}

func names(restaurants []domain.Restaurant) []string {
	out := make([]string, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, r.Name)
	}
	return out
}

func fastPolicy(maxRetries int) application.RetryPolicy {
	return application.RetryPolicy{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
}

func nextUpdate[T any](t *testing.T, updates <-chan application.Update[T]) application.Update[T] {
	t.Helper()
	select {
	case u, ok := <-updates:
		require.True(t, ok, "stream closed")
		return u
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for update")
		return application.Update[T]{}
	}
}

func requireClosed[T any](t *testing.T, updates <-chan application.Update[T]) {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream was not closed")
		}
	}
}

// countingStore records every call that reaches the store.
type countingStore struct {
	*memory.Store
	mu    sync.Mutex
	calls int
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memory.New()}
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *countingStore) hit() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *countingStore) Query(ctx context.Context, q application.Query) ([]application.RawDocument, error) {
	s.hit()
	return s.Store.Query(ctx, q)
}

func (s *countingStore) Get(ctx context.Context, ref application.DocumentRef) (application.RawDocument, error) {
	s.hit()
	return s.Store.Get(ctx, ref)
}

func (s *countingStore) Create(ctx context.Context, c application.CollectionRef, f map[string]any) (application.DocumentRef, error) {
	s.hit()
	return s.Store.Create(ctx, c, f)
}

func (s *countingStore) Update(ctx context.Context, ref application.DocumentRef, f map[string]any) error {
	s.hit()
	return s.Store.Update(ctx, ref, f)
}

func (s *countingStore) RunTransaction(ctx context.Context, fn func(context.Context, application.Transaction) error) error {
	s.hit()
	return s.Store.RunTransaction(ctx, fn)
}

func (s *countingStore) Listen(ctx context.Context, q application.Query) (application.Listener, error) {
	s.hit()
	return s.Store.Listen(ctx, q)
}

// scriptedListener hands out events pushed by the test.
type scriptedListener struct {
	events   chan application.ListenEvent
	stopOnce sync.Once
	stopped  chan struct{}
}

func newScriptedListener() *scriptedListener {
	return &scriptedListener{
		events:  make(chan application.ListenEvent),
		stopped: make(chan struct{}),
	}
}

func (l *scriptedListener) Events() <-chan application.ListenEvent { return l.events }

func (l *scriptedListener) Stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
}

func (l *scriptedListener) push(t *testing.T, ev application.ListenEvent) {
	t.Helper()
	select {
	case l.events <- ev:
	case <-time.After(waitFor):
		t.Fatal("listener event was not consumed")
	}
}

// listenerStore serves Listen from a scripted listener.
type listenerStore struct {
	application.Store
	listener *scriptedListener
}

func (s *listenerStore) Listen(context.Context, application.Query) (application.Listener, error) {
	return s.listener, nil
}

type fakeMetrics struct {
	mu         sync.Mutex
	submitted  map[string]int
	conflicts  int
	open       map[string]int
	closedSubs map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		submitted:  make(map[string]int),
		open:       make(map[string]int),
		closedSubs: make(map[string]int),
	}
}

func (m *fakeMetrics) ReviewSubmitted(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitted[result]++
}

func (m *fakeMetrics) TransactionConflict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflicts++
}

func (m *fakeMetrics) SubscriptionOpened(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open[kind]++
}

func (m *fakeMetrics) SubscriptionClosed(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closedSubs[kind]++
}

func (m *fakeMetrics) snapshot() (submitted map[string]int, conflicts int, closed map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	submitted = make(map[string]int, len(m.submitted))
	for k, v := range m.submitted {
		submitted[k] = v
	}
	closed = make(map[string]int, len(m.closedSubs))
	for k, v := range m.closedSubs {
		closed[k] = v
	}
	return submitted, m.conflicts, closed
}
