package memory

import (
	"context"
	"sync"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

type listener struct {
	store    *Store
	query    application.Query
	signal   chan struct{}
	events   chan application.ListenEvent
	stop     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

// Listen registers a standing query. The current result set is delivered first;
// after that a full result set is delivered after each commit touching the
// query's collection. Commits that land while the consumer is busy are folded
// into the next delivery.
func (s *Store) Listen(ctx context.Context, q application.Query) (application.Listener, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := &listener{
		store:  s,
		query:  q,
		signal: make(chan struct{}, 1),
		events: make(chan application.ListenEvent),
		stop:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	l.signal <- struct{}{}

	s.mu.Lock()
	s.listeners[l] = struct{}{}
	s.mu.Unlock()

	go l.run(ctx)
	return l, nil
}

// ActiveListeners reports how many listeners are registered.
func (s *Store) ActiveListeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Store) notifyLocked(collection string) {
	for l := range s.listeners {
		if l.query.Collection.String() != collection {
			continue
		}
		select {
		case l.signal <- struct{}{}:
		default:
		}
	}
}

func (l *listener) Events() <-chan application.ListenEvent {
	return l.events
}

func (l *listener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.exited
}

func (l *listener) run(ctx context.Context) {
	defer func() {
		l.store.mu.Lock()
		delete(l.store.listeners, l)
		l.store.mu.Unlock()
		close(l.events)
		close(l.exited)
	}()

	for {
		select {
		case <-l.stop:
			return
		case <-ctx.Done():
			return
		case <-l.signal:
		}

		l.store.mu.Lock()
		docs := l.store.queryLocked(l.query)
		l.store.mu.Unlock()

		select {
		case l.events <- application.ListenEvent{Documents: docs}:
		case <-l.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}
