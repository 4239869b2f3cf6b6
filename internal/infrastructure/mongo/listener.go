package mongo

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

// listener backs a live query with a change stream. Any change in the scoped
// collection triggers a fresh run of the query.
type listener struct {
	store    *Store
	query    application.Query
	stream   *mongo.ChangeStream
	events   chan application.ListenEvent
	cancel   context.CancelFunc
	exited   chan struct{}
	stopOnce sync.Once
}

// Listen opens a change stream before running the initial query so no commit
// between the two is missed.
func (s *Store) Listen(ctx context.Context, q application.Query) (application.Listener, error) {
	t, ok, err := s.resolve(q.Collection)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{}
	if ok && t.parentField != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{
			"$or": bson.A{
				bson.M{"fullDocument." + t.parentField: t.parentID},
				bson.M{"operationType": "delete"},
			},
		}}})
	}

	lctx, cancel := context.WithCancel(ctx)
	stream, err := t.collection.Watch(lctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, translateError(err)
	}

	l := &listener{
		store:  s,
		query:  q,
		stream: stream,
		events: make(chan application.ListenEvent),
		cancel: cancel,
		exited: make(chan struct{}),
	}
	go l.run(lctx)
	return l, nil
}

func (l *listener) Events() <-chan application.ListenEvent {
	return l.events
}

func (l *listener) Stop() {
	l.stopOnce.Do(l.cancel)
	<-l.exited
}

func (l *listener) run(ctx context.Context) {
	defer close(l.exited)
	defer close(l.events)
	defer l.stream.Close(context.Background())

	if !l.emit(ctx) {
		return
	}
	for l.stream.Next(ctx) {
		// Coalesce a burst of changes into one re-query.
		for l.stream.RemainingBatchLength() > 0 {
			if !l.stream.Next(ctx) {
				break
			}
		}
		if !l.emit(ctx) {
			return
		}
	}
	if err := l.stream.Err(); err != nil && ctx.Err() == nil {
		l.send(ctx, application.ListenEvent{Err: translateError(err)})
	}
}

// emit re-runs the query and delivers the result. It reports whether the
// listener should keep going.
func (l *listener) emit(ctx context.Context) bool {
	docs, err := l.store.Query(ctx, l.query)
	if err != nil {
		if ctx.Err() == nil {
			l.send(ctx, application.ListenEvent{Err: err})
		}
		return false
	}
	return l.send(ctx, application.ListenEvent{Documents: docs})
}

func (l *listener) send(ctx context.Context, ev application.ListenEvent) bool {
	select {
	case l.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
