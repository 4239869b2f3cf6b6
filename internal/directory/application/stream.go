package application

import (
	"context"
	"sync"
)

// Update is one delivery of a live query: either the full current result set or
// the error that occurred while producing it.
type Update[T any] struct {
	Items []T
	Err   error
}

// Unsubscribe stops a callback subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// Stream is a lazy, non-restartable sequence of full result-set snapshots.
//
// Updates is closed when the stream ends, which happens on Close, on
// cancellation of the context passed to Watch, or after the store listener fails
// (that failure is delivered as a last Update with Err set). A projection failure
// is delivered as an Update with Err set and the stream keeps running.
//
// No update is produced after Close returns. An update the consumer received
// before that may still be in the consumer's hands.
type Stream[T any] struct {
	updates   chan Update[T]
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
}

func newStream[T any](ctx context.Context, listener Listener, project func([]RawDocument) ([]T, error), onExit func()) *Stream[T] {
	s := &Stream[T]{
		updates: make(chan Update[T]),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
	go s.run(ctx, listener, project, onExit)
	return s
}

// Updates delivers snapshots in the store's change order.
func (s *Stream[T]) Updates() <-chan Update[T] {
	return s.updates
}

// Close stops the stream and releases the underlying store listener. It is safe
// to call Close any number of times and from any goroutine.
func (s *Stream[T]) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.exited
}

func (s *Stream[T]) run(ctx context.Context, listener Listener, project func([]RawDocument) ([]T, error), onExit func()) {
	defer func() {
		listener.Stop()
		close(s.updates)
		if onExit != nil {
			onExit()
		}
		close(s.exited)
	}()

	events := listener.Events()
	for {
		var event ListenEvent
		var ok bool
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case event, ok = <-events:
			if !ok {
				return
			}
		}

		if event.Err != nil {
			s.send(ctx, Update[T]{Err: event.Err})
			return
		}

		items, err := project(event.Documents)
		if err != nil {
			if !s.send(ctx, Update[T]{Err: err}) {
				return
			}
			continue
		}
		if !s.send(ctx, Update[T]{Items: items}) {
			return
		}
	}
}

func (s *Stream[T]) send(ctx context.Context, u Update[T]) bool {
	select {
	case s.updates <- u:
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// subscribe drives onUpdate from a stream on its own goroutine.
func subscribe[T any](stream *Stream[T], onUpdate func(Update[T])) Unsubscribe {
	go func() {
		for u := range stream.Updates() {
			onUpdate(u)
		}
	}()
	return stream.Close
}
