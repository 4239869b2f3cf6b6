package memory

import (
	"context"
	"fmt"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

type pendingWrite struct {
	ref    application.DocumentRef
	fields map[string]any
	create bool
}

type transaction struct {
	store  *Store
	reads  map[string]readRecord
	writes []pendingWrite
}

type readRecord struct {
	ref     application.DocumentRef
	version uint64
}

// RunTransaction runs fn once and commits its buffered writes atomically.
// The commit fails with application.ErrTransactionConflict when a document
// read by fn was modified after it was read, and with
// application.ErrDocumentExists when fn creates a document that already exists.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx application.Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &transaction{store: s, reads: make(map[string]readRecord)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) commit(tx *transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, read := range tx.reads {
		if s.versionLocked(read.ref) != read.version {
			return fmt.Errorf("%w: %s changed since it was read", application.ErrTransactionConflict, read.ref)
		}
	}

	// Validate before applying so a failed commit leaves nothing behind.
	for _, w := range tx.writes {
		if w.create {
			if _, ok := s.lookupLocked(w.ref); ok {
				return fmt.Errorf("%w: %s", application.ErrDocumentExists, w.ref)
			}
			continue
		}
		if _, ok := s.lookupLocked(w.ref); !ok && !tx.createsLocked(w.ref) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, w.ref)
		}
	}

	touched := make(map[string]struct{})
	for _, w := range tx.writes {
		if w.create {
			s.putLocked(w.ref, w.fields)
		} else if err := s.mergeLocked(w.ref, w.fields); err != nil {
			return err
		}
		touched[w.ref.Collection.String()] = struct{}{}
	}
	for collection := range touched {
		s.notifyLocked(collection)
	}
	return nil
}

func (tx *transaction) createsLocked(ref application.DocumentRef) bool {
	for _, w := range tx.writes {
		if w.create && w.ref.String() == ref.String() {
			return true
		}
	}
	return false
}

func (tx *transaction) Get(ctx context.Context, ref application.DocumentRef) (application.RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return application.RawDocument{}, err
	}
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	doc, ok := tx.store.lookupLocked(ref)
	if !ok {
		tx.reads[ref.String()] = readRecord{ref: ref}
		return application.RawDocument{}, fmt.Errorf("%w: %s", domain.ErrNotFound, ref)
	}
	tx.reads[ref.String()] = readRecord{ref: ref, version: doc.version}
	return application.RawDocument{ID: ref.ID, Fields: copyFields(doc.fields)}, nil
}

func (tx *transaction) Create(ref application.DocumentRef, fields map[string]any) error {
	if ref.ID == "" {
		return fmt.Errorf("%w: empty document id in %s", domain.ErrInvalidArgument, ref.Collection)
	}
	tx.writes = append(tx.writes, pendingWrite{ref: ref, fields: normalizeFields(fields), create: true})
	return nil
}

func (tx *transaction) Update(ref application.DocumentRef, fields map[string]any) error {
	tx.writes = append(tx.writes, pendingWrite{ref: ref, fields: normalizeFields(fields)})
	return nil
}
