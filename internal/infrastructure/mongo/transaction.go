package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
)

type pendingWrite struct {
	ref    application.DocumentRef
	fields map[string]any
	create bool
}

// transaction buffers writes and flushes them inside the session right before
// commit. Snapshot reads plus the write to every document the caller read and
// updated make concurrent commits on that document fail with a write conflict.
type transaction struct {
	store  *Store
	writes []pendingWrite
}

// RunTransaction runs fn once inside a multi-document transaction. It uses the
// session API directly instead of WithTransaction, which would retry on its own.
func (s *Store) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx application.Transaction) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return translateError(err)
	}
	defer session.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	err = mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(txnOpts); err != nil {
			return err
		}
		tx := &transaction{store: s}
		if err := fn(sc, tx); err != nil {
			_ = session.AbortTransaction(context.Background())
			return err
		}
		if err := tx.flush(sc); err != nil {
			_ = session.AbortTransaction(context.Background())
			return err
		}
		return commitWithRetry(sc, session.CommitTransaction)
	})
	return translateError(err)
}

// maxCommitAttempts bounds how often a commit with an unknown outcome is resent.
const maxCommitAttempts = 5

// commitWithRetry resends only the commit while the server reports its outcome
// as unknown, the way the driver's WithTransaction does. Re-running the
// transaction body in that state could apply it twice.
func commitWithRetry(ctx context.Context, commit func(context.Context) error) error {
	var err error
	for attempt := 0; attempt < maxCommitAttempts; attempt++ {
		err = commit(ctx)
		if err == nil || !hasErrorLabel(err, labelUnknownCommitError) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (tx *transaction) Get(ctx context.Context, ref application.DocumentRef) (application.RawDocument, error) {
	return tx.store.findOne(ctx, ref)
}

// Create checks ref now and inserts it at commit. A ref whose id is taken
// fails the commit with a duplicate key error.
func (tx *transaction) Create(ref application.DocumentRef, fields map[string]any) error {
	if _, _, err := tx.store.documentTarget(ref); err != nil {
		return err
	}
	tx.writes = append(tx.writes, pendingWrite{ref: ref, fields: fields, create: true})
	return nil
}

func (tx *transaction) Update(ref application.DocumentRef, fields map[string]any) error {
	tx.writes = append(tx.writes, pendingWrite{ref: ref, fields: fields})
	return nil
}

func (tx *transaction) flush(sc mongo.SessionContext) error {
	for _, w := range tx.writes {
		if w.create {
			if err := tx.store.insertWithID(sc, w.ref, w.fields); err != nil {
				return err
			}
			continue
		}
		if err := tx.store.set(sc, w.ref, w.fields); err != nil {
			return err
		}
	}
	return nil
}
