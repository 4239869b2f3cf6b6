package mongo

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sngm3741/friendlyeats/api/internal/directory/application"
	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

const (
	writeConflictCode       = 112
	labelTransientTxnError  = "TransientTransactionError"
	labelUnknownCommitError = "UnknownTransactionCommitResult"
)

// translateError maps driver errors onto the directory's error taxonomy.
// Errors that are already part of it pass through unchanged.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrStoreUnavailable),
		errors.Is(err, application.ErrTransactionConflict),
		errors.Is(err, application.ErrDocumentExists):
		return err
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case hasErrorLabel(err, labelUnknownCommitError):
		// The commit may have been applied, so this must never be retried as a conflict.
		return fmt.Errorf("%w: transaction outcome unknown: %w", domain.ErrStoreUnavailable, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %w", application.ErrDocumentExists, err)
	case isConflict(err):
		return fmt.Errorf("%w: %w", application.ErrTransactionConflict, err)
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	default:
		return err
	}
}

// isConflict reports write conflicts and errors the server labels as safe to
// retry as a whole transaction.
func isConflict(err error) bool {
	var serverErr mongo.ServerError
	if !errors.As(err, &serverErr) {
		return false
	}
	return serverErr.HasErrorCode(writeConflictCode) || serverErr.HasErrorLabel(labelTransientTxnError)
}

func hasErrorLabel(err error, label string) bool {
	var serverErr mongo.ServerError
	return errors.As(err, &serverErr) && serverErr.HasErrorLabel(label)
}
