package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/sngm3741/friendlyeats/api/internal/directory/domain"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.InvalidArgument("price %q", "x"), http.StatusBadRequest},
		{fmt.Errorf("%w: restaurants/1", domain.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: after 11 attempts", domain.ErrConcurrentUpdateConflict), http.StatusConflict},
		{fmt.Errorf("%w: dial", domain.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{&domain.MalformedRecordError{Collection: "restaurants", ID: "1", Field: "timestamp", Reason: "is missing"}, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusForError(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rec := httptest.NewRecorder()

	WriteError(logger, rec, errors.New("connection string mongodb://secret"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal Server Error"}`, rec.Body.String())
	if assert.Len(t, hook.Entries, 1) {
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	}
}

func TestWriteErrorShowsClientErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	rec := httptest.NewRecorder()

	WriteError(logger, rec, domain.InvalidArgument("rating must be between 1 and 5"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "rating must be between 1 and 5")
	assert.Empty(t, hook.Entries)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", AuthenticatedUser{ID: "u1", Name: " Ada "}.DisplayName())
	assert.Equal(t, "ada", AuthenticatedUser{ID: "u1", Username: "ada"}.DisplayName())
	assert.Equal(t, "Anonymous (u1)", AuthenticatedUser{ID: "u1"}.DisplayName())
}
