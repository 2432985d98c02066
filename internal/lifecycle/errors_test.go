package lifecycle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestErrorMatchesByKind(t *testing.T) {
	err := newError(KindCapacityExceeded, "Accept", "opportunity %d has no free slots", 4)

	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NotErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), ErrCapacityExceeded)
	assert.Equal(t, "Accept: opportunity 4 has no free slots", err.Error())
}

func TestClassify(t *testing.T) {
	assert.NoError(t, classify("Approve", "time log", nil))

	notFound := classify("Approve", "time log", gorm.ErrRecordNotFound)
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.Equal(t, "Approve: time log not found", notFound.Error())

	storage := classify("Approve", "time log", errors.New("connection reset"))
	assert.ErrorIs(t, storage, ErrStorageUnavailable)
	assert.Equal(t, KindStorageUnavailable, KindOf(storage))

	var lerr *Error
	require.True(t, errors.As(storage, &lerr))
	assert.NotEmpty(t, lerr.StackTrace())
	assert.Contains(t, storage.Error(), "connection reset")

	passed := classify("Outer", "record", &Error{Kind: KindInvalidHours, Message: "too many"})
	require.True(t, errors.As(passed, &lerr))
	assert.Equal(t, "Outer", lerr.Op)
	assert.Equal(t, KindInvalidHours, lerr.Kind)
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindStorageUnavailable, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnauthorized, KindOf(ErrUnauthorized))
}
