package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
	assert.Equal(t, OwnershipViolation, KindOf(Ownership([]uint{4})))

	wrapped := fmt.Errorf("failed to toggle, %w", New(NotFound, "gone", nil))
	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, NotFound))
	assert.False(t, Is(nil, NotFound))
}

func TestFromDB(t *testing.T) {
	assert.Nil(t, FromDB(nil))
	assert.Equal(t, NotFound, KindOf(FromDB(gorm.ErrRecordNotFound)))
	assert.Equal(t, ConstraintViolation, KindOf(FromDB(gorm.ErrDuplicatedKey)))
	assert.Equal(t, ConstraintViolation, KindOf(FromDB(fmt.Errorf("insert, %w", gorm.ErrForeignKeyViolated))))

	other := errors.New("disk full")
	assert.Same(t, other, FromDB(other))
}

func TestErrorMessage(t *testing.T) {
	err := AssetIO(2, errors.New("permission denied"))
	assert.Contains(t, err.Error(), "item 2")
	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, []uint{2}, err.IDs)
	assert.ErrorIs(t, New(Internal, "x", gorm.ErrInvalidData), gorm.ErrInvalidData)
}
