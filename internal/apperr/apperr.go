// Package apperr defines the error kinds surfaced by the media services.
// Kinds are stable values callers switch on, the message is safe to show to users.
package apperr

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Kind string

const (
	Internal            Kind = "internal"
	InvalidInput        Kind = "invalid_input"
	NotFound            Kind = "not_found"
	OwnershipViolation  Kind = "ownership_violation"
	PartialFailure      Kind = "partial_failure"
	AssetIOFailure      Kind = "asset_io_failure"
	ConstraintViolation Kind = "constraint_violation"
)

type Error struct {
	Kind    Kind
	Message string
	// IDs lists the offending media ids, if any
	IDs []uint
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func Ownership(ids []uint) *Error {
	return &Error{
		Kind:    OwnershipViolation,
		Message: "Some items don't exist or don't belong to you",
		IDs:     ids,
	}
}

func AssetIO(id uint, err error) *Error {
	return &Error{
		Kind:    AssetIOFailure,
		Message: fmt.Sprintf("failed to delete files of item %d", id),
		IDs:     []uint{id},
		Err:     err,
	}
}

// KindOf classifies any error. Errors that aren't *Error are Internal
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// FromDB converts gorm's translated errors into kinds. gorm must be opened
// with TranslateError for the constraint cases to be recognized.
func FromDB(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return New(NotFound, "Item not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return New(ConstraintViolation, "This file already exists in your library", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return New(ConstraintViolation, "The item is still referenced by another record", err)
	}

	return err
}
