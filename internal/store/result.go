package store

import (
	"fmt"

	"gallery/photo-api/internal/apperr"
)

// Failure is the outcome of one item that could not be processed
type Failure struct {
	ID   uint
	Kind apperr.Kind
	Err  error
}

// Message is a plain language description of the failure
func (f Failure) Message() string {
	switch f.Kind {
	case apperr.AssetIOFailure:
		return fmt.Sprintf("Item %d was deleted but its files could not be removed", f.ID)
	case apperr.ConstraintViolation:
		return fmt.Sprintf("Item %d is still referenced by another record", f.ID)
	}

	return fmt.Sprintf("Item %d could not be deleted", f.ID)
}

// BatchResult collects per item outcomes of a batch. An item may appear in
// both lists when its row was removed but a later step failed.
type BatchResult struct {
	Succeeded []uint
	Failures  []Failure
}

func (r *BatchResult) DeletedCount() int {
	return len(r.Succeeded)
}

func (r *BatchResult) Errors() []string {
	msgs := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		msgs = append(msgs, f.Message())
	}

	return msgs
}

// Merge appends the outcomes of other to r
func (r *BatchResult) Merge(other *BatchResult) {
	r.Succeeded = append(r.Succeeded, other.Succeeded...)
	r.Failures = append(r.Failures, other.Failures...)
}

// UniqueIDs drops repeated ids, keeping the first occurrence
func UniqueIDs(ids []uint) []uint {
	if ids == nil {
		return nil
	}

	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	return out
}
