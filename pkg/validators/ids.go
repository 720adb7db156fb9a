// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"fmt"
	"strconv"
)

const MaxBatchSize = 500

var (
	ErrNoIDs      = errors.New("no ids provided")
	ErrTooManyIDs = fmt.Errorf("at most %d ids can be sent at once", MaxBatchSize)
	ErrInvalidID  = errors.New("ids must be positive integers")
)

// BatchIDsValidator checks the ids of a batch request
func BatchIDsValidator(ids []uint) error {
	if len(ids) == 0 {
		return ErrNoIDs
	}

	if len(ids) > MaxBatchSize {
		return ErrTooManyIDs
	}

	for _, id := range ids {
		if id == 0 {
			return ErrInvalidID
		}
	}

	return nil
}

// IDValidator parses a path id
func IDValidator(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, ErrInvalidID
	}

	return uint(n), nil
}
