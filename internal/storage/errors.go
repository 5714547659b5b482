package storage

import (
	"errors"
	"fmt"

	"github.com/vistastaking/indexers/internal/domain"
)

// Storage errors for price stores.
var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPersistence is matched by every write failure other than the
	// expected conflict on an existing record.
	ErrPersistence = errors.New("persistence failure")
)

// PersistenceError identifies the record a failed write was for.
type PersistenceError struct {
	BaseToken      string
	QuoteToken     string
	BlockTimestamp int64
	Err            error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s/%s at %d: %v", e.BaseToken, e.QuoteToken, e.BlockTimestamp, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// Failure wraps err as a PersistenceError for p. p may be nil.
func Failure(p *domain.PricePoint, err error) error {
	e := &PersistenceError{Err: err}
	if p != nil {
		e.BaseToken = p.BaseToken
		e.QuoteToken = p.QuoteToken
		e.BlockTimestamp = p.BlockTimestamp
	}
	return e
}

// Validate checks the fields forming the unique key.
func Validate(p *domain.PricePoint) error {
	if p == nil || p.BaseToken == "" || p.QuoteToken == "" {
		return Failure(p, ErrInvalidInput)
	}
	return nil
}
