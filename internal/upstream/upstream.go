package upstream

import (
	"context"
	"errors"
)

// ErrNotFound is returned when the source-of-truth has no record for a person.
var ErrNotFound = errors.New("prisoner not found")

// Result holds the outcome of a secondary fetch: a (possibly nil) value on
// success, or the cause of failure.
type Result[T any] struct {
	Value *T
	Err   error
}

// Success wraps a successful fetch. v may be nil.
func Success[T any](v *T) Result[T] {
	return Result[T]{Value: v}
}

// Failure wraps a failed fetch.
func Failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Of converts a conventional (value, error) pair to a Result.
func Of[T any](v *T, err error) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// Failed reports whether the fetch failed.
func (r Result[T]) Failed() bool {
	return r.Err != nil
}

// PrisonAPI is the source-of-truth system.
type PrisonAPI interface {
	// GetBooking returns the latest booking for a person, or ErrNotFound.
	GetBooking(ctx context.Context, prisonerNumber string) (*Booking, error)

	// CountPrisonerNumbers returns the size of the full population.
	CountPrisonerNumbers(ctx context.Context) (int, error)

	// GetPrisonerNumbers returns one page (zero-based) of the population.
	GetPrisonerNumbers(ctx context.Context, page, pageSize int) ([]string, error)
}

// IncentivesAPI returns the current incentive level for a booking; nil when none.
type IncentivesAPI interface {
	GetCurrentIncentive(ctx context.Context, bookingID int64) (*IncentiveLevel, error)
}

// RestrictedPatientsAPI returns the restricted-patient record; nil when the
// person is not a restricted patient.
type RestrictedPatientsAPI interface {
	GetRestrictedPatient(ctx context.Context, prisonerNumber string) (*RestrictedPatient, error)
}
