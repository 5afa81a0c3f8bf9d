package orchestrator

import (
	"errors"
	"fmt"

	"github.com/ministryofjustice/hmpps-prisoner-search/internal/indexstatus"
	"github.com/ministryofjustice/hmpps-prisoner-search/internal/telemetry"
)

var (
	ErrBuildAlreadyInProgress = indexstatus.ErrBuildAlreadyInProgress
	ErrBuildNotInProgress     = errors.New("index build not in progress")
	ErrActiveMessagesExist    = errors.New("index queue has outstanding messages")
	ErrThresholdNotReached    = errors.New("index document count below completion threshold")
	ErrWrongIndexRequested    = errors.New("populate requested for an index that is not being built")
	ErrNoActiveIndexes        = errors.New("no index is active")
	ErrBuildAbsent            = errors.New("index has never been built")
	ErrBuildCancelled         = errors.New("index build was cancelled")
)

// PreconditionError reports an operation refused because of the current
// index status. Nothing was mutated.
type PreconditionError struct {
	Err    error
	Status indexstatus.IndexStatus
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%v (%s)", e.Err, e.Status)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// IsPrecondition reports whether err is a refused precondition.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

var reasons = map[error]string{
	ErrBuildAlreadyInProgress: "build_in_progress",
	ErrBuildNotInProgress:     "build_not_in_progress",
	ErrActiveMessagesExist:    "active_messages",
	ErrThresholdNotReached:    "threshold_not_reached",
	ErrWrongIndexRequested:    "wrong_index",
	ErrNoActiveIndexes:        "no_active_indexes",
	ErrBuildAbsent:            "build_absent",
	ErrBuildCancelled:         "build_cancelled",
}

func refuse(operation string, err error, status indexstatus.IndexStatus) error {
	telemetry.PreconditionFailures.WithLabelValues(operation, reasons[err]).Inc()
	return &PreconditionError{Err: err, Status: status}
}

// asPrecondition converts a sentinel returned from inside a status update
// into a PreconditionError; other errors pass through.
func asPrecondition(operation string, err error, status indexstatus.IndexStatus) error {
	if _, ok := reasons[err]; ok {
		return refuse(operation, err, status)
	}
	return err
}
