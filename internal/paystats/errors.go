package paystats

import (
	"errors"
	"fmt"
)

// ErrNoSamples is returned when no durations survive filtering.
var ErrNoSamples = errors.New("paystats: no completion times to analyze")

// ErrInvalidPay is returned for a non-positive piece rate.
var ErrInvalidPay = errors.New("paystats: pay per assignment must be positive")

// MissingTimestampError reports a record that cannot produce a duration.
type MissingTimestampError struct {
	AssignmentID string
	Field        string
}

func (e *MissingTimestampError) Error() string {
	return fmt.Sprintf("paystats: assignment %q has no %s", e.AssignmentID, e.Field)
}

// ErrDegenerateSample is returned when a duration in the sample is zero, which has no hourly rate.
var ErrDegenerateSample = errors.New("paystats: completion time of zero seconds cannot be converted to hourly pay")

// InvalidDurationError reports a record submitted before it was accepted.
type InvalidDurationError struct {
	AssignmentID string
	Seconds      float64
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("paystats: assignment %q was submitted %.0f seconds before it was accepted", e.AssignmentID, -e.Seconds)
}
