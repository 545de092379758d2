package paystats

import (
	"fmt"
	"strings"
	"time"

	"mturk-tools/internal/results"
)

// StatusRejected is the assignment status dropped by Options.RemoveRejected.
const StatusRejected = "Rejected"

// Record carries what the engine needs from one assignment.
type Record struct {
	AssignmentID string
	Status       string
	AcceptTime   *time.Time
	SubmitTime   *time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"Mon Jan 02 15:04:05 MST 2006",
}

// ParseTime accepts the timestamp formats written by this toolkit and by older results files.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// RecordsFromRows converts results-file rows. Empty timestamps become nil.
func RecordsFromRows(rows []results.Row) ([]Record, error) {
	out := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec := Record{AssignmentID: row["assignmentid"], Status: row["assignmentstatus"]}
		var err error
		if rec.AcceptTime, err = optionalTime(row["assignmentaccepttime"]); err != nil {
			return nil, fmt.Errorf("row %d accept time: %w", i+1, err)
		}
		if rec.SubmitTime, err = optionalTime(row["assignmentsubmittime"]); err != nil {
			return nil, fmt.Errorf("row %d submit time: %w", i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// RecordsFromSubmissions converts fetched submissions.
func RecordsFromSubmissions(subs []results.Submission) []Record {
	out := make([]Record, len(subs))
	for i, s := range subs {
		out[i] = Record{AssignmentID: s.ID, Status: s.Status, AcceptTime: s.AcceptTime, SubmitTime: s.SubmitTime}
	}
	return out
}

// FilterRejected drops records whose status is Rejected.
func FilterRejected(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Status != StatusRejected {
			out = append(out, r)
		}
	}
	return out
}

// Durations returns submit minus accept time in seconds, preserving record order.
// A submit time before the accept time is an *InvalidDurationError.
func Durations(records []Record) ([]float64, error) {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if r.AcceptTime == nil {
			return nil, &MissingTimestampError{AssignmentID: r.AssignmentID, Field: "accept time"}
		}
		if r.SubmitTime == nil {
			return nil, &MissingTimestampError{AssignmentID: r.AssignmentID, Field: "submit time"}
		}
		d := r.SubmitTime.Sub(*r.AcceptTime).Seconds()
		if d < 0 {
			return nil, &InvalidDurationError{AssignmentID: r.AssignmentID, Seconds: d}
		}
		out = append(out, d)
	}
	return out, nil
}

func optionalTime(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := ParseTime(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
