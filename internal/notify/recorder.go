package notify

import (
	"context"
	"fmt"
	"io"
	"time"

	"mturk-tools/internal/archive"
	"mturk-tools/internal/shared/metrics"
)

// Recorder stores events in the archive and prints one line per new event.
type Recorder struct {
	Repo archive.Repo
	Out  io.Writer
	Now  func() time.Time
}

// Handle implements Handler. Each event gets a stable id derived from the
// SQS message so redeliveries are recognised.
func (r *Recorder) Handle(ctx context.Context, messageID string, doc Document) error {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	for i, e := range doc.Events {
		rec := archive.Event{
			MessageID:    eventID(messageID, doc.EventDocID, i),
			EventType:    e.EventType,
			HITID:        e.HITID,
			HITTypeID:    e.HITTypeID,
			AssignmentID: e.AssignmentID,
			ReceivedAt:   now().UTC(),
		}
		if t, ok := e.Time(); ok {
			rec.EventTime = &t
		}
		isNew, err := r.Repo.RecordEvent(ctx, rec)
		if err != nil {
			return fmt.Errorf("record event %s: %w", rec.MessageID, err)
		}
		if !isNew {
			metrics.IncEventsDuplicate()
			continue
		}
		metrics.IncEventsRecorded()
		if r.Out != nil {
			fmt.Fprintf(r.Out, "%s\t%s\t%s\t%s\n", e.EventTimestamp, e.EventType, e.HITID, e.AssignmentID)
		}
	}
	return nil
}

func eventID(messageID, docID string, index int) string {
	base := docID
	if base == "" {
		base = messageID
	}
	return fmt.Sprintf("%s#%d", base, index)
}
