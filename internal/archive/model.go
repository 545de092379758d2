package archive

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"mturk-tools/internal/results"
	"mturk-tools/internal/shared/util"
)

var ErrNotFound = errors.New("not found")

// Batch is an archived results table.
type Batch struct {
	ID           string
	Name         string
	Sandbox      bool
	Digest       string
	Columns      []string
	RowCount     int
	SkippedCount int
	ArtifactKey  string
	CreatedAt    time.Time
}

// StoredRow is one archived results row.
type StoredRow struct {
	Position     int
	AssignmentID string
	HITID        string
	WorkerID     string
	Status       string
	Fields       results.Row
}

// Event is an MTurk notification delivered through SQS.
type Event struct {
	MessageID    string
	EventType    string
	HITID        string
	HITTypeID    string
	AssignmentID string
	EventTime    *time.Time
	ReceivedAt   time.Time
}

// NewBatch describes a flattened batch for archiving. table is the exact
// serialized results file, used to detect repeated fetches of identical data.
func NewBatch(name string, sandbox bool, b results.Batch, table []byte, now time.Time) Batch {
	return Batch{
		ID:           uuid.NewString(),
		Name:         name,
		Sandbox:      sandbox,
		Digest:       util.Digest(table),
		Columns:      b.Columns,
		RowCount:     len(b.Rows),
		SkippedCount: len(b.Skipped),
		CreatedAt:    now.UTC(),
	}
}

// StoredRows indexes rows in table order.
func StoredRows(rows []results.Row) []StoredRow {
	out := make([]StoredRow, len(rows))
	for i, r := range rows {
		out[i] = StoredRow{
			Position:     i,
			AssignmentID: r["assignmentid"],
			HITID:        r["hitid"],
			WorkerID:     r["workerid"],
			Status:       r["assignmentstatus"],
			Fields:       r,
		}
	}
	return out
}
