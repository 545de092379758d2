package archive

import (
	"time"

	"mturk-tools/internal/paystats"
)

// BatchResponse is the outward-facing representation of an archived batch.
type BatchResponse struct {
	BatchID      string    `json:"batchId"`
	Name         string    `json:"name"`
	Sandbox      bool      `json:"sandbox"`
	Digest       string    `json:"digest"`
	Columns      []string  `json:"columns"`
	RowCount     int       `json:"rowCount"`
	SkippedCount int       `json:"skippedCount"`
	ArtifactKey  string    `json:"artifactKey,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RowResponse is one archived row.
type RowResponse struct {
	Position     int               `json:"position"`
	AssignmentID string            `json:"assignmentId"`
	HITID        string            `json:"hitId"`
	WorkerID     string            `json:"workerId"`
	Status       string            `json:"status"`
	Fields       map[string]string `json:"fields"`
}

// EventResponse is one recorded notification event.
type EventResponse struct {
	MessageID    string     `json:"messageId"`
	EventType    string     `json:"eventType"`
	HITID        string     `json:"hitId"`
	HITTypeID    string     `json:"hitTypeId"`
	AssignmentID string     `json:"assignmentId,omitempty"`
	EventTime    *time.Time `json:"eventTime,omitempty"`
	ReceivedAt   time.Time  `json:"receivedAt"`
}

// StatsResponse mirrors paystats.Report.
type StatsResponse struct {
	Pay            float64 `json:"pay"`
	RemoveRejected bool    `json:"removeRejected"`
	RemoveOutliers bool    `json:"removeOutliers"`
	Total          int     `json:"total"`
	AfterRejected  int     `json:"afterRejected"`
	AfterOutliers  int     `json:"afterOutliers"`
	Seconds        struct {
		Min    float64 `json:"min"`
		Max    float64 `json:"max"`
		Mean   float64 `json:"mean"`
		Median float64 `json:"median"`
		StdDev float64 `json:"stdDev"`
		Low    float64 `json:"low"`
		High   float64 `json:"high"`
	} `json:"seconds"`
	Hourly struct {
		Min    float64 `json:"min"`
		Mean   float64 `json:"mean"`
		Median float64 `json:"median"`
		Max    float64 `json:"max"`
	} `json:"hourly"`
}

func toBatchResponse(b Batch) BatchResponse {
	cols := b.Columns
	if cols == nil {
		cols = []string{}
	}
	return BatchResponse{
		BatchID:      b.ID,
		Name:         b.Name,
		Sandbox:      b.Sandbox,
		Digest:       b.Digest,
		Columns:      cols,
		RowCount:     b.RowCount,
		SkippedCount: b.SkippedCount,
		ArtifactKey:  b.ArtifactKey,
		CreatedAt:    b.CreatedAt,
	}
}

func toRowResponse(r StoredRow) RowResponse {
	return RowResponse{
		Position:     r.Position,
		AssignmentID: r.AssignmentID,
		HITID:        r.HITID,
		WorkerID:     r.WorkerID,
		Status:       r.Status,
		Fields:       r.Fields,
	}
}

func toEventResponse(e Event) EventResponse {
	return EventResponse{
		MessageID:    e.MessageID,
		EventType:    e.EventType,
		HITID:        e.HITID,
		HITTypeID:    e.HITTypeID,
		AssignmentID: e.AssignmentID,
		EventTime:    e.EventTime,
		ReceivedAt:   e.ReceivedAt,
	}
}

func toStatsResponse(r paystats.Report) StatsResponse {
	var out StatsResponse
	out.Pay = r.Options.Pay
	out.RemoveRejected = r.Options.RemoveRejected
	out.RemoveOutliers = r.Options.RemoveOutliers
	out.Total = r.Total
	out.AfterRejected = r.AfterRejected
	out.AfterOutliers = r.AfterOutliers
	out.Seconds.Min = r.Summary.Min
	out.Seconds.Max = r.Summary.Max
	out.Seconds.Mean = r.Summary.Mean
	out.Seconds.Median = r.Summary.Median
	out.Seconds.StdDev = r.Summary.StdDev
	out.Seconds.Low = r.Summary.Band.Low
	out.Seconds.High = r.Summary.Band.High
	out.Hourly.Min = r.Pay.Min
	out.Hourly.Mean = r.Pay.Mean
	out.Hourly.Median = r.Pay.Median
	out.Hourly.Max = r.Pay.Max
	return out
}
