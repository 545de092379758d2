package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyBody indicates a queue message without payload.
var ErrEmptyBody = errors.New("empty message body")

// Document is the JSON body MTurk delivers to an SQS destination.
type Document struct {
	EventDocID      string  `json:"EventDocId"`
	EventDocVersion string  `json:"EventDocVersion"`
	SourceAccount   string  `json:"SourceAccount"`
	CustomerID      string  `json:"CustomerId"`
	Events          []Event `json:"Events"`
}

// Event is a single HIT or assignment state change.
type Event struct {
	EventType      string `json:"EventType"`
	EventTimestamp string `json:"EventTimestamp"`
	HITTypeID      string `json:"HITTypeId"`
	HITID          string `json:"HITId"`
	AssignmentID   string `json:"AssignmentId,omitempty"`
}

// Time parses the event timestamp; the zero value is returned when absent or malformed.
func (e Event) Time() (time.Time, bool) {
	if strings.TrimSpace(e.EventTimestamp) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, e.EventTimestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DecodeDocument parses an event document. Documents without events or with
// events lacking a type or HIT id are rejected.
func DecodeDocument(body string) (Document, error) {
	if strings.TrimSpace(body) == "" {
		return Document{}, ErrEmptyBody
	}
	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return Document{}, fmt.Errorf("decode event document: %w", err)
	}
	if len(doc.Events) == 0 {
		return Document{}, errors.New("event document has no events")
	}
	for i, e := range doc.Events {
		if e.EventType == "" || e.HITID == "" {
			return Document{}, fmt.Errorf("event %d: missing EventType or HITId", i)
		}
	}
	return doc, nil
}

// EncodeDocument returns the JSON form of doc.
func EncodeDocument(doc Document) ([]byte, error) {
	return json.Marshal(doc)
}
