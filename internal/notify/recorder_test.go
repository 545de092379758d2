package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"mturk-tools/internal/archive"
)

func TestRecorderStoresEachEventOnce(t *testing.T) {
	t.Parallel()

	repo := archive.NewMemoryRepo()
	var out bytes.Buffer
	rec := &Recorder{Repo: repo, Out: &out}

	doc, err := DecodeDocument(submittedDoc)
	if err != nil {
		t.Fatalf("DecodeDocument: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := rec.Handle(context.Background(), "sqs-1", doc); err != nil {
			t.Fatalf("Handle: %v", err)
		}
	}

	events, err := repo.ListEvents(context.Background(), "H1")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 || events[0].MessageID != "doc-1#0" || events[0].EventTime == nil {
		t.Fatalf("unexpected events %+v", events)
	}
	if lines := strings.Count(out.String(), "\n"); lines != 1 {
		t.Fatalf("expected one printed line, got %d: %q", lines, out.String())
	}
}

func TestEventIDFallsBackToMessageID(t *testing.T) {
	t.Parallel()

	if got := eventID("sqs-1", "", 2); got != "sqs-1#2" {
		t.Fatalf("eventID = %q", got)
	}
}
