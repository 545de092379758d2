package object

import (
	"testing"
	"time"
)

func TestArtifactKey(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 1, 13, 0, 0, 0, time.FixedZone("CET", 3600))
	got, err := ArtifactKey("exp/pilot.success.yaml", "exp/pilot.results", at)
	if err != nil {
		t.Fatalf("ArtifactKey: %v", err)
	}
	if want := "pilot.success.yaml/20240301T120000Z_pilot.results"; got != want {
		t.Fatalf("ArtifactKey = %q, want %q", got, want)
	}
	if _, err := ArtifactKey("..", "x", at); err == nil {
		t.Fatalf("expected error for traversal batch name")
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"a.success.yaml": "application/yaml",
		"hist.PNG":       "image/png",
		"all_hits.csv":   "text/csv",
		"pilot.results":  "text/tab-separated-values",
	}
	for in, want := range tests {
		if got := ContentType(in); got != want {
			t.Fatalf("ContentType(%q) = %q, want %q", in, got, want)
		}
	}
}
