package local

import (
	"context"
	"io"
	"strings"
	"testing"
)

func TestPutThenOpen(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	ctx := context.Background()

	n, err := store.Put(ctx, "batch/20240301T120000Z_pilot.results", "text/tab-separated-values", strings.NewReader("hitid\n1\n"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n != 8 {
		t.Fatalf("expected 8 bytes written, got %d", n)
	}

	rc, err := store.Open(ctx, "batch/20240301T120000Z_pilot.results")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hitid\n1\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestRejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	store := New(t.TempDir())
	for _, key := range []string{"../outside", "/etc/passwd", ""} {
		if _, err := store.Put(context.Background(), key, "", strings.NewReader("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(t.TempDir()).Open(ctx, "a/b"); err == nil {
		t.Fatalf("expected context error")
	}
}
