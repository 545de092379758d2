package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		db       Pinger
		wantOK   bool
		database string
	}{
		{name: "memory", db: nil, wantOK: true, database: "memory"},
		{name: "reachable", db: fakePinger{}, wantOK: true, database: "ok"},
		{name: "unreachable", db: fakePinger{err: errors.New("refused")}, wantOK: false, database: "unreachable"},
	}
	for _, tt := range tests {
		status, ok := NewService(tt.db).Status(context.Background())
		if ok != tt.wantOK || status["database"] != tt.database {
			t.Fatalf("%s: got ok=%v status=%v", tt.name, ok, status)
		}
	}
}
