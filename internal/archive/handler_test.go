package archive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"mturk-tools/internal/results"
)

func timedBatch() results.Batch {
	row := func(id, status, accept, submit string) results.Row {
		return results.Row{
			"hitid":                "H1",
			"assignmentid":         id,
			"workerid":             "W" + id,
			"assignmentstatus":     status,
			"assignmentaccepttime": accept,
			"assignmentsubmittime": submit,
		}
	}
	return results.Batch{
		Columns: []string{"hitid", "assignmentid", "workerid", "assignmentstatus", "assignmentaccepttime", "assignmentsubmittime"},
		Rows: []results.Row{
			row("A1", "Approved", "2024-03-01T10:00:00Z", "2024-03-01T10:01:00Z"),
			row("A2", "Approved", "2024-03-01T10:00:00Z", "2024-03-01T10:02:00Z"),
			row("A3", "Rejected", "2024-03-01T10:00:00Z", "2024-03-01T10:00:10Z"),
		},
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, Batch) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := NewMemoryRepo()
	svc := &Service{Repo: repo, Now: func() time.Time { return time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC) }}
	stored, _, err := svc.Archive(context.Background(), "pilot.success.yaml", "pilot.results", false, timedBatch(), []byte("table"))
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if _, err := repo.RecordEvent(context.Background(), Event{
		MessageID: "doc-1#0", EventType: "AssignmentSubmitted", HITID: "H1", AssignmentID: "A1", ReceivedAt: time.Now(),
	}); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}

	r := gin.New()
	NewHandler(repo).RegisterRoutes(r.Group("/api/v1"))
	return r, stored
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
	return resp
}

func TestHandlerListAndGetBatch(t *testing.T) {
	r, stored := newTestRouter(t)

	resp := get(r, "/api/v1/batches?limit=5")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var page struct {
		Items []BatchResponse `json:"items"`
		Limit int             `json:"limit"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].BatchID != stored.ID || page.Limit != 5 {
		t.Fatalf("unexpected page %+v", page)
	}

	one := get(r, "/api/v1/batches/"+stored.ID)
	var got BatchResponse
	if err := json.NewDecoder(one.Body).Decode(&got); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if got.RowCount != 3 || got.Name != "pilot.success.yaml" {
		t.Fatalf("unexpected batch %+v", got)
	}
}

func TestHandlerValidatesPaging(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/batches?limit=0", "/api/v1/batches?limit=x", "/api/v1/batches?offset=-1"} {
		if resp := get(r, path); resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, resp.Code)
		}
	}
}

func TestHandlerUnknownBatch(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := get(r, "/api/v1/batches/missing/rows")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"code":"not_found"`) {
		t.Fatalf("unexpected body %s", resp.Body.String())
	}
}

func TestHandlerDownloadTable(t *testing.T) {
	r, stored := newTestRouter(t)

	resp := get(r, "/api/v1/batches/"+stored.ID+"/results.tsv")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Content-Disposition"); !strings.Contains(got, "pilot.success.yaml.results") {
		t.Fatalf("unexpected disposition %q", got)
	}
	header, rows, err := results.ReadTable(resp.Body)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(header) != 6 || len(rows) != 3 || rows[2]["assignmentid"] != "A3" {
		t.Fatalf("unexpected table %v %v", header, rows)
	}
}

func TestHandlerStats(t *testing.T) {
	r, stored := newTestRouter(t)

	resp := get(r, "/api/v1/batches/"+stored.ID+"/stats?pay=0.5&removeRejected=true")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var stats StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 3 || stats.AfterRejected != 2 {
		t.Fatalf("unexpected counts %+v", stats)
	}
	if stats.Seconds.Min != 60 || stats.Seconds.Max != 120 || stats.Seconds.Mean != 90 {
		t.Fatalf("unexpected seconds %+v", stats.Seconds)
	}
	if stats.Hourly.Max != 30 || stats.Hourly.Min != 15 {
		t.Fatalf("unexpected hourly %+v", stats.Hourly)
	}
}

func TestHandlerStatsRejectsBadPay(t *testing.T) {
	r, stored := newTestRouter(t)

	for _, q := range []string{"", "?pay=abc", "?pay=0", "?pay=-1"} {
		if resp := get(r, "/api/v1/batches/"+stored.ID+"/stats"+q); resp.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", q, resp.Code)
		}
	}
}

func TestHandlerListEvents(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := get(r, "/api/v1/hits/H1/events")
	var page struct {
		Items []EventResponse `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].AssignmentID != "A1" {
		t.Fatalf("unexpected events %+v", page.Items)
	}

	empty := get(r, "/api/v1/hits/NONE/events")
	if !strings.Contains(empty.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty array, got %s", empty.Body.String())
	}
}
