package paystats

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mturk-tools/internal/results"
)

func resultsRows(t *testing.T) []results.Row {
	t.Helper()
	return []results.Row{
		{"assignmentid": "A1", "assignmentstatus": "Approved", "assignmentaccepttime": "2024-01-01T10:00:00Z", "assignmentsubmittime": "2024-01-01T10:00:10Z"},
		{"assignmentid": "A2", "assignmentstatus": "Submitted", "assignmentaccepttime": "2024-01-01 10:00:00+00:00", "assignmentsubmittime": "2024-01-01 10:00:20+00:00"},
		{"assignmentid": "A3", "assignmentstatus": "Approved", "assignmentaccepttime": "2024-01-01T10:00:00Z", "assignmentsubmittime": "2024-01-01T10:00:30Z"},
		{"assignmentid": "A4", "assignmentstatus": "Approved", "assignmentaccepttime": "2024-01-01T10:00:00Z", "assignmentsubmittime": "2024-01-01T10:00:40Z"},
		{"assignmentid": "A5", "assignmentstatus": "Rejected", "assignmentaccepttime": "2024-01-01T10:00:00Z", "assignmentsubmittime": "2024-01-01T10:16:40Z"},
	}
}

func TestAnalyzeRemovesRejected(t *testing.T) {
	t.Parallel()

	records, err := RecordsFromRows(resultsRows(t))
	if err != nil {
		t.Fatalf("RecordsFromRows: %v", err)
	}

	rep, err := Analyze(records, Options{Pay: 1.0, RemoveRejected: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Total != 5 || rep.AfterRejected != 4 {
		t.Fatalf("unexpected counts %+v", rep)
	}
	if rep.Summary.Min != 10 || rep.Summary.Max != 40 {
		t.Fatalf("unexpected summary %+v", rep.Summary)
	}
	if !approx(rep.Pay.Max, 360) || !approx(rep.Pay.Min, 90) {
		t.Fatalf("unexpected pay %+v", rep.Pay)
	}
}

func TestAnalyzeKeepsRejectedByDefault(t *testing.T) {
	t.Parallel()

	records, err := RecordsFromRows(resultsRows(t))
	if err != nil {
		t.Fatalf("RecordsFromRows: %v", err)
	}
	rep, err := Analyze(records, Options{Pay: 0.5})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if rep.Summary.Max != 1000 || rep.Summary.Count != 5 {
		t.Fatalf("unexpected summary %+v", rep.Summary)
	}
}

func TestAnalyzeEmptyFails(t *testing.T) {
	t.Parallel()

	_, err := Analyze(nil, Options{Pay: 1, RemoveOutliers: true})
	if !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}

	onlyRejected := []Record{{AssignmentID: "A1", Status: StatusRejected}}
	if _, err := Analyze(onlyRejected, Options{Pay: 1, RemoveRejected: true}); !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples after filtering, got %v", err)
	}
}

func TestAnalyzeRejectsNonPositivePay(t *testing.T) {
	t.Parallel()

	if _, err := Analyze(nil, Options{Pay: 0}); !errors.Is(err, ErrInvalidPay) {
		t.Fatalf("expected ErrInvalidPay, got %v", err)
	}
}

func TestReportWriteText(t *testing.T) {
	t.Parallel()

	records, err := RecordsFromRows(resultsRows(t)[:4])
	if err != nil {
		t.Fatalf("RecordsFromRows: %v", err)
	}
	rep, err := Analyze(records, Options{Pay: 1.0, RemoveOutliers: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var buf bytes.Buffer
	if err := rep.WriteText(&buf); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Workers before filtering outliers: 4",
		"Fastest time: 10.00 seconds (0.17 minutes)",
		"Slowest time: 40.00 seconds (0.67 minutes)",
		"Median time: 25.00 seconds",
		"Minimum hourly pay: $90.00",
		"Maximum hourly pay: $360.00",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "filtering rejected") {
		t.Fatalf("rejected counts printed without the option:\n%s", out)
	}
}

func TestLoadRecordsConcatenatesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rows := resultsRows(t)
	header := []string{"assignmentid", "assignmentstatus", "assignmentaccepttime", "assignmentsubmittime"}
	var paths []string
	for i, chunk := range [][]results.Row{rows[:2], rows[2:]} {
		var buf bytes.Buffer
		if err := results.WriteTable(&buf, header, chunk); err != nil {
			t.Fatalf("WriteTable: %v", err)
		}
		path := filepath.Join(dir, "results"+string(rune('a'+i))+".tsv")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		paths = append(paths, path)
	}

	records, err := LoadRecords(paths...)
	if err != nil {
		t.Fatalf("LoadRecords: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("expected 5 records, got %d", len(records))
	}
}

func TestPlotHistogramWritesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hist.png")
	if err := PlotHistogram([]float64{10, 12, 15, 20, 22, 30}, path); err != nil {
		t.Fatalf("PlotHistogram: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected non-empty image")
	}
}

func TestAnalyzeRejectsDegenerateDurations(t *testing.T) {
	t.Parallel()

	accept := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	at := func(offset time.Duration) *time.Time {
		ts := accept.Add(offset)
		return &ts
	}

	zero := []Record{
		{AssignmentID: "A1", AcceptTime: at(0), SubmitTime: at(0)},
		{AssignmentID: "A2", AcceptTime: at(0), SubmitTime: at(time.Minute)},
	}
	if _, err := Analyze(zero, Options{Pay: 1}); !errors.Is(err, ErrDegenerateSample) {
		t.Fatalf("expected ErrDegenerateSample, got %v", err)
	}

	backwards := []Record{{AssignmentID: "A3", AcceptTime: at(time.Minute), SubmitTime: at(0)}}
	_, err := Analyze(backwards, Options{Pay: 1})
	var invalid *InvalidDurationError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidDurationError, got %v", err)
	}
	if invalid.AssignmentID != "A3" || invalid.Seconds != -60 {
		t.Fatalf("unexpected error %+v", invalid)
	}
	if !strings.Contains(err.Error(), "60 seconds before") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
