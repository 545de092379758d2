package paystats

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

const tolerance = 1e-6

func approx(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestRemoveOutliersDropsFarValue(t *testing.T) {
	t.Parallel()

	// Three copies of 10..40 plus one far value. With only five samples no
	// single value can sit more than (n-1)/sqrt(n) ≈ 1.79σ from the mean.
	in := []float64{10, 20, 30, 40, 10, 20, 30, 40, 10, 20, 30, 40, 1000}
	got, err := RemoveOutliers(in)
	if err != nil {
		t.Fatalf("RemoveOutliers: %v", err)
	}
	want := []float64{10, 20, 30, 40, 10, 20, 30, 40, 10, 20, 30, 40}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RemoveOutliers = %v, want %v", got, want)
	}

	s, err := Summarize(got)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Min != 10 || s.Max != 40 || !approx(s.Mean, 25) || !approx(s.Median, 25) || !approx(s.StdDev, math.Sqrt(125)) {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestFiveSampleBandKeepsEverything(t *testing.T) {
	t.Parallel()

	in := []float64{10, 20, 30, 40, 1000}
	band, err := OutlierBand(in)
	if err != nil {
		t.Fatalf("OutlierBand: %v", err)
	}
	if !approx(band.High, 220+2*math.Sqrt(152200)) {
		t.Fatalf("unexpected band %+v", band)
	}
	if got := band.Filter(in); len(got) != len(in) {
		t.Fatalf("expected every value inside the band, got %v", got)
	}
}

func TestBandFilterIsIdempotent(t *testing.T) {
	t.Parallel()

	in := []float64{12, 15, 14, 13, 16, 300, 14, 15, 13, 12, 14}
	band, err := OutlierBand(in)
	if err != nil {
		t.Fatalf("OutlierBand: %v", err)
	}
	once := band.Filter(in)
	twice := band.Filter(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter not idempotent: %v vs %v", once, twice)
	}
	if len(once) != len(in)-1 {
		t.Fatalf("expected one value removed, got %v", once)
	}
}

func TestBandFilterZeroWidthKeepsAll(t *testing.T) {
	t.Parallel()

	in := []float64{30, 30, 30}
	got, err := RemoveOutliers(in)
	if err != nil {
		t.Fatalf("RemoveOutliers: %v", err)
	}
	if !reflect.DeepEqual(got, in) {
		t.Fatalf("expected all values kept, got %v", got)
	}
}

func TestSummarizeAndHourly(t *testing.T) {
	t.Parallel()

	s, err := Summarize([]float64{40, 10, 30, 20})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Count != 4 || s.Min != 10 || s.Max != 40 || !approx(s.Median, 25) || !approx(s.Mean, 25) {
		t.Fatalf("unexpected summary %+v", s)
	}
	if !approx(s.Band.Low, 25-2*math.Sqrt(125)) || !approx(s.Band.High, 25+2*math.Sqrt(125)) {
		t.Fatalf("unexpected band %+v", s.Band)
	}

	pay := s.Hourly(1.0)
	if !approx(pay.Max, 360) || !approx(pay.Min, 90) || !approx(pay.Mean, 144) || !approx(pay.Median, 144) {
		t.Fatalf("unexpected pay %+v", pay)
	}
}

func TestSummarizeOddMedian(t *testing.T) {
	t.Parallel()

	s, err := Summarize([]float64{5, 1, 3})
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if s.Median != 3 {
		t.Fatalf("median = %v, want 3", s.Median)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Summarize(nil); !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
	if _, err := RemoveOutliers(nil); !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
}

func TestDurationsRequireBothTimestamps(t *testing.T) {
	t.Parallel()

	accept := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := Durations([]Record{{AssignmentID: "A1", AcceptTime: &accept}})
	var missing *MissingTimestampError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingTimestampError, got %v", err)
	}
	if missing.AssignmentID != "A1" || missing.Field != "submit time" {
		t.Fatalf("unexpected error detail %+v", missing)
	}
}

func TestSturgesBins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want int
	}{
		{n: 0, want: 1},
		{n: 1, want: 1},
		{n: 2, want: 2},
		{n: 8, want: 4},
		{n: 9, want: 5},
		{n: 100, want: 8},
	}
	for _, tt := range tests {
		if got := SturgesBins(tt.n); got != tt.want {
			t.Fatalf("SturgesBins(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
