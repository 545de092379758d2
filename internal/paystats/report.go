package paystats

import (
	"fmt"
	"io"
)

// Options controls one analysis run.
type Options struct {
	// Pay is the reward per assignment in dollars.
	Pay            float64
	RemoveRejected bool
	RemoveOutliers bool
}

// Report is the outcome of Analyze. Durations is the analyzed sample in record order.
type Report struct {
	Options        Options
	Total          int
	AfterRejected  int
	BeforeOutliers int
	AfterOutliers  int
	Durations      []float64
	Summary        Summary
	Pay            HourlyPay
}

// Analyze runs the filtering and statistics pipeline over records.
func Analyze(records []Record, opts Options) (Report, error) {
	if opts.Pay <= 0 {
		return Report{}, ErrInvalidPay
	}
	rep := Report{Options: opts, Total: len(records)}

	if opts.RemoveRejected {
		records = FilterRejected(records)
	}
	rep.AfterRejected = len(records)

	durations, err := Durations(records)
	if err != nil {
		return Report{}, err
	}
	rep.BeforeOutliers = len(durations)

	if opts.RemoveOutliers && len(durations) > 0 {
		if durations, err = RemoveOutliers(durations); err != nil {
			return Report{}, err
		}
	}
	rep.AfterOutliers = len(durations)

	summary, err := Summarize(durations)
	if err != nil {
		return Report{}, err
	}
	if summary.Min <= 0 {
		return Report{}, fmt.Errorf("%w (fastest of %d samples)", ErrDegenerateSample, summary.Count)
	}
	rep.Durations = durations
	rep.Summary = summary
	rep.Pay = summary.Hourly(opts.Pay)
	return rep, nil
}

// WriteText renders the report for the console.
func (r Report) WriteText(w io.Writer) error {
	ew := &errWriter{w: w}
	if r.Options.RemoveRejected {
		ew.printf("Workers before filtering rejected: %d\n", r.Total)
		ew.printf("Workers after filtering rejected: %d\n", r.AfterRejected)
	}
	if r.Options.RemoveOutliers {
		ew.printf("Workers before filtering outliers: %d\n", r.BeforeOutliers)
		ew.printf("Workers after filtering outliers: %d\n", r.AfterOutliers)
	}

	s := r.Summary
	ew.printf("\nFastest time: %s\n", seconds(s.Min))
	ew.printf("Slowest time: %s\n", seconds(s.Max))
	ew.printf("Median time: %s\n", seconds(s.Median))
	ew.printf("Mean time: %s\n", seconds(s.Mean))
	ew.printf("Standard deviation: %s\n", seconds(s.StdDev))
	ew.printf("98%% of workers should be between %s and %s\n", seconds(s.Band.Low), seconds(s.Band.High))

	ew.printf("\nMinimum hourly pay: $%.2f\n", r.Pay.Min)
	ew.printf("Mean hourly pay: $%.2f\n", r.Pay.Mean)
	ew.printf("Median hourly pay: $%.2f\n", r.Pay.Median)
	ew.printf("Maximum hourly pay: $%.2f\n", r.Pay.Max)
	return ew.err
}

func seconds(v float64) string {
	return fmt.Sprintf("%.2f seconds (%.2f minutes)", v, v/60)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
