package commands

import (
	"context"
	"fmt"

	"mturk-tools/internal/paystats"
)

// PayStats reports completion-time and hourly-pay statistics over one or
// more results files. Files are concatenated.
func PayStats(ctx context.Context, e Env, args []string) error {
	_ = ctx
	fs := newFlagSet("paystats", e)
	var files stringList
	fs.Var(&files, "r", "results file (repeatable)")
	pay := fs.Float64("pay", 0, "pay per assignment in dollars")
	removeRejected := fs.Bool("remove-rejected", false, "drop rejected assignments")
	removeOutliers := fs.Bool("remove-outliers", false, "drop times outside mean ± 2 standard deviations")
	plotPath := fs.String("plot", "", "write a histogram of completion times to this image file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	files = append(files, fs.Args()...)
	payRaw := ""
	if *pay != 0 {
		payRaw = fmt.Sprint(*pay)
	}
	if err := requireFlags("paystats", map[string]string{"r": files.String(), "pay": payRaw}, "r", "pay"); err != nil {
		return err
	}

	records, err := paystats.LoadRecords(files...)
	if err != nil {
		return err
	}
	report, err := paystats.Analyze(records, paystats.Options{
		Pay:            *pay,
		RemoveRejected: *removeRejected,
		RemoveOutliers: *removeOutliers,
	})
	if err != nil {
		return err
	}
	if err := report.WriteText(e.Stdout); err != nil {
		return err
	}
	if *plotPath != "" {
		if err := paystats.PlotHistogram(report.Durations, *plotPath); err != nil {
			return err
		}
		fmt.Fprintf(e.Stdout, "\nHistogram saved to %s\n", *plotPath)
	}
	return nil
}
