package commands

import (
	"context"
	"fmt"
	"os"

	"mturk-tools/internal/results"
)

// AssignQual grants a qualification to every worker in a results file.
func AssignQual(ctx context.Context, e Env, args []string) error {
	fs := newFlagSet("assignqual", e)
	var market marketFlags
	market.register(fs, e.Config)
	qualID := fs.String("q", "", "qualification type id")
	resultsPath := fs.String("r", "", "tab-delimited results file")
	value := int32Value(1)
	fs.Var(&value, "value", "integer value to assign")
	notify := fs.Bool("notify", false, "send the worker a notification")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags("assignqual", map[string]string{"q": *qualID, "r": *resultsPath}, "q", "r"); err != nil {
		return err
	}

	f, err := os.Open(*resultsPath)
	if err != nil {
		return fmt.Errorf("open results file: %w", err)
	}
	header, rows, err := results.ReadTable(f)
	_ = f.Close()
	if err != nil {
		return err
	}
	if !contains(header, "workerid") {
		return &results.MissingFieldsError{Source: *resultsPath, Fields: []string{"workerid"}}
	}
	workers := make([]string, len(rows))
	for i, row := range rows {
		workers[i] = row["workerid"]
	}

	client, err := e.client(ctx, market)
	if err != nil {
		return err
	}
	granted, err := client.AssignQualification(ctx, *qualID, int32(value), *notify, workers)
	for _, w := range granted {
		fmt.Fprintf(e.Stdout, "Assigned %s to %s\n", *qualID, w)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(e.Stdout, "%d workers qualified\n", len(granted))
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
