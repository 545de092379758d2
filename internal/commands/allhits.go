package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"mturk-tools/internal/results"
)

// AllHITs writes every HIT on the account to all_hits-<timestamp>.csv.
func AllHITs(ctx context.Context, e Env, args []string) error {
	fs := newFlagSet("allhits", e)
	var market marketFlags
	market.register(fs, e.Config)
	dir := fs.String("o", ".", "directory for the listing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := e.client(ctx, market)
	if err != nil {
		return err
	}
	tasks, err := client.ListTasks(ctx)
	if err != nil {
		return err
	}

	now := e.now()
	path := filepath.Join(*dir, results.TaskListName(now))
	if err := writeFile(path, func(w io.Writer) error { return results.WriteTaskList(w, tasks, now) }); err != nil {
		return fmt.Errorf("write hit listing: %w", err)
	}
	fmt.Fprintf(e.Stdout, "Wrote %d HITs to %s\n", len(tasks), path)
	return nil
}
