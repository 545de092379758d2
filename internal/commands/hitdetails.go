package commands

import (
	"context"
	"fmt"

	"mturk-tools/internal/requester"
)

// HITDetails prints a summary of each HIT in a batch descriptor.
func HITDetails(ctx context.Context, e Env, args []string) error {
	fs := newFlagSet("hitdetails", e)
	var market marketFlags
	market.register(fs, e.Config)
	successPath := fs.String("f", "", "YAML batch descriptor written by loadhit")
	verbose := fs.Bool("v", true, "include description and keywords")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags("hitdetails", map[string]string{"f": *successPath}, "f"); err != nil {
		return err
	}

	entries, err := readDescriptorFile(*successPath)
	if err != nil {
		return err
	}
	client, err := e.client(ctx, market)
	if err != nil {
		return err
	}

	now := e.now()
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.HITID] {
			continue
		}
		seen[entry.HITID] = true
		task, err := client.GetTask(ctx, entry.HITID)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.Stdout, requester.Summary(task, client.Sandbox(), *verbose, now))
	}
	return nil
}
