package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"mturk-tools/internal/hitdef"
	"mturk-tools/internal/requester"
	"mturk-tools/internal/results"
	"mturk-tools/internal/shared/telemetry"
)

// LoadHIT creates the HITs described by a YAML definition and writes the
// batch descriptor next to it. HITs created before a failure are still
// recorded in the descriptor.
func LoadHIT(ctx context.Context, e Env, args []string) error {
	fs := newFlagSet("loadhit", e)
	var market marketFlags
	market.register(fs, e.Config)
	configPath := fs.String("c", "", "YAML file with HIT configuration")
	queueURL := fs.String("notify-queue", e.Config.NotifyQueueURL, "SQS queue for HIT type notifications")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags("loadhit", map[string]string{"c": *configPath}, "c"); err != nil {
		return err
	}

	f, err := os.Open(*configPath)
	if err != nil {
		return fmt.Errorf("open hit definition: %w", err)
	}
	def, err := hitdef.Parse(f)
	_ = f.Close()
	if err != nil {
		return err
	}
	reqs, err := def.Requests()
	if err != nil {
		return err
	}

	client, err := e.client(ctx, market)
	if err != nil {
		return err
	}

	var (
		entries []results.BatchEntry
		types   []string
		seen    = map[string]bool{}
	)
	var createErr error
	for i, req := range reqs {
		task, err := client.CreateTask(ctx, req)
		if err != nil {
			createErr = fmt.Errorf("hit %d of %d: %w", i+1, len(reqs), err)
			break
		}
		telemetry.Info("loadhit.hit.created", map[string]any{"hit_id": task.ID, "hit_type_id": task.TypeID})
		entries = append(entries, results.BatchEntry{HITID: task.ID, HITTypeID: task.TypeID})
		if !seen[task.TypeID] {
			seen[task.TypeID] = true
			types = append(types, task.TypeID)
		}
	}

	if len(entries) > 0 {
		successPath := hitdef.SuccessPath(*configPath)
		if err := writeFile(successPath, func(w io.Writer) error { return results.WriteDescriptor(w, entries) }); err != nil {
			return fmt.Errorf("write batch descriptor: %w", err)
		}
		fmt.Fprintf(e.Stdout, "Created %d HITs, saved to %s\n", len(entries), successPath)
	}
	if createErr != nil {
		return createErr
	}

	notification := def.Notification
	if *queueURL != "" && (notification == nil || notification.QueueURL == "") {
		n := hitdef.Notification{QueueURL: *queueURL}
		if notification != nil {
			n.Events = notification.Events
		}
		notification = &n
	}
	for _, typeID := range types {
		fmt.Fprintf(e.Stdout, "Preview: %s\n", requester.PreviewURL(client.Sandbox(), typeID))
		if notification != nil && notification.QueueURL != "" {
			if err := client.Subscribe(ctx, typeID, *notification); err != nil {
				return err
			}
			fmt.Fprintf(e.Stdout, "Notifications for %s go to %s\n", typeID, notification.QueueURL)
		}
	}

	balance, err := client.AccountBalance(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.Stdout, "Account balance: %s\n", results.FormatReward(balance))
	return nil
}
