package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mturk-tools/internal/bootstrap"
	"mturk-tools/internal/requester"
	"mturk-tools/internal/results"
	"mturk-tools/internal/shared/storage/object"
	"mturk-tools/internal/shared/telemetry"
)

// GetResults downloads every assignment of a batch and writes the flattened
// results table. -upload copies the table to the object store; -archive
// also records the batch in the archive database.
func GetResults(ctx context.Context, e Env, args []string) error {
	fs := newFlagSet("getresults", e)
	var market marketFlags
	market.register(fs, e.Config)
	successPath := fs.String("f", "", "YAML batch descriptor written by loadhit")
	resultsPath := fs.String("r", "", "tab-delimited results file to write; empty writes to stdout")
	upload := fs.Bool("upload", false, "upload the results table to the object store")
	archiveBatch := fs.Bool("archive", false, "archive the batch in the database (implies -upload when a store is configured)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlags("getresults", map[string]string{"f": *successPath}, "f"); err != nil {
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

	fetched, err := client.FetchBatch(ctx, entries)
	if err != nil {
		return err
	}
	batch := results.Flatten(fetched.Submissions, fetched.Tasks, requester.RequesterWebsite(client.Sandbox()))

	var table bytes.Buffer
	if err := results.WriteTable(&table, batch.Columns, batch.Rows); err != nil {
		return err
	}
	if *resultsPath == "" {
		if _, err := e.Stdout.Write(table.Bytes()); err != nil {
			return err
		}
	} else {
		if err := os.WriteFile(*resultsPath, table.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write results file: %w", err)
		}
		fmt.Fprintf(e.Stderr, "Wrote %d results to %s\n", len(batch.Rows), *resultsPath)
	}
	for _, id := range fetched.Failed {
		fmt.Fprintf(e.Stderr, "Could not fetch HIT %s\n", id)
	}

	if !*upload && !*archiveBatch {
		return nil
	}
	app, err := e.Build(ctx, e.Config, bootstrap.ModeCLI)
	if err != nil {
		return err
	}
	defer app.Close()

	name := filepath.Base(*successPath)
	fileName := *resultsPath
	if fileName == "" {
		fileName = name + ".results"
	}

	if *archiveBatch {
		stored, created, err := app.Archive.Archive(ctx, name, fileName, client.Sandbox(), batch, table.Bytes())
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(e.Stderr, "Archived batch %s\n", stored.ID)
		} else {
			fmt.Fprintf(e.Stderr, "Batch already archived as %s\n", stored.ID)
		}
		return nil
	}

	if app.Store == nil {
		return fmt.Errorf("upload requested but OBJECT_STORE is none")
	}
	key, err := object.ArtifactKey(name, fileName, e.now())
	if err != nil {
		return err
	}
	n, err := app.Store.Put(ctx, key, object.ContentType(fileName), bytes.NewReader(table.Bytes()))
	if err != nil {
		return fmt.Errorf("upload results: %w", err)
	}
	telemetry.Info("getresults.uploaded", map[string]any{"key": key, "bytes": n})
	fmt.Fprintf(e.Stderr, "Uploaded %s\n", key)
	return nil
}
