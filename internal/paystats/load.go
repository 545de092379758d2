package paystats

import (
	"fmt"
	"os"

	"mturk-tools/internal/results"
)

// LoadRecords reads and concatenates the rows of every results file.
func LoadRecords(paths ...string) ([]Record, error) {
	var all []results.Row
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open results file: %w", err)
		}
		_, rows, err := results.ReadTable(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read results file %s: %w", path, err)
		}
		all = append(all, rows...)
	}
	return RecordsFromRows(all)
}
