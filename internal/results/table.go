package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// Delimiter separates fields in results files.
const Delimiter = '\t'

// WriteTable writes a header line and one line per row. Keys a row lacks are written empty.
func WriteTable(w io.Writer, header []string, rows []Row) error {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(header))
	for i, row := range rows {
		for j, col := range header {
			record[j] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTable parses a results file. An empty input yields no header and no rows.
func ReadTable(r io.Reader) ([]string, []Row, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make(Row, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}
