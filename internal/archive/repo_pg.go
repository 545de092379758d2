package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// SaveBatch inserts the batch and its rows in one transaction.
func (r *PGRepo) SaveBatch(ctx context.Context, b Batch, rows []StoredRow) (Batch, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Batch{}, false, err
	}
	defer tx.Rollback()

	existing, err := scanBatch(tx.QueryRowContext(ctx, selectBatch+findByDigest, b.Name, b.Digest))
	if err == nil {
		if err := tx.Commit(); err != nil {
			return Batch{}, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Batch{}, false, err
	}

	columns, err := json.Marshal(b.Columns)
	if err != nil {
		return Batch{}, false, fmt.Errorf("encode columns: %w", err)
	}
	const insertBatch = `
INSERT INTO result_batches (id, name, sandbox, digest, columns, row_count, skipped_count, artifact_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, insertBatch,
		b.ID,
		b.Name,
		b.Sandbox,
		b.Digest,
		string(columns),
		b.RowCount,
		b.SkippedCount,
		nullString(b.ArtifactKey),
		b.CreatedAt,
	); err != nil {
		return Batch{}, false, err
	}

	const insertRow = `
INSERT INTO result_rows (batch_id, position, assignment_id, hit_id, worker_id, status, fields)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, row := range rows {
		fields, err := json.Marshal(row.Fields)
		if err != nil {
			return Batch{}, false, fmt.Errorf("encode row %d: %w", row.Position, err)
		}
		if _, err := tx.ExecContext(ctx, insertRow,
			b.ID,
			row.Position,
			row.AssignmentID,
			row.HITID,
			row.WorkerID,
			row.Status,
			string(fields),
		); err != nil {
			return Batch{}, false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Batch{}, false, err
	}
	return b, true, nil
}

const selectBatch = `
SELECT id, name, sandbox, digest, columns, row_count, skipped_count, artifact_key, created_at
FROM result_batches`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(s rowScanner) (Batch, error) {
	var b Batch
	var columns []byte
	var artifactKey sql.NullString
	err := s.Scan(
		&b.ID,
		&b.Name,
		&b.Sandbox,
		&b.Digest,
		&columns,
		&b.RowCount,
		&b.SkippedCount,
		&artifactKey,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Batch{}, ErrNotFound
		}
		return Batch{}, err
	}
	if err := json.Unmarshal(columns, &b.Columns); err != nil {
		return Batch{}, fmt.Errorf("decode columns of batch %s: %w", b.ID, err)
	}
	if artifactKey.Valid {
		b.ArtifactKey = artifactKey.String
	}
	return b, nil
}

const findByDigest = `
WHERE name = $1 AND digest = $2
LIMIT 1`

// FindBatch looks a batch up by name and content digest.
func (r *PGRepo) FindBatch(ctx context.Context, name, digest string) (Batch, error) {
	return scanBatch(r.DB.QueryRowContext(ctx, selectBatch+findByDigest, name, digest))
}

// GetBatch returns a batch by id.
func (r *PGRepo) GetBatch(ctx context.Context, id string) (Batch, error) {
	return scanBatch(r.DB.QueryRowContext(ctx, selectBatch+`
WHERE id = $1
LIMIT 1`, id))
}

// ListBatches returns batches newest first.
func (r *PGRepo) ListBatches(ctx context.Context, limit, offset int) ([]Batch, error) {
	rows, err := r.DB.QueryContext(ctx, selectBatch+`
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListRows returns the rows of a batch in table order.
func (r *PGRepo) ListRows(ctx context.Context, batchID string) ([]StoredRow, error) {
	const query = `
SELECT position, assignment_id, hit_id, worker_id, status, fields
FROM result_rows
WHERE batch_id = $1
ORDER BY position`
	rows, err := r.DB.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredRow
	for rows.Next() {
		var row StoredRow
		var fields []byte
		if err := rows.Scan(&row.Position, &row.AssignmentID, &row.HITID, &row.WorkerID, &row.Status, &fields); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(fields, &row.Fields); err != nil {
			return nil, fmt.Errorf("decode row %d: %w", row.Position, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// RecordEvent inserts e unless its message id was already seen.
func (r *PGRepo) RecordEvent(ctx context.Context, e Event) (bool, error) {
	const query = `
INSERT INTO assignment_events (message_id, event_type, hit_id, hit_type_id, assignment_id, event_time, received_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (message_id) DO NOTHING`
	var eventTime sql.NullTime
	if e.EventTime != nil {
		eventTime = sql.NullTime{Time: *e.EventTime, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, query,
		e.MessageID,
		e.EventType,
		e.HITID,
		e.HITTypeID,
		e.AssignmentID,
		eventTime,
		e.ReceivedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListEvents returns events for hitID in arrival order.
func (r *PGRepo) ListEvents(ctx context.Context, hitID string) ([]Event, error) {
	const query = `
SELECT message_id, event_type, hit_id, hit_type_id, assignment_id, event_time, received_at
FROM assignment_events
WHERE hit_id = $1
ORDER BY received_at`
	rows, err := r.DB.QueryContext(ctx, query, hitID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var eventTime sql.NullTime
		if err := rows.Scan(&e.MessageID, &e.EventType, &e.HITID, &e.HITTypeID, &e.AssignmentID, &eventTime, &e.ReceivedAt); err != nil {
			return nil, err
		}
		if eventTime.Valid {
			t := eventTime.Time
			e.EventTime = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ Repo = (*PGRepo)(nil)
