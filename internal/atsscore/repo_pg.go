package atsscore

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

const recordColumns = `id, caller_key, free_analysis, overall_score, weights_version, result,
	narrative, narrative_error, model, prompt_version, created_at`

// Create inserts a record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO ats_scores (` + recordColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal score result: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		rec.ID,
		rec.CallerKey,
		rec.FreeAnalysis,
		rec.Result.OverallScore,
		rec.Result.WeightsVersion,
		result,
		rec.Narrative,
		rec.NarrativeError,
		rec.Model,
		rec.PromptVersion,
		rec.CreatedAt,
	)
	return err
}

// GetByID returns a record by its ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM ats_scores WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListByCaller returns a caller's records newest first.
func (r *PGRepo) ListByCaller(ctx context.Context, callerKey string, limit, offset int) ([]Record, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+recordColumns+` FROM ats_scores
WHERE caller_key = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, callerKey, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec            Record
		overall        int
		weightsVersion string
		result         []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.CallerKey,
		&rec.FreeAnalysis,
		&overall,
		&weightsVersion,
		&result,
		&rec.Narrative,
		&rec.NarrativeError,
		&rec.Model,
		&rec.PromptVersion,
		&rec.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(result, &rec.Result); err != nil {
		return Record{}, fmt.Errorf("decode score result %s: %w", rec.ID, err)
	}
	rec.Result.OverallScore = overall
	rec.Result.WeightsVersion = weightsVersion
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

var (
	_ Repo = (*PGRepo)(nil)
	_ Repo = (*MemoryRepo)(nil)
)
