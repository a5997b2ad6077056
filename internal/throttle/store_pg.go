package throttle

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGStore keeps windows in the throttle_windows table. The single upsert
// below is the only statement touching a row, so concurrent requests
// serialize on the row lock and cannot both slip past the limit.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a PGStore.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

const hitSQL = `
INSERT INTO throttle_windows (caller_key, endpoint, window_start, request_count, updated_at)
VALUES ($1, $2, $3, 1, $3)
ON CONFLICT (caller_key, endpoint) DO UPDATE SET
	window_start = CASE
		WHEN throttle_windows.window_start <= $4 THEN EXCLUDED.window_start
		ELSE throttle_windows.window_start
	END,
	request_count = CASE
		WHEN throttle_windows.window_start <= $4 THEN 1
		ELSE LEAST(throttle_windows.request_count + 1, $5)
	END,
	updated_at = EXCLUDED.updated_at
RETURNING window_start, request_count`

// Hit implements Store.
func (s *PGStore) Hit(ctx context.Context, caller, endpoint string, now time.Time, window time.Duration, limit int) (Window, error) {
	if s == nil || s.DB == nil {
		return Window{}, errors.New("db not configured")
	}
	var w Window
	err := s.DB.QueryRowContext(ctx, hitSQL, caller, endpoint, now, now.Add(-window), limit).Scan(&w.Start, &w.Count)
	if err != nil {
		return Window{}, err
	}
	w.Start = w.Start.UTC()
	return w, nil
}

// Prune deletes windows that expired before now.
func (s *PGStore) Prune(ctx context.Context, now time.Time, window time.Duration) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM throttle_windows WHERE window_start <= $1`, now.Add(-window))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
