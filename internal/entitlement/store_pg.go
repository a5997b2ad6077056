package entitlement

import (
	"context"
	"database/sql"
	"errors"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed entitlement store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Get(ctx context.Context, callerKey, tool string) (Grant, error) {
	g := Grant{CallerKey: callerKey, Tool: tool}
	var expires sql.NullTime
	err := s.DB.QueryRowContext(ctx, `
SELECT granted_at, expires_at FROM tool_entitlements WHERE caller_key = $1 AND tool = $2`,
		callerKey, tool).Scan(&g.GrantedAt, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, err
	}
	if expires.Valid {
		t := expires.Time.UTC()
		g.ExpiresAt = &t
	}
	g.GrantedAt = g.GrantedAt.UTC()
	return g, nil
}

func (s *pgStore) Put(ctx context.Context, g Grant) error {
	var expires any
	if g.ExpiresAt != nil {
		expires = *g.ExpiresAt
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO tool_entitlements (caller_key, tool, granted_at, expires_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (caller_key, tool) DO UPDATE SET granted_at = EXCLUDED.granted_at, expires_at = EXCLUDED.expires_at`,
		g.CallerKey, g.Tool, g.GrantedAt, expires)
	return err
}

func (s *pgStore) Delete(ctx context.Context, callerKey, tool string) error {
	res, err := s.DB.ExecContext(ctx, `
DELETE FROM tool_entitlements WHERE caller_key = $1 AND tool = $2`, callerKey, tool)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
