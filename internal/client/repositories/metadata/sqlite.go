package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gatelog/internal/dbx"
)

// SQLiteRepository works on either a *sql.DB or a *sql.Tx, so callers can
// group several writes with dbx.WithTx.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Increment(ctx context.Context, key string) (uint64, error) {
	var raw []byte
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, '1')
		ON CONFLICT(key) DO UPDATE SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT)
		RETURNING value
	`, key).Scan(&raw)
	if err != nil {
		return 0, fmt.Errorf("failed to increment metadata[%s]: %w", key, err)
	}
	return parseCounter(key, raw)
}

func (r *SQLiteRepository) Counter(ctx context.Context, key string) (uint64, error) {
	raw, err := r.Get(ctx, key)
	if err != nil || raw == nil {
		return 0, err
	}
	return parseCounter(key, raw)
}

func parseCounter(key string, raw []byte) (uint64, error) {
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("metadata[%s] is not a counter: %w", key, err)
	}
	return n, nil
}
