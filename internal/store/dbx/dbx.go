package dbx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// WithinTx runs fn in a transaction (commit on nil, rollback on error).
func WithinTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// NotFound turns sql.ErrNoRows into journal.ErrResourceNotFound.
func NotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return journal.ErrResourceNotFound
	}
	return err
}

// RequireAffected reports ErrResourceNotFound when an UPDATE/DELETE hit nothing.
func RequireAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return journal.ErrResourceNotFound
	}
	return nil
}

// ValidID reports whether id is a UUID; nothing else can name a row.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
