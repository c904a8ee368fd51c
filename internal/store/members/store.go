// Package members persists accounts in public.members.
package members

import (
	"context"

	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/store/dbx"
	"github.com/jmoiron/sqlx"
)

const columns = `id::text AS id, email, password_hash, nickname, token_version, created_at, updated_at`

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store { return &Store{db: db} }

var _ journal.MemberStore = (*Store)(nil)

func (s *Store) FindByID(ctx context.Context, id string) (journal.Member, error) {
	if !dbx.ValidID(id) {
		return journal.Member{}, journal.ErrResourceNotFound
	}
	var m journal.Member
	if err := s.db.GetContext(ctx, &m, `SELECT `+columns+` FROM public.members WHERE id = $1`, id); err != nil {
		return journal.Member{}, dbx.NotFound(err)
	}
	return m, nil
}

// FindByEmail expects an already normalized address.
func (s *Store) FindByEmail(ctx context.Context, email string) (journal.Member, error) {
	var m journal.Member
	if err := s.db.GetContext(ctx, &m, `SELECT `+columns+` FROM public.members WHERE email = $1`, email); err != nil {
		return journal.Member{}, dbx.NotFound(err)
	}
	return m, nil
}

func (s *Store) Create(ctx context.Context, m journal.Member) (journal.Member, error) {
	var out journal.Member
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO public.members (id, email, password_hash, nickname, token_version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING `+columns,
		m.ID, m.Email, m.PasswordHash, m.Nickname, m.TokenVersion, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return journal.Member{}, err
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, m journal.Member) (journal.Member, error) {
	var out journal.Member
	err := s.db.GetContext(ctx, &out, `
		UPDATE public.members SET nickname = $2, password_hash = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+columns,
		m.ID, m.Nickname, m.PasswordHash, m.UpdatedAt)
	if err != nil {
		return journal.Member{}, dbx.NotFound(err)
	}
	return out, nil
}

// BumpTokenVersion invalidates every access token issued so far.
func (s *Store) BumpTokenVersion(ctx context.Context, id string) (int, error) {
	var v int
	err := s.db.GetContext(ctx, &v,
		`UPDATE public.members SET token_version = token_version + 1 WHERE id = $1 RETURNING token_version`, id)
	if err != nil {
		return 0, dbx.NotFound(err)
	}
	return v, nil
}

// Delete removes memos, then books, then the member, in one transaction.
func (s *Store) Delete(ctx context.Context, id string) error {
	return dbx.WithinTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM public.memos WHERE member_id = $1`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM public.books WHERE member_id = $1`, id); err != nil {
			return err
		}
		return dbx.RequireAffected(tx.ExecContext(ctx, `DELETE FROM public.members WHERE id = $1`, id))
	})
}
