// Package memos persists reading memos in public.memos.
package memos

import (
	"context"

	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/store/dbx"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("postgres")

const columns = `id::text AS id, member_id::text AS member_id, book_id::text AS book_id,
	kind, content, book_page, created_at, updated_at`

var selectColumns = []any{
	goqu.L("id::text").As("id"),
	goqu.L("member_id::text").As("member_id"),
	goqu.L("book_id::text").As("book_id"),
	"kind", "content", "book_page", "created_at", "updated_at",
}

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store { return &Store{db: db} }

var _ journal.MemoStore = (*Store)(nil)

func (s *Store) FindByID(ctx context.Context, id string) (journal.Memo, error) {
	if !dbx.ValidID(id) {
		return journal.Memo{}, journal.ErrResourceNotFound
	}
	var m journal.Memo
	if err := s.db.GetContext(ctx, &m, `SELECT `+columns+` FROM public.memos WHERE id = $1`, id); err != nil {
		return journal.Memo{}, dbx.NotFound(err)
	}
	return m, nil
}

func (s *Store) FindAllByOwner(ctx context.Context, ownerID string) ([]journal.Memo, error) {
	return s.list(ctx, goqu.C("member_id").Eq(ownerID))
}

func (s *Store) FindAllByBook(ctx context.Context, bookID string) ([]journal.Memo, error) {
	return s.list(ctx, goqu.C("book_id").Eq(bookID))
}

func (s *Store) list(ctx context.Context, where exp.Expression) ([]journal.Memo, error) {
	q, args, err := dialect.From(goqu.T("memos").Schema("public")).
		Prepared(true).
		Select(selectColumns...).
		Where(where).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, err
	}
	out := []journal.Memo{}
	if err := s.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, m journal.Memo) (journal.Memo, error) {
	var out journal.Memo
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO public.memos (id, member_id, book_id, kind, content, book_page, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+columns,
		m.ID, m.OwnerID, m.BookID, string(m.Kind), m.Content, m.BookPage, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return journal.Memo{}, err
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, m journal.Memo) (journal.Memo, error) {
	var out journal.Memo
	err := s.db.GetContext(ctx, &out, `
		UPDATE public.memos SET kind = $2, content = $3, book_page = $4, updated_at = $5
		WHERE id = $1
		RETURNING `+columns,
		m.ID, string(m.Kind), m.Content, m.BookPage, m.UpdatedAt)
	if err != nil {
		return journal.Memo{}, dbx.NotFound(err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return dbx.RequireAffected(s.db.ExecContext(ctx, `DELETE FROM public.memos WHERE id = $1`, id))
}

func (s *Store) CountImageRefs(ctx context.Context, url string) (int, error) {
	q, args, err := dialect.From(goqu.T("memos").Schema("public")).
		Prepared(true).
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"kind": string(journal.KindImage), "content": url}).
		ToSQL()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, err
	}
	return n, nil
}
