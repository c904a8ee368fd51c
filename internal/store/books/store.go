// Package books persists a member's book records in public.books.
package books

import (
	"context"

	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/store/dbx"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jmoiron/sqlx"
)

var dialect = goqu.Dialect("postgres")

const columns = `id::text AS id, member_id::text AS member_id, title, author, publisher, cover,
	item_page, status, read_start_date, read_end_date, created_at, updated_at`

// selectColumns mirrors columns for goqu-built queries.
var selectColumns = []any{
	goqu.L("id::text").As("id"),
	goqu.L("member_id::text").As("member_id"),
	"title", "author", "publisher", "cover", "item_page", "status",
	"read_start_date", "read_end_date", "created_at", "updated_at",
}

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store { return &Store{db: db} }

var _ journal.BookStore = (*Store)(nil)

func (s *Store) FindByID(ctx context.Context, id string) (journal.Book, error) {
	if !dbx.ValidID(id) {
		return journal.Book{}, journal.ErrResourceNotFound
	}
	var b journal.Book
	err := s.db.GetContext(ctx, &b, `SELECT `+columns+` FROM public.books WHERE id = $1`, id)
	if err != nil {
		return journal.Book{}, dbx.NotFound(err)
	}
	return b, nil
}

// FindPageByOwner counts first and skips the row query when the page lies past the end.
func (s *Store) FindPageByOwner(ctx context.Context, ownerID string, pageIndex, size int) (journal.Page[journal.Book], error) {
	page := journal.Page[journal.Book]{Items: []journal.Book{}, Index: pageIndex, Size: size}

	where := goqu.C("member_id").Eq(ownerID)
	countSQL, countArgs, err := dialect.From(goqu.T("books").Schema("public")).
		Prepared(true).
		Select(goqu.COUNT("*")).
		Where(where).
		ToSQL()
	if err != nil {
		return page, err
	}
	if err := s.db.GetContext(ctx, &page.TotalElements, countSQL, countArgs...); err != nil {
		return page, err
	}

	offset := pageIndex * size
	if page.TotalElements == 0 || offset >= page.TotalElements {
		return page, nil
	}

	q, args, err := dialect.From(goqu.T("books").Schema("public")).
		Prepared(true).
		Select(selectColumns...).
		Where(where).
		Order(goqu.C("created_at").Asc(), goqu.C("id").Asc()).
		Limit(uint(size)).
		Offset(uint(offset)).
		ToSQL()
	if err != nil {
		return page, err
	}
	if err := s.db.SelectContext(ctx, &page.Items, q, args...); err != nil {
		return page, err
	}
	return page, nil
}

func (s *Store) Create(ctx context.Context, b journal.Book) (journal.Book, error) {
	var out journal.Book
	err := s.db.GetContext(ctx, &out, `
		INSERT INTO public.books (id, member_id, title, author, publisher, cover, item_page,
			status, read_start_date, read_end_date, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING `+columns,
		b.ID, b.OwnerID, b.Title, b.Author, b.Publisher, b.Cover, b.ItemPage,
		string(b.Status), b.ReadStartDate, b.FinishedAt, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return journal.Book{}, err
	}
	return out, nil
}

// Update writes every mutable column; the owner never changes.
func (s *Store) Update(ctx context.Context, b journal.Book) (journal.Book, error) {
	var out journal.Book
	err := s.db.GetContext(ctx, &out, `
		UPDATE public.books SET
			title = $2, author = $3, publisher = $4, cover = $5, item_page = $6,
			status = $7, read_start_date = $8, read_end_date = $9, updated_at = $10
		WHERE id = $1
		RETURNING `+columns,
		b.ID, b.Title, b.Author, b.Publisher, b.Cover, b.ItemPage,
		string(b.Status), b.ReadStartDate, b.FinishedAt, b.UpdatedAt)
	if err != nil {
		return journal.Book{}, dbx.NotFound(err)
	}
	return out, nil
}
