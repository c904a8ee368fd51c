package members_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/store/members"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var memberCols = []string{"id", "email", "password_hash", "nickname", "token_version", "created_at", "updated_at"}

func newStore(t *testing.T) (*members.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return members.New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestFindByEmail(t *testing.T) {
	s, mock := newStore(t)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM public\.members WHERE email = \$1`).
		WithArgs("reader@example.com").
		WillReturnRows(sqlmock.NewRows(memberCols).AddRow("m-1", "reader@example.com", "$argon2id$x", "reader", 3, ts, ts))

	m, err := s.FindByEmail(t.Context(), "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, "m-1", m.ID)
	assert.Equal(t, 3, m.TokenVersion)
}

func TestFindByID_NotFound(t *testing.T) {
	s, mock := newStore(t)
	id := "01927c4e-8a3b-7c1d-9e2f-3a4b5c6d7e8f"
	mock.ExpectQuery(`FROM public\.members WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(memberCols))

	_, err := s.FindByID(t.Context(), id)
	require.ErrorIs(t, err, journal.ErrResourceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_MalformedIDSkipsQuery(t *testing.T) {
	s, mock := newStore(t)
	for _, id := range []string{"ghost", "", "1; DROP TABLE members"} {
		_, err := s.FindByID(t.Context(), id)
		require.ErrorIs(t, err, journal.ErrResourceNotFound, id)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBumpTokenVersion(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE public.members SET token_version = token_version + 1 WHERE id = $1 RETURNING token_version`)).
		WithArgs("m-1").
		WillReturnRows(sqlmock.NewRows([]string{"token_version"}).AddRow(4))

	v, err := s.BumpTokenVersion(t.Context(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, 4, v)
}

func TestDelete_Cascades(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM public.memos WHERE member_id = $1`)).
		WithArgs("m-1").WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM public.books WHERE member_id = $1`)).
		WithArgs("m-1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM public.members WHERE id = $1`)).
		WithArgs("m-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Delete(t.Context(), "m-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_RollsBackOnFailure(t *testing.T) {
	s, mock := newStore(t)
	boom := errors.New("boom")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM public.memos WHERE member_id = $1`)).
		WithArgs("m-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM public.books WHERE member_id = $1`)).
		WithArgs("m-1").WillReturnError(boom)
	mock.ExpectRollback()

	require.ErrorIs(t, s.Delete(t.Context(), "m-1"), boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_UnknownMember(t *testing.T) {
	s, mock := newStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM public\.memos`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM public\.books`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM public\.members`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	require.ErrorIs(t, s.Delete(t.Context(), "ghost"), journal.ErrResourceNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
