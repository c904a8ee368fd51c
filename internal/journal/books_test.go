package journal_test

import (
	"errors"
	"testing"
	"time"

	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/journal/journaltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBookService(books ...journal.Book) (*journal.BookService, *journaltest.Books, *journaltest.Memos) {
	bs := journaltest.NewBooks(books...)
	ms := journaltest.NewMemos()
	svc := journal.NewBookService(bs, ms)
	svc.Now = func() time.Time { return t0 }
	return svc, bs, ms
}

func TestBookService_UpdateOwnership(t *testing.T) {
	svc, bs, _ := newBookService(journal.Book{ID: "1", OwnerID: "A", Title: "T", Author: "X", Status: journal.StatusReading})

	_, err := svc.Update(t.Context(), "1", "B", journal.BookPatch{Status: ptr("FINISHED")})
	require.ErrorIs(t, err, journal.ErrResourceNotOwned)
	stored, _ := bs.FindByID(t.Context(), "1")
	assert.Equal(t, journal.StatusReading, stored.Status)

	got, err := svc.Update(t.Context(), "1", "A", journal.BookPatch{Status: ptr("FINISHED")})
	require.NoError(t, err)
	assert.Equal(t, journal.StatusFinished, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.FinishedAt.Equal(t0))
}

func TestBookService_UpdateMissingLooksForeign(t *testing.T) {
	svc, _, _ := newBookService()
	_, err := svc.Update(t.Context(), "nope", "A", journal.BookPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, journal.ErrResourceNotOwned)
}

func TestBookService_UpdateFields(t *testing.T) {
	done := t0.Add(-time.Hour)
	svc, _, _ := newBookService(journal.Book{ID: "1", OwnerID: "A", Title: "T", Author: "X", Status: journal.StatusFinished, FinishedAt: &done})

	got, err := svc.Update(t.Context(), "1", "A", journal.BookPatch{Title: ptr("  New title "), ItemPage: ptr(300)})
	require.NoError(t, err)
	assert.Equal(t, "New title", got.Title)
	assert.Equal(t, 300, got.ItemPage)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.FinishedAt.Equal(done))
	assert.True(t, got.UpdatedAt.Equal(t0))

	got, err = svc.Update(t.Context(), "1", "A", journal.BookPatch{Status: ptr("READING"), FinishedAt: ptr(t0)})
	require.NoError(t, err)
	assert.Nil(t, got.FinishedAt)

	_, err = svc.Update(t.Context(), "1", "A", journal.BookPatch{Status: ptr("PAUSED")})
	assert.ErrorIs(t, err, journal.ErrInvalidStatus)
}

func TestBookService_UpdateExplicitFinishedDate(t *testing.T) {
	svc, _, _ := newBookService(journal.Book{ID: "1", OwnerID: "A", Title: "T", Author: "X", Status: journal.StatusReading})
	when := time.Date(2024, 5, 30, 0, 0, 0, 0, time.UTC)

	got, err := svc.Update(t.Context(), "1", "A", journal.BookPatch{Status: ptr("FINISHED"), FinishedAt: &when})
	require.NoError(t, err)
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.FinishedAt.Equal(when))
}

func TestBookService_Register(t *testing.T) {
	svc, bs, _ := newBookService()
	b, err := svc.Register(t.Context(), "A", journal.BookDraft{Title: "Emma", Author: "Austen", Status: "want_to_read"})
	require.NoError(t, err)
	assert.Equal(t, journal.StatusWantToRead, b.Status)
	assert.Equal(t, 1, bs.Len())

	_, err = svc.Register(t.Context(), "A", journal.BookDraft{Title: "Emma", Author: "Austen", Status: "nope"})
	assert.ErrorIs(t, err, journal.ErrInvalidStatus)
	assert.Equal(t, 1, bs.Len())
}

func TestBookService_RegisterStoreFailure(t *testing.T) {
	svc, bs, _ := newBookService()
	boom := errors.New("db down")
	bs.Err = boom
	_, err := svc.Register(t.Context(), "A", journal.BookDraft{Title: "Emma", Author: "Austen", Status: "READING"})
	assert.ErrorIs(t, err, boom)
}

func TestBookService_Detail(t *testing.T) {
	svc, _, ms := newBookService(journal.Book{ID: "1", OwnerID: "A", Title: "T", Author: "X", Status: journal.StatusReading})

	d, err := svc.Detail(t.Context(), "1", "A")
	require.NoError(t, err)
	assert.NotNil(t, d.Memos)
	assert.Empty(t, d.Memos)

	_, _ = ms.Create(t.Context(), journal.Memo{ID: "m1", OwnerID: "A", BookID: "1", Kind: journal.KindText, Content: "hi"})
	d, err = svc.Detail(t.Context(), "1", "A")
	require.NoError(t, err)
	require.Len(t, d.Memos, 1)

	_, err = svc.Detail(t.Context(), "1", "B")
	assert.ErrorIs(t, err, journal.ErrResourceNotOwned)
}
