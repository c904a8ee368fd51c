package journal_test

import (
	"testing"
	"time"

	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/journal/journaltest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_PaginatesBeforeFiltering(t *testing.T) {
	books := journaltest.NewBooks(
		journal.Book{ID: "1", OwnerID: "A", Status: journal.StatusReading},
		journal.Book{ID: "2", OwnerID: "A", Status: journal.StatusFinished, FinishedAt: ptr(t0)},
		journal.Book{ID: "x", OwnerID: "B", Status: journal.StatusReading},
		journal.Book{ID: "3", OwnerID: "A", Status: journal.StatusReading},
	)
	v := journal.NewViewAssembler(books)

	got, err := v.Library(t.Context(), "A", 1, 2, "READING")
	require.NoError(t, err)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "1", got.Data[0].ID)
	assert.Equal(t, journal.PageInfo{Page: 1, Size: 2, TotalElements: 3, TotalPages: 2}, got.PageInfo)

	got, err = v.Library(t.Context(), "A", 2, 2, "reading")
	require.NoError(t, err)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "3", got.Data[0].ID)
	assert.Equal(t, 2, got.PageInfo.Page)

	got, err = v.Library(t.Context(), "A", 3, 2, "READING")
	require.NoError(t, err)
	assert.NotNil(t, got.Data)
	assert.Empty(t, got.Data)
}

func TestLibrary_Validation(t *testing.T) {
	v := journal.NewViewAssembler(journaltest.NewBooks())

	_, err := v.Library(t.Context(), "A", 1, 10, "SHELVED")
	assert.ErrorIs(t, err, journal.ErrInvalidStatus)

	_, err = v.Library(t.Context(), "A", 0, 10, "READING")
	assert.ErrorIs(t, err, journal.ErrInvalidInput)

	_, err = v.Library(t.Context(), "A", 1, 0, "READING")
	assert.ErrorIs(t, err, journal.ErrInvalidInput)
}

func TestCalendar(t *testing.T) {
	d1 := t0.Add(-10 * 24 * time.Hour)
	books := journaltest.NewBooks(
		journal.Book{ID: "1", OwnerID: "A", Title: "One", Status: journal.StatusFinished, FinishedAt: ptr(t0)},
		journal.Book{ID: "2", OwnerID: "A", Title: "Two", Status: journal.StatusReading},
		journal.Book{ID: "3", OwnerID: "A", Title: "Three", Status: journal.StatusFinished, FinishedAt: &d1},
		journal.Book{ID: "4", OwnerID: "A", Title: "Four", Status: journal.StatusFinished, FinishedAt: &d1},
	)
	v := journal.NewViewAssembler(books)

	got, err := v.Calendar(t.Context(), "A", 1, 3)
	require.NoError(t, err)
	require.Len(t, got.Data, 2)
	assert.Equal(t, "3", got.Data[0].BookID)
	assert.Equal(t, "1", got.Data[1].BookID)
	assert.Equal(t, 2, got.PageInfo.TotalPages)
	assert.Equal(t, 4, got.PageInfo.TotalElements)

	empty, err := v.Calendar(t.Context(), "nobody", 1, 3)
	require.NoError(t, err)
	assert.Empty(t, empty.Data)
	assert.Equal(t, 0, empty.PageInfo.TotalPages)
}
