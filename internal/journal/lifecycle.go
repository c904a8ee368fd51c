package journal

import (
	"slices"
	"time"

	"github.com/5w1tchy/reading-journal/internal/validate"
)

const (
	maxTitleLen = 255
	maxCoverLen = 2048
)

// RegisterBook builds a new book owned by ownerID. A FINISHED book always
// carries a finished date; any other status never does.
func RegisterBook(ownerID string, d BookDraft, now time.Time) (Book, error) {
	status, err := ParseStatus(d.Status)
	if err != nil {
		return Book{}, err
	}
	title, err := validate.RequireBounded("title", d.Title, 1, maxTitleLen)
	if err != nil {
		return Book{}, invalidField("title", err.Error())
	}
	author, err := validate.RequireBounded("author", d.Author, 1, maxTitleLen)
	if err != nil {
		return Book{}, invalidField("author", err.Error())
	}
	publisher, err := validate.RequireBounded("publisher", d.Publisher, 0, maxTitleLen)
	if err != nil {
		return Book{}, invalidField("publisher", err.Error())
	}
	cover, err := validate.RequireBounded("cover", d.Cover, 0, maxCoverLen)
	if err != nil {
		return Book{}, invalidField("cover", err.Error())
	}
	if d.ItemPage < 0 {
		return Book{}, invalidField("item_page", "must not be negative")
	}

	now = now.UTC()
	b := Book{
		ID:            NewID(),
		OwnerID:       ownerID,
		Title:         title,
		Author:        author,
		Publisher:     publisher,
		Cover:         cover,
		ItemPage:      d.ItemPage,
		Status:        status,
		ReadStartDate: utcPtr(d.ReadStartDate),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if status == StatusFinished {
		b.FinishedAt = utcPtr(d.FinishedAt)
		if b.FinishedAt == nil {
			b.FinishedAt = &now
		}
	}
	return b, nil
}

// ApplyStatusChange moves book to status. Marking a book finished stamps now
// unless a finished date is already present; any other status clears it.
func ApplyStatusChange(book Book, status Status, now time.Time) Book {
	book.Status = status
	if status != StatusFinished {
		book.FinishedAt = nil
		return book
	}
	if book.FinishedAt == nil {
		t := now.UTC()
		book.FinishedAt = &t
	}
	return book
}

// ClassifyByStatus keeps the books in status, preserving input order.
func ClassifyByStatus(books []Book, status Status) []Book {
	out := make([]Book, 0, len(books))
	for _, b := range books {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

// ExtractCalendarEntries returns one entry per book with a finished date,
// ordered by finished date ascending. Books finished at the same instant keep
// their input order.
func ExtractCalendarEntries(books []Book) []CalendarEntry {
	out := make([]CalendarEntry, 0, len(books))
	seen := make(map[string]struct{}, len(books))
	for _, b := range books {
		if b.FinishedAt == nil {
			continue
		}
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, CalendarEntry{
			BookID:     b.ID,
			Title:      b.Title,
			Author:     b.Author,
			Cover:      b.Cover,
			FinishedAt: *b.FinishedAt,
		})
	}
	slices.SortStableFunc(out, func(a, b CalendarEntry) int {
		return a.FinishedAt.Compare(b.FinishedAt)
	})
	return out
}

func applyBookPatch(b Book, p BookPatch, now time.Time) (Book, error) {
	if p.Title != nil {
		v, err := validate.RequireBounded("title", *p.Title, 1, maxTitleLen)
		if err != nil {
			return Book{}, invalidField("title", err.Error())
		}
		b.Title = v
	}
	if p.Author != nil {
		v, err := validate.RequireBounded("author", *p.Author, 1, maxTitleLen)
		if err != nil {
			return Book{}, invalidField("author", err.Error())
		}
		b.Author = v
	}
	if p.Publisher != nil {
		v, err := validate.RequireBounded("publisher", *p.Publisher, 0, maxTitleLen)
		if err != nil {
			return Book{}, invalidField("publisher", err.Error())
		}
		b.Publisher = v
	}
	if p.Cover != nil {
		v, err := validate.RequireBounded("cover", *p.Cover, 0, maxCoverLen)
		if err != nil {
			return Book{}, invalidField("cover", err.Error())
		}
		b.Cover = v
	}
	if p.ItemPage != nil {
		if *p.ItemPage < 0 {
			return Book{}, invalidField("item_page", "must not be negative")
		}
		b.ItemPage = *p.ItemPage
	}
	if p.ReadStartDate != nil {
		b.ReadStartDate = utcPtr(p.ReadStartDate)
	}
	if p.Status != nil {
		status, err := ParseStatus(*p.Status)
		if err != nil {
			return Book{}, err
		}
		b = ApplyStatusChange(b, status, now)
	}
	// An explicit finished date only sticks to a finished book.
	if p.FinishedAt != nil && b.Status == StatusFinished {
		b.FinishedAt = utcPtr(p.FinishedAt)
	}
	b.UpdatedAt = now.UTC()
	return b, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
