package journal

import (
	"context"
	"fmt"
)

// PageInfo describes the page query the view was built from, before any
// status or calendar filtering.
type PageInfo struct {
	Page          int `json:"page"`
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
}

type LibraryView struct {
	Data     []Book   `json:"data"`
	PageInfo PageInfo `json:"pageInfo"`
}

type CalendarView struct {
	Data     []CalendarEntry `json:"data"`
	PageInfo PageInfo        `json:"pageInfo"`
}

// ViewAssembler pages a member's books first and filters the page second, so
// a page may hold fewer than size items even when later pages have matches.
type ViewAssembler struct {
	Books BookStore
}

func NewViewAssembler(books BookStore) *ViewAssembler {
	return &ViewAssembler{Books: books}
}

func (v *ViewAssembler) Library(ctx context.Context, memberID string, page, size int, status string) (LibraryView, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return LibraryView{}, err
	}
	p, err := v.fetch(ctx, memberID, page, size)
	if err != nil {
		return LibraryView{}, err
	}
	return LibraryView{Data: ClassifyByStatus(p.Items, st), PageInfo: pageInfo(p)}, nil
}

func (v *ViewAssembler) Calendar(ctx context.Context, memberID string, page, size int) (CalendarView, error) {
	p, err := v.fetch(ctx, memberID, page, size)
	if err != nil {
		return CalendarView{}, err
	}
	return CalendarView{Data: ExtractCalendarEntries(p.Items), PageInfo: pageInfo(p)}, nil
}

// fetch takes a 1-based page number.
func (v *ViewAssembler) fetch(ctx context.Context, memberID string, page, size int) (Page[Book], error) {
	if page < 1 {
		return Page[Book]{}, invalidField("page", "must be positive")
	}
	if size < 1 {
		return Page[Book]{}, invalidField("size", "must be positive")
	}
	p, err := v.Books.FindPageByOwner(ctx, memberID, page-1, size)
	if err != nil {
		return Page[Book]{}, fmt.Errorf("page books: %w", err)
	}
	return p, nil
}

func pageInfo[T any](p Page[T]) PageInfo {
	return PageInfo{
		Page:          p.Index + 1,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages(),
	}
}
