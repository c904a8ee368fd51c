package books

import (
	"github.com/5w1tchy/reading-journal/internal/api/httpx"
	"github.com/5w1tchy/reading-journal/internal/journal"
)

type createReq struct {
	Title         string      `json:"title"`
	Author        string      `json:"author"`
	Publisher     string      `json:"publisher"`
	Cover         string      `json:"cover"`
	ItemPage      int         `json:"item_page"`
	Status        string      `json:"book_status"`
	ReadStartDate *httpx.Date `json:"read_start_date"`
	FinishedAt    *httpx.Date `json:"read_end_date"`
}

func (r createReq) draft() journal.BookDraft {
	return journal.BookDraft{
		Title:         r.Title,
		Author:        r.Author,
		Publisher:     r.Publisher,
		Cover:         r.Cover,
		ItemPage:      r.ItemPage,
		Status:        r.Status,
		ReadStartDate: r.ReadStartDate.TimePtr(),
		FinishedAt:    r.FinishedAt.TimePtr(),
	}
}

type patchReq struct {
	Title         *string     `json:"title"`
	Author        *string     `json:"author"`
	Publisher     *string     `json:"publisher"`
	Cover         *string     `json:"cover"`
	ItemPage      *int        `json:"item_page"`
	Status        *string     `json:"book_status"`
	ReadStartDate *httpx.Date `json:"read_start_date"`
	FinishedAt    *httpx.Date `json:"read_end_date"`
}

func (r patchReq) patch() journal.BookPatch {
	return journal.BookPatch{
		Title:         r.Title,
		Author:        r.Author,
		Publisher:     r.Publisher,
		Cover:         r.Cover,
		ItemPage:      r.ItemPage,
		Status:        r.Status,
		ReadStartDate: r.ReadStartDate.TimePtr(),
		FinishedAt:    r.FinishedAt.TimePtr(),
	}
}
