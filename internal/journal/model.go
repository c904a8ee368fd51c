package journal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a book's reading state. The set of values is closed.
type Status string

const (
	StatusWantToRead Status = "WANT_TO_READ"
	StatusReading    Status = "READING"
	StatusFinished   Status = "FINISHED"
)

// ParseStatus accepts the enumeration names case-insensitively.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusWantToRead, StatusReading, StatusFinished:
		return st, nil
	}
	return "", ErrInvalidStatus
}

func (s Status) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusFinished:
		return true
	}
	return false
}

// ContentKind tags what a memo's content holds.
type ContentKind string

const (
	KindText  ContentKind = "TEXT"
	KindImage ContentKind = "IMAGE"
)

func ParseContentKind(s string) (ContentKind, error) {
	switch k := ContentKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindText, KindImage:
		return k, nil
	case "":
		return KindText, nil
	}
	return "", ErrInvalidInput
}

type Member struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Nickname     string    `db:"nickname" json:"nickname"`
	TokenVersion int       `db:"token_version" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Book struct {
	ID            string     `db:"id" json:"id"`
	OwnerID       string     `db:"member_id" json:"member_id"`
	Title         string     `db:"title" json:"title"`
	Author        string     `db:"author" json:"author"`
	Publisher     string     `db:"publisher" json:"publisher,omitempty"`
	Cover         string     `db:"cover" json:"cover,omitempty"`
	ItemPage      int        `db:"item_page" json:"item_page,omitempty"`
	Status        Status     `db:"status" json:"book_status"`
	ReadStartDate *time.Time `db:"read_start_date" json:"read_start_date,omitempty"`
	FinishedAt    *time.Time `db:"read_end_date" json:"read_end_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

type Memo struct {
	ID        string      `db:"id" json:"id"`
	OwnerID   string      `db:"member_id" json:"member_id"`
	BookID    string      `db:"book_id" json:"book_id"`
	Kind      ContentKind `db:"kind" json:"memo_type"`
	Content   string      `db:"content" json:"content"`
	BookPage  *int        `db:"book_page" json:"memo_book_page,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt time.Time   `db:"updated_at" json:"updated_at"`
}

// BookDraft carries the caller-supplied fields of a new book.
type BookDraft struct {
	Title         string
	Author        string
	Publisher     string
	Cover         string
	ItemPage      int
	Status        string
	ReadStartDate *time.Time
	FinishedAt    *time.Time
}

// BookPatch holds optional updates; nil fields are left untouched.
type BookPatch struct {
	Title         *string
	Author        *string
	Publisher     *string
	Cover         *string
	ItemPage      *int
	Status        *string
	ReadStartDate *time.Time
	FinishedAt    *time.Time
}

type MemoDraft struct {
	Kind     string
	Content  string
	BookPage *int
}

type MemoPatch struct {
	Kind     *string
	Content  *string
	BookPage *int
}

// CalendarEntry is one finished book on the calendar view.
type CalendarEntry struct {
	BookID     string    `json:"book_id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Cover      string    `json:"cover,omitempty"`
	FinishedAt time.Time `json:"read_end_date"`
}

// Page is one slice of a store query. Index is 0-based.
type Page[T any] struct {
	Items         []T
	Index         int
	Size          int
	TotalElements int
}

func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.TotalElements + p.Size - 1) / p.Size
}

// NewID returns a time-ordered identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
