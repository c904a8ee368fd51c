package journal

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type BookService struct {
	Books BookStore
	Memos MemoStore
	Now   func() time.Time
}

func NewBookService(books BookStore, memos MemoStore) *BookService {
	return &BookService{Books: books, Memos: memos, Now: time.Now}
}

// BookDetail is a book together with the memos attached to it.
type BookDetail struct {
	Book
	Memos []Memo `json:"memos"`
}

func (s *BookService) Register(ctx context.Context, ownerID string, d BookDraft) (Book, error) {
	b, err := RegisterBook(ownerID, d, s.Now())
	if err != nil {
		return Book{}, err
	}
	created, err := s.Books.Create(ctx, b)
	if err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	return created, nil
}

// owned loads a book and checks it belongs to requesterID. A missing book is
// reported the same way as a foreign one.
func (s *BookService) owned(ctx context.Context, bookID, requesterID string) (Book, error) {
	b, err := s.Books.FindByID(ctx, bookID)
	if errors.Is(err, ErrResourceNotFound) {
		return Book{}, ErrResourceNotOwned
	}
	if err != nil {
		return Book{}, fmt.Errorf("find book: %w", err)
	}
	if err := VerifyOwnership(b.OwnerID, requesterID); err != nil {
		return Book{}, err
	}
	return b, nil
}

func (s *BookService) Detail(ctx context.Context, bookID, requesterID string) (BookDetail, error) {
	b, err := s.owned(ctx, bookID, requesterID)
	if err != nil {
		return BookDetail{}, err
	}
	memos, err := s.Memos.FindAllByBook(ctx, b.ID)
	if err != nil {
		return BookDetail{}, fmt.Errorf("list memos: %w", err)
	}
	if memos == nil {
		memos = []Memo{}
	}
	return BookDetail{Book: b, Memos: memos}, nil
}

func (s *BookService) Update(ctx context.Context, bookID, requesterID string, p BookPatch) (Book, error) {
	b, err := s.owned(ctx, bookID, requesterID)
	if err != nil {
		return Book{}, err
	}
	b, err = applyBookPatch(b, p, s.Now())
	if err != nil {
		return Book{}, err
	}
	updated, err := s.Books.Update(ctx, b)
	if err != nil {
		return Book{}, fmt.Errorf("update book: %w", err)
	}
	return updated, nil
}
