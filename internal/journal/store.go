package journal

import (
	"context"
	"io"
)

// Stores return ErrResourceNotFound when the row does not exist.

type MemberStore interface {
	FindByID(ctx context.Context, id string) (Member, error)
	FindByEmail(ctx context.Context, email string) (Member, error)
	Create(ctx context.Context, m Member) (Member, error)
	Update(ctx context.Context, m Member) (Member, error)
	BumpTokenVersion(ctx context.Context, id string) (int, error)
	// Delete removes the member together with their books and memos.
	Delete(ctx context.Context, id string) error
}

type BookStore interface {
	FindByID(ctx context.Context, id string) (Book, error)
	// FindPageByOwner returns books in insertion order. pageIndex is 0-based.
	FindPageByOwner(ctx context.Context, ownerID string, pageIndex, size int) (Page[Book], error)
	Create(ctx context.Context, b Book) (Book, error)
	Update(ctx context.Context, b Book) (Book, error)
}

type MemoStore interface {
	FindByID(ctx context.Context, id string) (Memo, error)
	FindAllByOwner(ctx context.Context, ownerID string) ([]Memo, error)
	FindAllByBook(ctx context.Context, bookID string) ([]Memo, error)
	Create(ctx context.Context, m Memo) (Memo, error)
	Update(ctx context.Context, m Memo) (Memo, error)
	Delete(ctx context.Context, id string) error
	// CountImageRefs counts IMAGE memos, of any member, whose content is url.
	CountImageRefs(ctx context.Context, url string) (int, error)
}

// FileUploader persists an uploaded image and returns its public URL.
// OwnerOf reports which member uploaded the image behind url; ok is false
// for URLs it did not issue.
type FileUploader interface {
	Store(ctx context.Context, ownerID string, payload io.Reader, size int64, contentType string) (string, error)
	OwnerOf(url string) (ownerID string, ok bool)
}

// IdentityResolver maps an opaque credential to a member id.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (string, error)
}
