package journal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/5w1tchy/reading-journal/internal/validate"
)

const (
	maxMemoLen      = 10000
	defaultMaxImage = 10 << 20
)

var imageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

type MemoService struct {
	Books    BookStore
	Memos    MemoStore
	Uploader FileUploader
	Now      func() time.Time
	// IntN picks a random index in [0,n). Nil uses the global source.
	IntN func(n int) int
	// ImageReleased, when set, is told about image URLs no memo refers to anymore.
	ImageReleased func(ctx context.Context, url string)
	MaxImageBytes int64
}

func NewMemoService(books BookStore, memos MemoStore, uploader FileUploader) *MemoService {
	return &MemoService{
		Books:         books,
		Memos:         memos,
		Uploader:      uploader,
		Now:           time.Now,
		MaxImageBytes: defaultMaxImage,
	}
}

// Attach creates a memo under bookID. Nothing is written unless the book
// exists and belongs to requesterID.
func (s *MemoService) Attach(ctx context.Context, bookID, requesterID string, d MemoDraft) (Memo, error) {
	b, err := s.Books.FindByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return Memo{}, ErrResourceNotFound
		}
		return Memo{}, fmt.Errorf("find book: %w", err)
	}
	if err := VerifyOwnership(b.OwnerID, requesterID); err != nil {
		return Memo{}, err
	}

	kind, err := ParseContentKind(d.Kind)
	if err != nil {
		return Memo{}, invalidField("memo_type", "must be TEXT or IMAGE")
	}
	content, err := cleanContent(kind, d.Content)
	if err != nil {
		return Memo{}, err
	}
	if kind == KindImage {
		if err := s.checkImageOwner(content, requesterID); err != nil {
			return Memo{}, err
		}
	}
	if d.BookPage != nil && *d.BookPage < 0 {
		return Memo{}, invalidField("memo_book_page", "must not be negative")
	}

	now := s.Now().UTC()
	m := Memo{
		ID:        NewID(),
		OwnerID:   requesterID,
		BookID:    b.ID,
		Kind:      kind,
		Content:   content,
		BookPage:  d.BookPage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.Memos.Create(ctx, m)
	if err != nil {
		return Memo{}, fmt.Errorf("create memo: %w", err)
	}
	return created, nil
}

// UploadImage stores an image for a later IMAGE memo and returns its URL.
func (s *MemoService) UploadImage(ctx context.Context, requesterID string, payload io.Reader, size int64, contentType string) (string, error) {
	if requesterID == "" {
		return "", ErrNotAuthenticated
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if _, ok := imageTypes[ct]; !ok {
		return "", invalidField("file", "unsupported content type")
	}
	if size <= 0 || (s.MaxImageBytes > 0 && size > s.MaxImageBytes) {
		return "", invalidField("file", "size out of range")
	}
	url, err := s.Uploader.Store(ctx, requesterID, payload, size, ct)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return url, nil
}

// owned checks the memo's own owner, not the owner of its book.
func (s *MemoService) owned(ctx context.Context, memoID, requesterID string) (Memo, error) {
	m, err := s.Memos.FindByID(ctx, memoID)
	if errors.Is(err, ErrResourceNotFound) {
		return Memo{}, ErrResourceNotOwned
	}
	if err != nil {
		return Memo{}, fmt.Errorf("find memo: %w", err)
	}
	if err := VerifyOwnership(m.OwnerID, requesterID); err != nil {
		return Memo{}, err
	}
	return m, nil
}

func (s *MemoService) Update(ctx context.Context, memoID, requesterID string, p MemoPatch) (Memo, error) {
	m, err := s.owned(ctx, memoID, requesterID)
	if err != nil {
		return Memo{}, err
	}
	prev := m

	if p.Kind != nil {
		kind, err := ParseContentKind(*p.Kind)
		if err != nil {
			return Memo{}, invalidField("memo_type", "must be TEXT or IMAGE")
		}
		m.Kind = kind
	}
	if p.Content != nil {
		m.Content = *p.Content
	}
	if p.Kind != nil || p.Content != nil {
		if m.Content, err = cleanContent(m.Kind, m.Content); err != nil {
			return Memo{}, err
		}
		if m.Kind == KindImage && (prev.Kind != KindImage || m.Content != prev.Content) {
			if err := s.checkImageOwner(m.Content, requesterID); err != nil {
				return Memo{}, err
			}
		}
	}
	if p.BookPage != nil {
		if *p.BookPage < 0 {
			return Memo{}, invalidField("memo_book_page", "must not be negative")
		}
		m.BookPage = p.BookPage
	}
	m.UpdatedAt = s.Now().UTC()

	updated, err := s.Memos.Update(ctx, m)
	if err != nil {
		return Memo{}, fmt.Errorf("update memo: %w", err)
	}
	if prev.Kind == KindImage && (updated.Kind != KindImage || updated.Content != prev.Content) {
		s.release(ctx, prev.Content)
	}
	return updated, nil
}

func (s *MemoService) Delete(ctx context.Context, memoID, requesterID string) error {
	m, err := s.owned(ctx, memoID, requesterID)
	if err != nil {
		return err
	}
	if err := s.Memos.Delete(ctx, m.ID); err != nil {
		return fmt.Errorf("delete memo: %w", err)
	}
	if m.Kind == KindImage {
		s.release(ctx, m.Content)
	}
	return nil
}

// SampleRandom returns up to n distinct memos of ownerID chosen uniformly.
func (s *MemoService) SampleRandom(ctx context.Context, ownerID string, n int) ([]Memo, error) {
	if n < 0 {
		return nil, invalidField("size", "must not be negative")
	}
	memos, err := s.Memos.FindAllByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list memos: %w", err)
	}
	return SampleMemos(memos, n, s.IntN), nil
}

// SampleMemos draws min(n, len(memos)) memos without replacement. The input
// slice is not modified.
func SampleMemos(memos []Memo, n int, intN func(int) int) []Memo {
	if intN == nil {
		intN = rand.IntN
	}
	k := min(max(n, 0), len(memos))
	pool := slices.Clone(memos)
	for i := 0; i < k; i++ {
		j := i + intN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k]
}

// checkImageOwner accepts only images uploaded by requesterID.
func (s *MemoService) checkImageOwner(url, requesterID string) error {
	owner, ok := s.Uploader.OwnerOf(url)
	if !ok || owner != requesterID {
		return invalidField("content", "must be an image uploaded by this member")
	}
	return nil
}

func (s *MemoService) release(ctx context.Context, url string) {
	if s.ImageReleased != nil && url != "" {
		s.ImageReleased(ctx, url)
	}
}

func cleanContent(kind ContentKind, raw string) (string, error) {
	if kind == KindImage {
		u := strings.TrimSpace(raw)
		if !validate.IsHTTPURL(u) {
			return "", invalidField("content", "must be an http(s) URL")
		}
		return u, nil
	}
	v, err := validate.RequireBounded("content", raw, 1, maxMemoLen)
	if err != nil {
		return "", invalidField("content", err.Error())
	}
	return v, nil
}
