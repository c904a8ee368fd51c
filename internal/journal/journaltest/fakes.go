// Package journaltest provides in-memory stores for tests.
package journaltest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/5w1tchy/reading-journal/internal/journal"
)

// Books keeps insertion order, which is the order pages are cut from.
type Books struct {
	mu    sync.Mutex
	order []string
	rows  map[string]journal.Book
	// Err, when set, is returned from every call.
	Err error
}

func NewBooks(seed ...journal.Book) *Books {
	s := &Books{rows: map[string]journal.Book{}}
	for _, b := range seed {
		s.order = append(s.order, b.ID)
		s.rows[b.ID] = b
	}
	return s
}

func (s *Books) FindByID(_ context.Context, id string) (journal.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return journal.Book{}, s.Err
	}
	b, ok := s.rows[id]
	if !ok {
		return journal.Book{}, journal.ErrResourceNotFound
	}
	return b, nil
}

func (s *Books) FindPageByOwner(_ context.Context, ownerID string, pageIndex, size int) (journal.Page[journal.Book], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return journal.Page[journal.Book]{}, s.Err
	}
	var owned []journal.Book
	for _, id := range s.order {
		if b := s.rows[id]; b.OwnerID == ownerID {
			owned = append(owned, b)
		}
	}
	p := journal.Page[journal.Book]{Items: []journal.Book{}, Index: pageIndex, Size: size, TotalElements: len(owned)}
	start := pageIndex * size
	if start < len(owned) {
		p.Items = slices.Clone(owned[start:min(start+size, len(owned))])
	}
	return p, nil
}

func (s *Books) Create(_ context.Context, b journal.Book) (journal.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return journal.Book{}, s.Err
	}
	if _, dup := s.rows[b.ID]; dup {
		return journal.Book{}, fmt.Errorf("duplicate book id %s", b.ID)
	}
	s.order = append(s.order, b.ID)
	s.rows[b.ID] = b
	return b, nil
}

func (s *Books) Update(_ context.Context, b journal.Book) (journal.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return journal.Book{}, s.Err
	}
	prev, ok := s.rows[b.ID]
	if !ok {
		return journal.Book{}, journal.ErrResourceNotFound
	}
	b.OwnerID = prev.OwnerID
	s.rows[b.ID] = b
	return b, nil
}

// Len reports how many books are stored.
func (s *Books) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type Memos struct {
	mu    sync.Mutex
	order []string
	rows  map[string]journal.Memo
	Err   error
}

func NewMemos(seed ...journal.Memo) *Memos {
	s := &Memos{rows: map[string]journal.Memo{}}
	for _, m := range seed {
		s.order = append(s.order, m.ID)
		s.rows[m.ID] = m
	}
	return s
}

func (s *Memos) FindByID(_ context.Context, id string) (journal.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return journal.Memo{}, s.Err
	}
	m, ok := s.rows[id]
	if !ok {
		return journal.Memo{}, journal.ErrResourceNotFound
	}
	return m, nil
}

func (s *Memos) filter(keep func(journal.Memo) bool) ([]journal.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := []journal.Memo{}
	for _, id := range s.order {
		if m, ok := s.rows[id]; ok && keep(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *Memos) FindAllByOwner(_ context.Context, ownerID string) ([]journal.Memo, error) {
	return s.filter(func(m journal.Memo) bool { return m.OwnerID == ownerID })
}

func (s *Memos) FindAllByBook(_ context.Context, bookID string) ([]journal.Memo, error) {
	return s.filter(func(m journal.Memo) bool { return m.BookID == bookID })
}

func (s *Memos) Create(_ context.Context, m journal.Memo) (journal.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return journal.Memo{}, s.Err
	}
	s.order = append(s.order, m.ID)
	s.rows[m.ID] = m
	return m, nil
}

func (s *Memos) Update(_ context.Context, m journal.Memo) (journal.Memo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return journal.Memo{}, s.Err
	}
	if _, ok := s.rows[m.ID]; !ok {
		return journal.Memo{}, journal.ErrResourceNotFound
	}
	s.rows[m.ID] = m
	return m, nil
}

func (s *Memos) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.rows[id]; !ok {
		return journal.ErrResourceNotFound
	}
	delete(s.rows, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	return nil
}

func (s *Memos) CountImageRefs(_ context.Context, url string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	n := 0
	for _, m := range s.rows {
		if m.Kind == journal.KindImage && m.Content == url {
			n++
		}
	}
	return n, nil
}

func (s *Memos) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type Members struct {
	mu   sync.Mutex
	rows map[string]journal.Member
	// Books and Memos, when set, are emptied of the member's rows on Delete.
	Books *Books
	Memos *Memos
}

func NewMembers(seed ...journal.Member) *Members {
	s := &Members{rows: map[string]journal.Member{}}
	for _, m := range seed {
		s.rows[m.ID] = m
	}
	return s
}

func (s *Members) FindByID(_ context.Context, id string) (journal.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return journal.Member{}, journal.ErrResourceNotFound
	}
	return m, nil
}

func (s *Members) FindByEmail(_ context.Context, email string) (journal.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.rows {
		if strings.EqualFold(m.Email, email) {
			return m, nil
		}
	}
	return journal.Member{}, journal.ErrResourceNotFound
}

// ErrEmailTaken mimics a unique violation on email.
var ErrEmailTaken = errors.New("email already registered")

func (s *Members) Create(_ context.Context, m journal.Member) (journal.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.rows {
		if strings.EqualFold(other.Email, m.Email) {
			return journal.Member{}, ErrEmailTaken
		}
	}
	s.rows[m.ID] = m
	return m, nil
}

func (s *Members) Update(_ context.Context, m journal.Member) (journal.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.rows[m.ID]
	if !ok {
		return journal.Member{}, journal.ErrResourceNotFound
	}
	prev.Nickname = m.Nickname
	prev.PasswordHash = m.PasswordHash
	prev.UpdatedAt = m.UpdatedAt
	s.rows[m.ID] = prev
	return prev, nil
}

func (s *Members) BumpTokenVersion(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok {
		return 0, journal.ErrResourceNotFound
	}
	m.TokenVersion++
	s.rows[id] = m
	return m.TokenVersion, nil
}

func (s *Members) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.rows[id]; !ok {
		s.mu.Unlock()
		return journal.ErrResourceNotFound
	}
	delete(s.rows, id)
	s.mu.Unlock()

	if s.Memos != nil {
		owned, _ := s.Memos.FindAllByOwner(ctx, id)
		for _, m := range owned {
			_ = s.Memos.Delete(ctx, m.ID)
		}
	}
	if s.Books != nil {
		s.Books.mu.Lock()
		for bid, b := range s.Books.rows {
			if b.OwnerID == id {
				delete(s.Books.rows, bid)
			}
		}
		s.Books.order = slices.DeleteFunc(s.Books.order, func(v string) bool {
			_, ok := s.Books.rows[v]
			return !ok
		})
		s.Books.mu.Unlock()
	}
	return nil
}

// Uploader records uploads and hands back predictable URLs.
type Uploader struct {
	mu      sync.Mutex
	BaseURL string
	Stored  []string
	Err     error
}

func (u *Uploader) Store(_ context.Context, ownerID string, payload io.Reader, _ int64, contentType string) (string, error) {
	if u.Err != nil {
		return "", u.Err
	}
	if _, err := io.Copy(io.Discard, payload); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	base := u.BaseURL
	if base == "" {
		base = "https://images.test"
	}
	ext := strings.TrimPrefix(contentType, "image/")
	url := fmt.Sprintf("%s/memo-images/%s/%d.%s", base, ownerID, len(u.Stored)+1, ext)
	u.Stored = append(u.Stored, url)
	return url, nil
}

// OwnerOf parses URLs of the form <base>/memo-images/<owner>/<name>.
func (u *Uploader) OwnerOf(url string) (string, bool) {
	base := u.BaseURL
	if base == "" {
		base = "https://images.test"
	}
	rest, ok := strings.CutPrefix(url, base+"/memo-images/")
	if !ok {
		return "", false
	}
	owner, name, ok := strings.Cut(rest, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return owner, true
}

// Resolver maps fixed tokens to member ids.
type Resolver map[string]string

func (r Resolver) Resolve(_ context.Context, credential string) (string, error) {
	if id, ok := r[credential]; ok {
		return id, nil
	}
	return "", journal.ErrNotAuthenticated
}

var (
	_ journal.BookStore        = (*Books)(nil)
	_ journal.MemoStore        = (*Memos)(nil)
	_ journal.MemberStore      = (*Members)(nil)
	_ journal.FileUploader     = (*Uploader)(nil)
	_ journal.IdentityResolver = Resolver(nil)
)
