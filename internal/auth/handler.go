package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/5w1tchy/reading-journal/internal/api/apperr"
	"github.com/5w1tchy/reading-journal/internal/api/httpx"
	"github.com/5w1tchy/reading-journal/internal/api/middlewares"
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/logging"
	jwtutil "github.com/5w1tchy/reading-journal/internal/security/jwt"
	"github.com/5w1tchy/reading-journal/internal/security/password"
	"github.com/5w1tchy/reading-journal/internal/validate"
	"github.com/sirupsen/logrus"
)

const (
	nicknameMin = 1
	nicknameMax = 30
)

type Handler struct {
	Members journal.MemberStore
	Memos   journal.MemoStore
	Tokens  RefreshStore
	Signer  *jwtutil.Signer
	Hasher  *password.Hasher
	// ImageReleased receives the image URLs of a deleted account's memos.
	ImageReleased func(ctx context.Context, url string)
	Now           func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *Handler) issue(ctx context.Context, m journal.Member) (TokenPair, error) {
	access, _, err := h.Signer.SignAccess(m.ID, m.TokenVersion)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := h.Tokens.Issue(ctx, m.ID, m.TokenVersion)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(h.Signer.AccessTTL().Seconds()),
	}, nil
}

func badCredentials(w http.ResponseWriter, r *http.Request) {
	apperr.WriteStatus(w, r, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
}

func passwordFieldError(err error) error {
	if errors.Is(err, password.ErrTooLong) {
		return &journal.FieldError{Field: "password", Reason: "must be at most 128 characters"}
	}
	return &journal.FieldError{Field: "password", Reason: "must be at least 8 characters"}
}

// Join: POST /join
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	email, err := validate.NormalizeEmail(req.Email)
	if err != nil {
		apperr.Handle(w, r, &journal.FieldError{Field: "email", Reason: err.Error()})
		return
	}
	nickname, err := validate.RequireBounded("nickname", req.Nickname, nicknameMin, nicknameMax)
	if err != nil {
		apperr.Handle(w, r, &journal.FieldError{Field: "nickname", Reason: err.Error()})
		return
	}
	pwd, warn, err := password.Validate(req.Password, email, nickname)
	if err != nil {
		apperr.Handle(w, r, passwordFieldError(err))
		return
	}

	ctx := r.Context()
	if _, err := h.Members.FindByEmail(ctx, email); err == nil {
		apperr.Write(w, r, apperr.Problem{
			Status:      http.StatusConflict,
			Title:       "Conflict",
			FieldErrors: []apperr.FieldError{{Field: "email", Code: "unique", Message: "already registered"}},
		})
		return
	} else if !errors.Is(err, journal.ErrResourceNotFound) {
		apperr.Handle(w, r, err)
		return
	}

	hash, err := h.Hasher.Hash(pwd)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	now := h.now()
	m, err := h.Members.Create(ctx, journal.Member{
		ID:           journal.NewID(),
		Email:        email,
		PasswordHash: hash,
		Nickname:     nickname,
		TokenVersion: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	tokens, err := h.issue(ctx, m)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	logging.FromContext(ctx).WithField("member_id", m.ID).Info("member joined")
	httpx.Created(w, JoinResponse{Member: m, Tokens: tokens, PasswordWarning: warn})
}

// Login: POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	email, err := validate.NormalizeEmail(req.Email)
	if err != nil || req.Password == "" {
		badCredentials(w, r)
		return
	}

	ctx := r.Context()
	m, err := h.Members.FindByEmail(ctx, email)
	if errors.Is(err, journal.ErrResourceNotFound) {
		badCredentials(w, r)
		return
	}
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	ok, needsRehash, err := h.Hasher.Verify(strings.TrimSpace(req.Password), m.PasswordHash)
	if err != nil || !ok {
		badCredentials(w, r)
		return
	}
	if needsRehash {
		if hash, err := h.Hasher.Hash(strings.TrimSpace(req.Password)); err == nil {
			m.PasswordHash = hash
			m.UpdatedAt = h.now()
			if _, err := h.Members.Update(ctx, m); err != nil {
				logging.FromContext(ctx).WithError(err).Warn("password rehash failed")
			}
		}
	}

	tokens, err := h.issue(ctx, m)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, tokens)
}

// Refresh: POST /auth/refresh. The presented token is consumed and a new
// pair is returned.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	ctx := r.Context()
	memberID, tv, err := h.Tokens.Consume(ctx, strings.TrimSpace(req.RefreshToken))
	if errors.Is(err, ErrInvalidRefresh) {
		apperr.Handle(w, r, journal.ErrNotAuthenticated)
		return
	}
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	m, err := h.Members.FindByID(ctx, memberID)
	if errors.Is(err, journal.ErrResourceNotFound) {
		apperr.Handle(w, r, journal.ErrNotAuthenticated)
		return
	}
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	if m.TokenVersion != tv {
		apperr.Handle(w, r, journal.ErrNotAuthenticated)
		return
	}
	tokens, err := h.issue(ctx, m)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, tokens)
}

// Logout: POST /auth/logout. Unknown tokens are not an error.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	if err := h.Tokens.Revoke(r.Context(), strings.TrimSpace(req.RefreshToken)); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OKNoData(w)
}

// LogoutAll: POST /auth/logout-all. Bumping the token version invalidates
// every access and refresh token issued so far.
func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middlewares.MemberIDFrom(r.Context())
	if !ok {
		apperr.Handle(w, r, journal.ErrNotAuthenticated)
		return
	}
	if _, err := h.Members.BumpTokenVersion(r.Context(), memberID); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OKNoData(w)
}

// Me: GET /members/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middlewares.MemberIDFrom(r.Context())
	if !ok {
		apperr.Handle(w, r, journal.ErrNotAuthenticated)
		return
	}
	m, err := h.Members.FindByID(r.Context(), memberID)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	httpx.OK(w, m)
}

// PatchMe: PATCH /members/me
func (h *Handler) PatchMe(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middlewares.MemberIDFrom(r.Context())
	if !ok {
		apperr.Handle(w, r, journal.ErrNotAuthenticated)
		return
	}
	var req ProfilePatch
	if err := httpx.DecodeJSON(r, &req); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	ctx := r.Context()
	m, err := h.Members.FindByID(ctx, memberID)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}

	if req.Nickname != nil {
		nickname, err := validate.RequireBounded("nickname", *req.Nickname, nicknameMin, nicknameMax)
		if err != nil {
			apperr.Handle(w, r, &journal.FieldError{Field: "nickname", Reason: err.Error()})
			return
		}
		m.Nickname = nickname
	}

	var warn *password.Warning
	if req.NewPassword != nil {
		ok, _, err := h.Hasher.Verify(strings.TrimSpace(req.OldPassword), m.PasswordHash)
		if err != nil || !ok {
			apperr.WriteStatus(w, r, http.StatusForbidden, "Forbidden", "current password is incorrect")
			return
		}
		var pwd string
		pwd, warn, err = password.Validate(*req.NewPassword, m.Email, m.Nickname)
		if err != nil {
			apperr.Handle(w, r, passwordFieldError(err))
			return
		}
		if m.PasswordHash, err = h.Hasher.Hash(pwd); err != nil {
			apperr.Handle(w, r, err)
			return
		}
	}

	m.UpdatedAt = h.now()
	m, err = h.Members.Update(ctx, m)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	resp := ProfileResponse{Member: m, PasswordWarning: warn}
	if req.NewPassword != nil {
		tv, err := h.Members.BumpTokenVersion(ctx, m.ID)
		if err != nil {
			apperr.Handle(w, r, err)
			return
		}
		m.TokenVersion = tv
		tokens, err := h.issue(ctx, m)
		if err != nil {
			apperr.Handle(w, r, err)
			return
		}
		resp.Tokens = &tokens
		logging.FromContext(ctx).Info("password changed; older sessions revoked")
	}
	httpx.OK(w, resp)
}

// DeleteMe: DELETE /members/me. Removes the member with all books and memos;
// uploaded memo images are handed to ImageReleased afterwards.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middlewares.MemberIDFrom(r.Context())
	if !ok {
		apperr.Handle(w, r, journal.ErrNotAuthenticated)
		return
	}
	ctx := r.Context()
	memos, err := h.Memos.FindAllByOwner(ctx, memberID)
	if err != nil {
		apperr.Handle(w, r, err)
		return
	}
	if err := h.Members.Delete(ctx, memberID); err != nil {
		apperr.Handle(w, r, err)
		return
	}
	released := 0
	if h.ImageReleased != nil {
		for _, m := range memos {
			if m.Kind == journal.KindImage {
				h.ImageReleased(ctx, m.Content)
				released++
			}
		}
	}
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"memos":           len(memos),
		"images_released": released,
	}).Info("member deleted")
	httpx.NoContent(w)
}
