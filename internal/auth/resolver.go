package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/5w1tchy/reading-journal/internal/journal"
	jwtutil "github.com/5w1tchy/reading-journal/internal/security/jwt"
)

// Resolver turns a bearer access token into a member id. Tokens minted before
// the member's last logout-all or password change are rejected.
type Resolver struct {
	Signer  *jwtutil.Signer
	Members journal.MemberStore
}

var _ journal.IdentityResolver = (*Resolver)(nil)

func (r *Resolver) Resolve(ctx context.Context, credential string) (string, error) {
	claims, err := r.Signer.ParseAccess(credential)
	if err != nil {
		return "", journal.ErrNotAuthenticated
	}
	m, err := r.Members.FindByID(ctx, claims.Subject)
	if errors.Is(err, journal.ErrResourceNotFound) {
		return "", journal.ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("load member: %w", err)
	}
	if m.TokenVersion != claims.TokenVersion {
		return "", journal.ErrNotAuthenticated
	}
	return m.ID, nil
}
