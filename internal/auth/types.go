package auth

import (
	"github.com/5w1tchy/reading-journal/internal/journal"
	"github.com/5w1tchy/reading-journal/internal/security/password"
)

type JoinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ProfilePatch changes the nickname and/or the password. A new password
// needs the current one.
type ProfilePatch struct {
	Nickname    *string `json:"nickname"`
	OldPassword string  `json:"old_password"`
	NewPassword *string `json:"new_password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type JoinResponse struct {
	Member          journal.Member    `json:"member"`
	Tokens          TokenPair         `json:"tokens"`
	PasswordWarning *password.Warning `json:"password_warning,omitempty"`
}

type ProfileResponse struct {
	Member journal.Member `json:"member"`
	// Tokens is set when the password changed and older sessions were revoked.
	Tokens          *TokenPair        `json:"tokens,omitempty"`
	PasswordWarning *password.Warning `json:"password_warning,omitempty"`
}
