package validate

import (
	"errors"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var ErrInvalid = errors.New("invalid")

// CleanText trims and NFC-normalizes user text so that visually equal
// titles compare equal.
func CleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// RequireBounded cleans s and ensures its length in runes is within bounds.
func RequireBounded(name, s string, min, max int) (string, error) {
	s = CleanText(s)
	if n := utf8.RuneCountInString(s); n < min || n > max {
		return "", errors.New(name + " must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max) + " characters")
	}
	return s, nil
}

// IsHTTPURL reports whether s is an absolute http or https URL with a host.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// NormalizeEmail lowercases and checks the address shape.
func NormalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || utf8.RuneCountInString(s) > 254 {
		return "", errors.New("email is not a valid address")
	}
	return s, nil
}

// ParsePositive parses a required query parameter that must be >= 1.
func ParsePositive(name, raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 0, errors.New(name + " must be a positive integer")
	}
	return n, nil
}
