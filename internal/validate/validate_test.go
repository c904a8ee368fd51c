package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	got, err := NormalizeEmail("  Reader@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", got)

	for _, bad := range []string{"", "no-at-sign", "Reader <r@example.com>", "a@" + strings.Repeat("b", 260) + ".com"} {
		_, err := NormalizeEmail(bad)
		assert.Error(t, err, bad)
	}
}

func TestRequireBounded(t *testing.T) {
	got, err := RequireBounded("nickname", "  bookworm ", 1, 30)
	require.NoError(t, err)
	assert.Equal(t, "bookworm", got)

	// Decomposed é is one rune after NFC.
	got, err = RequireBounded("nickname", "e\u0301", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "\u00e9", got)

	_, err = RequireBounded("nickname", "   ", 1, 30)
	assert.EqualError(t, err, "nickname must be between 1 and 30 characters")

	_, err = RequireBounded("nickname", strings.Repeat("가", 31), 1, 30)
	assert.Error(t, err)
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("https://cdn.example.com/memo-images/a.png"))
	assert.True(t, IsHTTPURL("http://localhost:9000/x"))
	assert.False(t, IsHTTPURL("ftp://host/a.png"))
	assert.False(t, IsHTTPURL("/relative/path"))
	assert.False(t, IsHTTPURL("https://"))
	assert.False(t, IsHTTPURL("not a url"))
}

func TestParsePositive(t *testing.T) {
	n, err := ParsePositive("page", " 3 ")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, raw := range []string{"", "0", "-2", "two"} {
		_, err := ParsePositive("page", raw)
		assert.EqualError(t, err, "page must be a positive integer", raw)
	}
}
