package gitsource

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		name string
		url  string
		want string
	}{
		{"https", "https://github.com/acme/decks.git", filepath.Join("repos", "github.com", "acme", "decks")},
		{"https without suffix", "https://github.com/acme/decks", filepath.Join("repos", "github.com", "acme", "decks")},
		{"scp style", "git@github.com:acme/decks.git", filepath.Join("repos", "github.com", "acme", "decks")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := LocalPath("repos", "not a url")
	assert.Error(t, err)
}

func TestIsGitURL(t *testing.T) {
	assert.True(t, IsGitURL("https://github.com/acme/decks"))
	assert.True(t, IsGitURL("git@github.com:acme/decks.git"))
	assert.True(t, IsGitURL("/srv/decks.git"))
	assert.False(t, IsGitURL("decks/animals"))
}
