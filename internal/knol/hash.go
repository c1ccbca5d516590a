// Package knol fingerprints card content so the same card is recognised
// across imports regardless of cosmetic whitespace or case changes.
package knol

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// Normalize concatenates the card's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each field
// before joining them.
func Normalize(c domain.Content) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return strings.TrimSpace(p)
	}

	// Joined with a newline so "ab"+"c" and "a"+"bc" differ.
	return strings.Join([]string{
		normalizePart(c.Front),
		normalizePart(c.Back),
		normalizePart(c.Type),
	}, "\n")
}

// Hash takes card content, normalizes it, and returns its SHA-256 hash as a hex string.
func Hash(c domain.Content) string {
	sum := sha256.Sum256([]byte(Normalize(c)))
	return fmt.Sprintf("%x", sum)
}

// Set is a collection of fingerprints.
type Set map[string]struct{}

// NewSet fingerprints existing cards.
func NewSet(cards []domain.Card) Set {
	s := make(Set, len(cards))
	for _, c := range cards {
		s[Hash(c.Content)] = struct{}{}
	}
	return s
}

// Add records c and reports whether it was not already present.
func (s Set) Add(c domain.Content) bool {
	h := Hash(c)
	if _, ok := s[h]; ok {
		return false
	}
	s[h] = struct{}{}
	return true
}
