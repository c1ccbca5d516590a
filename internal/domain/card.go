package domain

import "time"

// Default review metadata for a freshly added card.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 3.0
)

// Card is a single front/back flashcard owned by exactly one deck.
//
// The review fields are written only by the review policy; UI edits go
// through Content.
type Card struct {
	ID     string `json:"id"`
	DeckID string `json:"deckId"`
	Content

	CorrectStreak  int        `json:"correctStreak"`
	EaseFactor     float64    `json:"easeFactor"`
	NextReviewDate *time.Time `json:"nextReviewDate"` // nil means never reviewed, always due
	TotalReviews   int        `json:"totalReviews"`
	CorrectReviews int        `json:"correctReviews"`
	LastReviewDate *time.Time `json:"lastReviewDate,omitempty"`
	LastConfidence Confidence `json:"lastConfidence,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Content is the learner-visible part of a card.
type Content struct {
	Front string `json:"front" validate:"required"`
	Back  string `json:"back" validate:"required"`
	Type  string `json:"type,omitempty"` // e.g. "vocabulary", "concept"
}

// IsNew reports whether the card has never been reviewed.
func (c Card) IsNew() bool {
	return c.NextReviewDate == nil
}

// Deck groups cards under a name and category.
type Deck struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	CardCount   int       `json:"cardCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DeckInput carries the editable fields of a deck.
type DeckInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Category    string `json:"category" validate:"max=60"`
}
