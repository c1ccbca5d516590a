package domain

import "time"

// AnswerResult records one answered card within a session.
type AnswerResult struct {
	CardID     string     `json:"cardId"`
	WasCorrect bool       `json:"wasCorrect"`
	Confidence Confidence `json:"confidence"`
	Timestamp  time.Time  `json:"timestamp"`
}

// HistoryEntry is the immutable record of a finished session.
type HistoryEntry struct {
	SessionID     string    `json:"sessionId"`
	DeckID        string    `json:"deckId"`
	Date          time.Time `json:"date"`
	CardsReviewed int       `json:"cardsReviewed"`
	Accuracy      int       `json:"accuracy"`
	XPEarned      int       `json:"xpEarned"`
}
