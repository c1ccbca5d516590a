package srs

import (
	"math"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

const (
	easePenalty = 0.2
	easeBonus   = 0.1
)

// intervalSteps maps a correct streak to its base interval in days.
// Streaks beyond the last step reuse it.
var intervalSteps = [...]int{1: 1, 2: 3, 3: 7, 4: 14, 5: 30, 6: 60}

// ReviewState is the scheduling metadata produced by a single answer.
type ReviewState struct {
	NextReviewDate time.Time
	CorrectStreak  int
	EaseFactor     float64
}

// NextReviewState computes the card's next review date, streak and ease after
// an answer given at now. It never reads the card's confidence.
func NextReviewState(card domain.Card, wasCorrect bool, now time.Time) ReviewState {
	ease := clampEase(card.EaseFactor)

	if !wasCorrect {
		// Due again immediately so the card can be relearned.
		return ReviewState{
			NextReviewDate: now,
			CorrectStreak:  0,
			EaseFactor:     clampEase(ease - easePenalty),
		}
	}

	streak := card.CorrectStreak + 1
	return ReviewState{
		NextReviewDate: now.AddDate(0, 0, IntervalDays(streak, ease)),
		CorrectStreak:  streak,
		EaseFactor:     clampEase(ease + easeBonus),
	}
}

// IntervalDays is the ease-adjusted interval for a card that has just reached
// the given correct streak.
func IntervalDays(streak int, ease float64) int {
	step := min(max(streak, 1), len(intervalSteps)-1)
	base := float64(intervalSteps[step])
	return int(math.Round(base * clampEase(ease) / domain.DefaultEaseFactor))
}

// Review returns a copy of card with the outcome of one answer merged in.
func Review(card domain.Card, wasCorrect bool, confidence domain.Confidence, now time.Time) domain.Card {
	state := NextReviewState(card, wasCorrect, now)

	next := state.NextReviewDate
	reviewed := now
	card.NextReviewDate = &next
	card.CorrectStreak = state.CorrectStreak
	card.EaseFactor = state.EaseFactor
	card.TotalReviews++
	if wasCorrect {
		card.CorrectReviews++
	}
	card.LastReviewDate = &reviewed
	card.LastConfidence = confidence
	return card
}

func clampEase(ease float64) float64 {
	return math.Min(domain.MaxEaseFactor, math.Max(domain.MinEaseFactor, ease))
}
