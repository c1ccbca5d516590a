package session

import (
	"math"

	"github.com/conorfennell/knolstudy/internal/domain"
)

const (
	xpPerCard      = 2
	xpBonus        = 25
	bonusThreshold = 80
)

// Stats summarises a finished session.
type Stats struct {
	Total     int `json:"total"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Accuracy  int `json:"accuracy"` // rounded percentage, 0 for an empty session
	XPEarned  int `json:"xpEarned"`
	// BonusAwarded is set when accuracy reaches 80%, not only at 100%.
	BonusAwarded bool `json:"bonusAwarded"`
}

// Summarize computes session statistics from its answers.
func Summarize(results []domain.AnswerResult) Stats {
	s := Stats{Total: len(results)}
	for _, r := range results {
		if r.WasCorrect {
			s.Correct++
		}
	}
	s.Incorrect = s.Total - s.Correct

	if s.Total > 0 {
		s.Accuracy = int(math.Round(float64(s.Correct) / float64(s.Total) * 100))
	}
	s.BonusAwarded = s.Accuracy >= bonusThreshold
	s.XPEarned = s.Total * xpPerCard
	if s.BonusAwarded {
		s.XPEarned += xpBonus
	}
	return s
}
