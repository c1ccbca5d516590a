package srs

import (
	"math"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// DefaultAccuracy is assumed when a learner has no session history yet.
const DefaultAccuracy = 80.0

// RecommendedCount caps a session at 5, 10 or 15 cards depending on how
// well the learner has been doing, never exceeding the due count.
func RecommendedCount(due []domain.Card, recentAccuracy float64) int {
	if len(due) == 0 {
		return 0
	}

	limit := 15
	switch {
	case recentAccuracy < 60:
		limit = 5
	case recentAccuracy < 80:
		limit = 10
	}
	return min(len(due), limit)
}

// RecentAccuracy averages the accuracy of the last window history entries.
// History is expected oldest first.
func RecentAccuracy(history []domain.HistoryEntry, window int) float64 {
	if len(history) == 0 || window <= 0 {
		return DefaultAccuracy
	}

	recent := history[max(0, len(history)-window):]
	var sum int
	for _, h := range recent {
		sum += h.Accuracy
	}
	return math.Round(float64(sum) / float64(len(recent)))
}
