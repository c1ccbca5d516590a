package srs

import (
	"slices"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// Streak summarises consecutive study days.
type Streak struct {
	Current       int        `json:"current"`
	Longest       int        `json:"longest"`
	LastStudyDate *time.Time `json:"lastStudyDate"`
}

// StudyStreak derives the current and longest runs of consecutive calendar
// days with at least one session. Days are taken in now's location. The
// current run counts back from the latest study day and is broken when that
// day is older than yesterday.
func StudyStreak(history []domain.HistoryEntry, now time.Time) Streak {
	if len(history) == 0 {
		return Streak{}
	}
	loc := now.Location()

	days := make([]time.Time, 0, len(history))
	for _, h := range history {
		days = append(days, StartOfDay(h.Date, loc))
	}
	slices.SortFunc(days, time.Time.Compare)
	days = slices.CompactFunc(days, time.Time.Equal)

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if daysBetween(days[i-1], days[i], loc) == 1 {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}

	last := days[len(days)-1]
	current := 0
	if daysBetween(last, now, loc) <= 1 {
		current = 1
		for i := len(days) - 1; i > 0; i-- {
			if daysBetween(days[i-1], days[i], loc) != 1 {
				break
			}
			current++
		}
	}

	return Streak{Current: current, Longest: longest, LastStudyDate: &last}
}
