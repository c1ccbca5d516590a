package srs

import (
	"cmp"
	"slices"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// DueCards returns the cards eligible for review on now's calendar day.
// A never-reviewed card is always due; otherwise a card is due once the day
// holding its review date has begun, regardless of the time of day.
func DueCards(cards []domain.Card, now time.Time) []domain.Card {
	loc := now.Location()
	today := StartOfDay(now, loc)

	due := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if c.NextReviewDate == nil || !StartOfDay(*c.NextReviewDate, loc).After(today) {
			due = append(due, c)
		}
	}
	return due
}

// ByPriority returns a stably sorted copy of a due set: overdue cards first,
// most overdue leading, then due-today and new cards by ascending streak.
func ByPriority(cards []domain.Card, now time.Time) []domain.Card {
	today := StartOfDay(now, now.Location())
	overdue := func(c domain.Card) bool {
		return c.NextReviewDate != nil && c.NextReviewDate.Before(today)
	}

	sorted := slices.Clone(cards)
	slices.SortStableFunc(sorted, func(a, b domain.Card) int {
		ao, bo := overdue(a), overdue(b)
		switch {
		case ao && !bo:
			return -1
		case !ao && bo:
			return 1
		case ao && bo:
			return a.NextReviewDate.Compare(*b.NextReviewDate)
		}
		return cmp.Compare(a.CorrectStreak, b.CorrectStreak)
	})
	return sorted
}
