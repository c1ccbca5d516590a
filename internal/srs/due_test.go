package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/conorfennell/knolstudy/internal/domain"
)

func dueAt(id string, at time.Time, streak int) domain.Card {
	c := newCard(id)
	c.NextReviewDate = &at
	c.CorrectStreak = streak
	return c
}

func ids(cards []domain.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.ID
	}
	return out
}

func TestDueCards(t *testing.T) {
	today := StartOfDay(t0, time.UTC)

	cards := []domain.Card{
		newCard("new"),
		dueAt("start-of-today", today, 1),
		dueAt("late-yesterday", today.Add(-time.Minute), 1),
		dueAt("later-today", today.Add(23*time.Hour), 1),
		dueAt("tomorrow", today.AddDate(0, 0, 1), 1),
		dueAt("next-week", today.AddDate(0, 0, 7), 1),
	}

	got := DueCards(cards, t0)
	assert.Equal(t, []string{"new", "start-of-today", "late-yesterday", "later-today"}, ids(got))
	assert.Empty(t, DueCards(nil, t0))
}

func TestDueCardsUsesLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2024, 3, 3, 20, 0, 0, 0, loc) // 01:00 UTC on 03-04
	tomorrowLocal := time.Date(2024, 3, 4, 0, 30, 0, 0, loc)

	got := DueCards([]domain.Card{dueAt("a", tomorrowLocal.UTC(), 1)}, now)
	assert.Empty(t, got)
}

func TestByPriority(t *testing.T) {
	today := StartOfDay(t0, time.UTC)
	a := dueAt("A", today.AddDate(0, 0, -3), 4)
	b := dueAt("B", today.AddDate(0, 0, -1), 0)
	c := newCard("C")
	d := dueAt("D", today.Add(9*time.Hour), 2)

	got := ByPriority([]domain.Card{c, d, b, a}, t0)
	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(got))
}

func TestByPriorityIsStable(t *testing.T) {
	cards := []domain.Card{newCard("x"), newCard("y"), newCard("z")}
	input := append([]domain.Card(nil), cards...)

	got := ByPriority(cards, t0)
	assert.Equal(t, []string{"x", "y", "z"}, ids(got))
	assert.Equal(t, input, cards, "input must not be reordered")
}

func TestByPriorityNewBeforeShakyDueToday(t *testing.T) {
	today := StartOfDay(t0, time.UTC)
	known := dueAt("known", today, 3)
	shaky := dueAt("shaky", today, 0)
	fresh := newCard("fresh")
	fresh.CorrectStreak = 0

	got := ByPriority([]domain.Card{known, shaky, fresh}, t0)
	assert.Equal(t, []string{"shaky", "fresh", "known"}, ids(got))
}
