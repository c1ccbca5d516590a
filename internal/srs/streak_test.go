package srs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolstudy/internal/domain"
)

func sessionOn(day string, hour int) domain.HistoryEntry {
	d, err := time.Parse(time.DateOnly, day)
	if err != nil {
		panic(err)
	}
	return domain.HistoryEntry{Date: d.Add(time.Duration(hour) * time.Hour)}
}

func TestStudyStreak(t *testing.T) {
	now := time.Date(2024, 3, 3, 18, 0, 0, 0, time.UTC)

	t.Run("empty history", func(t *testing.T) {
		s := StudyStreak(nil, now)
		assert.Equal(t, Streak{}, s)
		assert.Nil(t, s.LastStudyDate)
	})

	t.Run("three consecutive days", func(t *testing.T) {
		s := StudyStreak([]domain.HistoryEntry{
			sessionOn("2024-03-01", 9), sessionOn("2024-03-02", 22), sessionOn("2024-03-03", 7),
		}, now)
		assert.Equal(t, 3, s.Current)
		assert.Equal(t, 3, s.Longest)
		require.NotNil(t, s.LastStudyDate)
		assert.Equal(t, time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC), *s.LastStudyDate)
	})

	t.Run("gap breaks the chain", func(t *testing.T) {
		s := StudyStreak([]domain.HistoryEntry{
			sessionOn("2024-03-01", 9), sessionOn("2024-03-03", 9),
		}, now)
		assert.Equal(t, 1, s.Current)
		assert.Equal(t, 1, s.Longest)
	})

	t.Run("several sessions a day count once", func(t *testing.T) {
		s := StudyStreak([]domain.HistoryEntry{
			sessionOn("2024-03-03", 9), sessionOn("2024-03-02", 10), sessionOn("2024-03-03", 20),
		}, now)
		assert.Equal(t, 2, s.Current)
		assert.Equal(t, 2, s.Longest)
	})

	t.Run("yesterday keeps the streak alive", func(t *testing.T) {
		s := StudyStreak([]domain.HistoryEntry{
			sessionOn("2024-03-01", 9), sessionOn("2024-03-02", 9),
		}, now)
		assert.Equal(t, 2, s.Current)
	})

	t.Run("older than yesterday is broken", func(t *testing.T) {
		s := StudyStreak([]domain.HistoryEntry{
			sessionOn("2024-02-20", 9), sessionOn("2024-02-21", 9), sessionOn("2024-02-22", 9),
			sessionOn("2024-02-28", 9),
		}, now)
		assert.Equal(t, 0, s.Current)
		assert.Equal(t, 3, s.Longest)
	})
}
