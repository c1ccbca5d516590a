// Package session drives a single study session from dealing cards to its
// summary.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/srs"
)

var (
	ErrNoActiveSession   = errors.New("session: no active session")
	ErrSessionActive     = errors.New("session: a session is already active")
	ErrOutOfOrder        = errors.New("session: answer is not for the current card")
	ErrInvalidConfidence = errors.New("session: invalid confidence")
)

// DefaultHistoryWindow is how many recent sessions feed the recent accuracy.
const DefaultHistoryWindow = 5

// CardStore is the part of the deck store a session reads and writes.
type CardStore interface {
	DeckCards(deckID string) ([]domain.Card, error)
	Card(id string) (domain.Card, error)
	SaveReview(card domain.Card) error
}

// HistoryLog keeps finished sessions, oldest first.
type HistoryLog interface {
	History() []domain.HistoryEntry
	AppendHistory(entry domain.HistoryEntry)
}

// State is the lifecycle position of the manager's session.
type State int

const (
	Idle State = iota
	Active
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Kind tags the outcome of a transition.
type Kind string

const (
	KindDealt    Kind = "dealt"
	KindEmpty    Kind = "empty"
	KindContinue Kind = "continue"
	KindComplete Kind = "complete"
	KindIdle     Kind = "idle"
)

// Outcome is the result of Start, RecordAnswer or End. Cards is set for
// KindDealt and Stats for KindComplete.
type Outcome struct {
	Kind  Kind          `json:"kind"`
	Cards []domain.Card `json:"cards,omitempty"`
	Stats *Stats        `json:"stats,omitempty"`
}

// Session is one study session. CurrentIndex always equals len(Results).
type Session struct {
	ID           string                `json:"id"`
	DeckID       string                `json:"deckId"`
	CardIDs      []string              `json:"cardIds"`
	CurrentIndex int                   `json:"currentIndex"`
	Results      []domain.AnswerResult `json:"results"`
	StartedAt    time.Time             `json:"startedAt"`
}

// Manager owns at most one active session for one learner.
type Manager struct {
	mu      sync.Mutex
	cards   CardStore
	history HistoryLog
	now     func() time.Time
	window  int

	state   State
	current *Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source; its location is the day-boundary policy.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithHistoryWindow sets how many recent sessions feed the recommender.
func WithHistoryWindow(n int) Option {
	return func(m *Manager) { m.window = n }
}

// NewManager creates an idle manager.
func NewManager(cards CardStore, history HistoryLog, opts ...Option) *Manager {
	m := &Manager{
		cards:   cards,
		history: history,
		now:     time.Now,
		window:  DefaultHistoryWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns a copy of the active session.
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Session{}, false
	}
	s := *m.current
	s.CardIDs = slices.Clone(s.CardIDs)
	s.Results = slices.Clone(s.Results)
	return s, true
}

// Start deals the most urgent due cards of a deck. A count of zero or less
// lets the recommender pick the session size. When nothing is due the
// outcome is KindEmpty and the manager does not become active.
func (m *Manager) Start(deckID string, count int) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Active {
		return Outcome{}, ErrSessionActive
	}
	now := m.now()

	due, err := m.dueLocked(deckID, now)
	if err != nil {
		return Outcome{}, err
	}
	if count <= 0 {
		count = srs.RecommendedCount(due, srs.RecentAccuracy(m.history.History(), m.window))
	}
	dealt := due[:min(count, len(due))]

	if len(dealt) == 0 {
		slog.Info("Nothing to study", "deck_id", deckID)
		return Outcome{Kind: KindEmpty}, nil
	}

	ids := make([]string, len(dealt))
	for i, c := range dealt {
		ids[i] = c.ID
	}
	m.current = &Session{
		ID:        uuid.NewString(),
		DeckID:    deckID,
		CardIDs:   ids,
		StartedAt: now,
	}
	m.state = Active

	slog.Info("Session started", "session_id", m.current.ID, "deck_id", deckID, "cards", len(ids), "due", len(due))
	return Outcome{Kind: KindDealt, Cards: slices.Clone(dealt)}, nil
}

// RecordAnswer applies an answer to the card at the cursor. The session
// completes automatically after its last card.
func (m *Manager) RecordAnswer(cardID string, wasCorrect bool, confidence domain.Confidence) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Active {
		return Outcome{}, ErrNoActiveSession
	}
	if confidence != 0 && !confidence.Valid() {
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidConfidence, int(confidence))
	}
	s := m.current
	if want := s.CardIDs[s.CurrentIndex]; cardID != want {
		return Outcome{}, fmt.Errorf("%w: got %s, want %s", ErrOutOfOrder, cardID, want)
	}
	now := m.now()

	card, err := m.cards.Card(cardID)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to load card %s: %w", cardID, err)
	}
	if err := m.cards.SaveReview(srs.Review(card, wasCorrect, confidence, now)); err != nil {
		return Outcome{}, fmt.Errorf("failed to save review for card %s: %w", cardID, err)
	}

	s.Results = append(s.Results, domain.AnswerResult{
		CardID:     cardID,
		WasCorrect: wasCorrect,
		Confidence: confidence,
		Timestamp:  now,
	})
	s.CurrentIndex++

	if len(s.Results) == len(s.CardIDs) {
		stats := m.finishLocked(now)
		return Outcome{Kind: KindComplete, Stats: &stats}, nil
	}
	return Outcome{Kind: KindContinue}, nil
}

// End finishes the active session early with whatever has been answered.
// Outside an active session it does nothing and reports KindIdle.
func (m *Manager) End() Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Active {
		return Outcome{Kind: KindIdle}
	}
	stats := m.finishLocked(m.now())
	return Outcome{Kind: KindComplete, Stats: &stats}
}

// Due returns a deck's due cards in review order.
func (m *Manager) Due(deckID string) ([]domain.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dueLocked(deckID, m.now())
}

// Recommended returns the session size Start would pick for a deck.
func (m *Manager) Recommended(deckID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	due, err := m.dueLocked(deckID, m.now())
	if err != nil {
		return 0, err
	}
	return srs.RecommendedCount(due, srs.RecentAccuracy(m.history.History(), m.window)), nil
}

// Streak reports the learner's study streak as of now.
func (m *Manager) Streak() srs.Streak {
	return srs.StudyStreak(m.history.History(), m.now())
}

func (m *Manager) dueLocked(deckID string, now time.Time) ([]domain.Card, error) {
	cards, err := m.cards.DeckCards(deckID)
	if err != nil {
		return nil, err
	}
	return srs.ByPriority(srs.DueCards(cards, now), now), nil
}

func (m *Manager) finishLocked(now time.Time) Stats {
	s := m.current
	stats := Summarize(s.Results)

	m.history.AppendHistory(domain.HistoryEntry{
		SessionID:     s.ID,
		DeckID:        s.DeckID,
		Date:          now,
		CardsReviewed: stats.Total,
		Accuracy:      stats.Accuracy,
		XPEarned:      stats.XPEarned,
	})
	slog.Info("Session complete",
		"session_id", s.ID,
		"deck_id", s.DeckID,
		"reviewed", stats.Total,
		"of", len(s.CardIDs),
		"accuracy", stats.Accuracy,
		"xp", stats.XPEarned,
	)

	m.current = nil
	m.state = Complete
	return stats
}
