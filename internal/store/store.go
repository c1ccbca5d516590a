// Package store holds a learner's decks, cards and study history in memory
// and mirrors every change to durable storage without waiting for it.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/srs"
)

var (
	ErrDeckNotFound = errors.New("store: deck not found")
	ErrCardNotFound = errors.New("store: card not found")
	ErrInvalidInput = errors.New("store: invalid input")
)

// masteredStreak is the correct streak from which a card counts as mastered.
const masteredStreak = 5

// Snapshot is everything persisted for one learner.
type Snapshot struct {
	Decks        []domain.Deck         `json:"decks"`
	Cards        []domain.Card         `json:"cards"`
	StudyHistory []domain.HistoryEntry `json:"studyHistory"`
}

// Persister stores snapshots keyed by learner.
type Persister interface {
	Load(ctx context.Context, learnerID string) (Snapshot, error)
	Save(ctx context.Context, learnerID string, s Snapshot) error
}

// DeckStats is a deck overview for display.
type DeckStats struct {
	DeckID   string `json:"deckId"`
	Total    int    `json:"total"`
	Due      int    `json:"due"`
	New      int    `json:"new"`
	Mastered int    `json:"mastered"`
}

// Store is the single source of truth for one learner's data.
type Store struct {
	mu       sync.RWMutex
	decks    []domain.Deck
	cards    []domain.Card
	history  []domain.HistoryEntry
	validate *validator.Validate
	now      func() time.Time
	mirror   *mirror
	closed   bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty store. A nil persister keeps data in memory only.
func New(learnerID string, p Persister, opts ...Option) *Store {
	return newStore(learnerID, p, Snapshot{}, opts)
}

// Load creates a store from the learner's persisted snapshot. Unreadable
// data is logged and replaced by an empty store.
func Load(ctx context.Context, learnerID string, p Persister, opts ...Option) *Store {
	snap, err := p.Load(ctx, learnerID)
	if err != nil {
		slog.Warn("Failed to load snapshot, starting empty", "learner", learnerID, "error", err)
		snap = Snapshot{}
	}
	s := newStore(learnerID, p, snap, opts)
	slog.Info("Store loaded", "learner", learnerID, "decks", len(s.decks), "cards", len(s.cards), "sessions", len(s.history))
	return s
}

func newStore(learnerID string, p Persister, snap Snapshot, opts []Option) *Store {
	s := &Store{
		decks:    snap.Decks,
		cards:    snap.Cards,
		history:  snap.StudyHistory,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if p != nil {
		s.mirror = newMirror(learnerID, p)
	}
	return s
}

// Close waits for pending writes. The store must not be mutated afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.mirror != nil {
		s.mirror.close()
	}
}

// Snapshot returns a copy of all data.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Decks:        slices.Clone(s.decks),
		Cards:        slices.Clone(s.cards),
		StudyHistory: slices.Clone(s.history),
	}
}

// changed hands the new state to the mirror. Callers hold the write lock.
func (s *Store) changed() {
	if s.mirror != nil && !s.closed {
		s.mirror.push(s.snapshotLocked())
	}
}

// Decks returns all decks in creation order.
func (s *Store) Decks() []domain.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.decks)
}

// Deck returns a deck by id.
func (s *Store) Deck(id string) (domain.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.deckIndex(id)
	if i < 0 {
		return domain.Deck{}, fmt.Errorf("%w: %s", ErrDeckNotFound, id)
	}
	return s.decks[i], nil
}

// CreateDeck adds a new, empty deck.
func (s *Store) CreateDeck(in domain.DeckInput) (domain.Deck, error) {
	if err := s.validate.Struct(in); err != nil {
		return domain.Deck{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	d := domain.Deck{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.decks = append(s.decks, d)
	s.changed()
	return d, nil
}

// UpdateDeck replaces a deck's editable fields.
func (s *Store) UpdateDeck(id string, in domain.DeckInput) (domain.Deck, error) {
	if err := s.validate.Struct(in); err != nil {
		return domain.Deck{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.deckIndex(id)
	if i < 0 {
		return domain.Deck{}, fmt.Errorf("%w: %s", ErrDeckNotFound, id)
	}
	d := &s.decks[i]
	d.Name = in.Name
	d.Description = in.Description
	d.Category = in.Category
	d.UpdatedAt = s.now()
	s.changed()
	return *d, nil
}

// DeleteDeck removes a deck together with its cards.
func (s *Store) DeleteDeck(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.deckIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrDeckNotFound, id)
	}
	s.decks = slices.Delete(s.decks, i, i+1)
	s.cards = slices.DeleteFunc(s.cards, func(c domain.Card) bool { return c.DeckID == id })
	s.changed()
	return nil
}

// AddCards creates cards in a deck with fresh review metadata.
func (s *Store) AddCards(deckID string, contents []domain.Content) ([]domain.Card, error) {
	for i, c := range contents {
		if err := s.validate.Struct(c); err != nil {
			return nil, fmt.Errorf("%w: card %d: %v", ErrInvalidInput, i, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	di := s.deckIndex(deckID)
	if di < 0 {
		return nil, fmt.Errorf("%w: %s", ErrDeckNotFound, deckID)
	}

	now := s.now()
	added := make([]domain.Card, 0, len(contents))
	for _, c := range contents {
		added = append(added, domain.Card{
			ID:         uuid.NewString(),
			DeckID:     deckID,
			Content:    c,
			EaseFactor: domain.DefaultEaseFactor,
			CreatedAt:  now,
		})
	}
	s.cards = append(s.cards, added...)
	s.decks[di].CardCount += len(added)
	s.decks[di].UpdatedAt = now
	s.changed()
	return added, nil
}

// Card returns a card by id.
func (s *Store) Card(id string) (domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.cardIndex(id)
	if i < 0 {
		return domain.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return s.cards[i], nil
}

// DeckCards returns a deck's cards in the order they were added.
func (s *Store) DeckCards(deckID string) ([]domain.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deckCardsLocked(deckID)
}

func (s *Store) deckCardsLocked(deckID string) ([]domain.Card, error) {
	if s.deckIndex(deckID) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrDeckNotFound, deckID)
	}
	var out []domain.Card
	for _, c := range s.cards {
		if c.DeckID == deckID {
			out = append(out, c)
		}
	}
	return out, nil
}

// UpdateCard replaces a card's content. Review metadata is left alone.
func (s *Store) UpdateCard(id string, content domain.Content) (domain.Card, error) {
	if err := s.validate.Struct(content); err != nil {
		return domain.Card{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.cardIndex(id)
	if i < 0 {
		return domain.Card{}, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	s.cards[i].Content = content
	s.changed()
	return s.cards[i], nil
}

// SaveReview stores the review metadata of an existing card.
func (s *Store) SaveReview(card domain.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.cardIndex(card.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, card.ID)
	}
	c := &s.cards[i]
	c.CorrectStreak = card.CorrectStreak
	c.EaseFactor = card.EaseFactor
	c.NextReviewDate = card.NextReviewDate
	c.TotalReviews = card.TotalReviews
	c.CorrectReviews = card.CorrectReviews
	c.LastReviewDate = card.LastReviewDate
	c.LastConfidence = card.LastConfidence
	s.changed()
	return nil
}

// DeleteCard removes a card and keeps its deck's count in step.
func (s *Store) DeleteCard(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.cardIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	deckID := s.cards[i].DeckID
	s.cards = slices.Delete(s.cards, i, i+1)
	if di := s.deckIndex(deckID); di >= 0 {
		s.decks[di].CardCount = max(0, s.decks[di].CardCount-1)
		s.decks[di].UpdatedAt = s.now()
	}
	s.changed()
	return nil
}

// History returns finished sessions, oldest first.
func (s *Store) History() []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}

// AppendHistory records a finished session.
func (s *Store) AppendHistory(e domain.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, e)
	s.changed()
}

// DeckStats summarises a deck as of now.
func (s *Store) DeckStats(deckID string, now time.Time) (DeckStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cards, err := s.deckCardsLocked(deckID)
	if err != nil {
		return DeckStats{}, err
	}
	st := DeckStats{DeckID: deckID, Total: len(cards), Due: len(srs.DueCards(cards, now))}
	for _, c := range cards {
		if c.IsNew() {
			st.New++
		}
		if c.CorrectStreak >= masteredStreak {
			st.Mastered++
		}
	}
	return st, nil
}

func (s *Store) deckIndex(id string) int {
	return slices.IndexFunc(s.decks, func(d domain.Deck) bool { return d.ID == id })
}

func (s *Store) cardIndex(id string) int {
	return slices.IndexFunc(s.cards, func(c domain.Card) bool { return c.ID == id })
}
