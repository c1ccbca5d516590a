package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/session"
	"github.com/conorfennell/knolstudy/internal/store"
)

var t0 = time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	clock := func() time.Time { return t0 }
	st := store.New("learner", nil, store.WithClock(clock))
	return NewServer(st, session.NewManager(st, st, session.WithClock(clock)), clock), st
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, &buf))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestStudyFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/decks", domain.DeckInput{Name: "Animals"})
	require.Equal(t, http.StatusCreated, rec.Code)
	deck := decodeBody[domain.Deck](t, rec)

	rec = do(t, srv, http.MethodPost, "/decks/"+deck.ID+"/cards", []domain.Content{
		{Front: "cat", Back: "gato"},
		{Front: "dog", Back: "perro"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, srv, http.MethodGet, "/decks/"+deck.ID+"/due", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	due := decodeBody[struct {
		DueCount int `json:"dueCount"`
	}](t, rec)
	assert.Equal(t, 2, due.DueCount)

	rec = do(t, srv, http.MethodGet, "/recommendation?deckId="+deck.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"count": 2}, decodeBody[map[string]int](t, rec))

	rec = do(t, srv, http.MethodPost, "/session", map[string]any{"deckId": deck.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	dealt := decodeBody[session.Outcome](t, rec)
	assert.Equal(t, session.KindDealt, dealt.Kind)
	require.Len(t, dealt.Cards, 2)

	rec = do(t, srv, http.MethodPost, "/session/answer", map[string]any{
		"cardId": dealt.Cards[1].ID, "wasCorrect": true, "confidence": "got_it",
	})
	assert.Equal(t, http.StatusConflict, rec.Code, "answers must follow the dealt order")

	rec = do(t, srv, http.MethodPost, "/session/answer", map[string]any{
		"cardId": dealt.Cards[0].ID, "wasCorrect": true, "confidence": "got_it",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.KindContinue, decodeBody[session.Outcome](t, rec).Kind)

	rec = do(t, srv, http.MethodPost, "/session/answer", map[string]any{
		"cardId": dealt.Cards[1].ID, "wasCorrect": false, "confidence": "still_learning",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeBody[session.Outcome](t, rec)
	assert.Equal(t, session.KindComplete, done.Kind)
	require.NotNil(t, done.Stats)
	assert.Equal(t, 50, done.Stats.Accuracy)
	assert.Equal(t, 4, done.Stats.XPEarned)

	rec = do(t, srv, http.MethodGet, "/streak", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	streak := decodeBody[struct {
		Current int `json:"current"`
	}](t, rec)
	assert.Equal(t, 1, streak.Current)

	rec = do(t, srv, http.MethodPost, "/session/end", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.KindIdle, decodeBody[session.Outcome](t, rec).Kind)
}

func TestStartOnEmptyDeck(t *testing.T) {
	srv, st := newTestServer(t)
	deck, err := st.CreateDeck(domain.DeckInput{Name: "Empty"})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPost, "/session", map[string]any{"deckId": deck.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeBody[session.Outcome](t, rec)
	assert.Equal(t, session.KindEmpty, out.Kind)
	assert.Empty(t, out.Cards)

	rec = do(t, srv, http.MethodPost, "/session/answer", map[string]any{"cardId": "x", "wasCorrect": true})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeckAndCardMaintenance(t *testing.T) {
	srv, st := newTestServer(t)
	deck, err := st.CreateDeck(domain.DeckInput{Name: "Words"})
	require.NoError(t, err)
	cards, err := st.AddCards(deck.ID, []domain.Content{{Front: "a", Back: "b"}, {Front: "c", Back: "d"}})
	require.NoError(t, err)

	rec := do(t, srv, http.MethodPut, "/decks/"+deck.ID, domain.DeckInput{Name: "Renamed"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decodeBody[domain.Deck](t, rec).Name)

	rec = do(t, srv, http.MethodPut, "/cards/"+cards[0].ID, domain.Content{Front: "A", Back: "B"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodDelete, "/cards/"+cards[1].ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/decks/"+deck.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.DeckStats{DeckID: deck.ID, Total: 1, Due: 1, New: 1}, decodeBody[store.DeckStats](t, rec))

	rec = do(t, srv, http.MethodGet, "/decks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decks := decodeBody[[]domain.Deck](t, rec)
	require.Len(t, decks, 1)
	assert.Equal(t, 1, decks[0].CardCount)

	rec = do(t, srv, http.MethodDelete, "/decks/"+deck.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, http.MethodGet, "/decks/"+deck.ID+"/due", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadRequests(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/decks", domain.DeckInput{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/session", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodPost, "/session", map[string]any{"deckId": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
