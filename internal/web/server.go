// Package web exposes decks, study sessions and progress over HTTP as JSON.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/session"
	"github.com/conorfennell/knolstudy/internal/store"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	store    *store.Store
	sessions *session.Manager
	now      func() time.Time
	router   *http.ServeMux
}

// NewServer creates and configures a new server.
func NewServer(st *store.Store, sessions *session.Manager, now func() time.Time) *Server {
	s := &Server{
		store:    st,
		sessions: sessions,
		now:      now,
		router:   http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /decks", s.handleListDecks())
	s.router.HandleFunc("POST /decks", s.handleCreateDeck())
	s.router.HandleFunc("PUT /decks/{id}", s.handleUpdateDeck())
	s.router.HandleFunc("DELETE /decks/{id}", s.handleDeleteDeck())
	s.router.HandleFunc("POST /decks/{id}/cards", s.handleAddCards())
	s.router.HandleFunc("GET /decks/{id}/due", s.handleGetDue())
	s.router.HandleFunc("GET /decks/{id}/stats", s.handleGetDeckStats())

	s.router.HandleFunc("PUT /cards/{id}", s.handleUpdateCard())
	s.router.HandleFunc("DELETE /cards/{id}", s.handleDeleteCard())

	s.router.HandleFunc("POST /session", s.handleStartSession())
	s.router.HandleFunc("POST /session/answer", s.handleRecordAnswer())
	s.router.HandleFunc("POST /session/end", s.handleEndSession())

	s.router.HandleFunc("GET /streak", s.handleGetStreak())
	s.router.HandleFunc("GET /recommendation", s.handleGetRecommendation())
}

func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.store.Decks())
	}
}

func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.DeckInput
		if !decode(w, r, &in) {
			return
		}
		deck, err := s.store.CreateDeck(in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, deck)
	}
}

func (s *Server) handleUpdateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.DeckInput
		if !decode(w, r, &in) {
			return
		}
		deck, err := s.store.UpdateDeck(r.PathValue("id"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, deck)
	}
}

func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.DeleteDeck(r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleAddCards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in []domain.Content
		if !decode(w, r, &in) {
			return
		}
		cards, err := s.store.AddCards(r.PathValue("id"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, cards)
	}
}

func (s *Server) handleUpdateCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.Content
		if !decode(w, r, &in) {
			return
		}
		card, err := s.store.UpdateCard(r.PathValue("id"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, card)
	}
}

func (s *Server) handleDeleteCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.DeleteCard(r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleGetDue returns the due count and the due cards in review order.
func (s *Server) handleGetDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		due, err := s.sessions.Due(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"dueCount": len(due),
			"cards":    due,
		})
	}
}

func (s *Server) handleGetDeckStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.store.DeckStats(r.PathValue("id"), s.now())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

type startRequest struct {
	DeckID string `json:"deckId"`
	Count  int    `json:"count"`
}

func (s *Server) handleStartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if !decode(w, r, &req) {
			return
		}
		out, err := s.sessions.Start(req.DeckID, req.Count)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type answerRequest struct {
	CardID     string            `json:"cardId"`
	WasCorrect bool              `json:"wasCorrect"`
	Confidence domain.Confidence `json:"confidence"`
}

func (s *Server) handleRecordAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if !decode(w, r, &req) {
			return
		}
		out, err := s.sessions.RecordAnswer(req.CardID, req.WasCorrect, req.Confidence)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleEndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.sessions.End())
	}
}

func (s *Server) handleGetStreak() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.sessions.Streak())
	}
}

func (s *Server) handleGetRecommendation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deckID := r.URL.Query().Get("deckId")
		n, err := s.sessions.Recommended(deckID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"count": n})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrDeckNotFound), errors.Is(err, store.ErrCardNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrInvalidInput), errors.Is(err, session.ErrInvalidConfidence):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNoActiveSession), errors.Is(err, session.ErrSessionActive),
		errors.Is(err, session.ErrOutOfOrder):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}
