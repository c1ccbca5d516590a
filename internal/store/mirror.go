package store

import (
	"context"
	"log/slog"
	"time"
)

const saveTimeout = 10 * time.Second

// mirror writes snapshots to a Persister in the background. Only the most
// recent pending snapshot is kept; older unsaved ones are superseded.
type mirror struct {
	learnerID string
	persister Persister
	pending   chan Snapshot
	done      chan struct{}
}

func newMirror(learnerID string, p Persister) *mirror {
	m := &mirror{
		learnerID: learnerID,
		persister: p,
		pending:   make(chan Snapshot, 1),
		done:      make(chan struct{}),
	}
	go m.run()
	return m
}

// push never blocks the caller.
func (m *mirror) push(s Snapshot) {
	for {
		select {
		case m.pending <- s:
			return
		default:
		}
		select {
		case <-m.pending:
		default:
		}
	}
}

func (m *mirror) run() {
	defer close(m.done)
	for s := range m.pending {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		if err := m.persister.Save(ctx, m.learnerID, s); err != nil {
			slog.Warn("Failed to persist snapshot", "learner", m.learnerID, "error", err)
		}
		cancel()
	}
}

// close stops accepting snapshots and waits for the last one to be written.
func (m *mirror) close() {
	close(m.pending)
	<-m.done
}
