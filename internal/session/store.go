package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/avbord/minesweeper-server/internal/mines"
)

var ErrNotFound = errors.New("game session not found")

// Session pairs one board with its bookkeeping. The board itself is
// single-caller state; holders must take the session lock around any
// board access.
type Session struct {
	sync.Mutex

	ID        int64
	Board     *mines.Board
	StartedAt time.Time
	EndedAt   *time.Time

	lastActive time.Time
}

// End stamps the round as finished. Idempotent.
func (s *Session) End() {
	if s.EndedAt == nil {
		t := time.Now().UTC()
		s.EndedAt = &t
	}
}

// Restart clears the round bookkeeping after a regenerate.
func (s *Session) Restart() {
	s.StartedAt = time.Now().UTC()
	s.EndedAt = nil
}

// Store keeps live game sessions in memory. Sessions do not survive a
// process restart; idle ones are dropped by the sweeper.
type Store struct {
	logger *slog.Logger
	ttl    time.Duration

	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*Session
}

func NewStore(logger *slog.Logger, ttl time.Duration) *Store {
	return &Store{
		logger:   logger,
		ttl:      ttl,
		sessions: make(map[int64]*Session),
	}
}

func (st *Store) Create(board *mines.Board) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.nextID++
	now := time.Now().UTC()
	s := &Session{
		ID:         st.nextID,
		Board:      board,
		StartedAt:  now,
		lastActive: now,
	}
	st.sessions[s.ID] = s
	return s
}

func (st *Store) Get(id int64) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.lastActive = time.Now().UTC()
	return s, nil
}

func (st *Store) Delete(id int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep drops sessions idle longer than the store TTL until ctx is
// done. Run it alongside the server.
func (st *Store) Sweep(ctx context.Context) error {
	ticker := time.NewTicker(st.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if n := st.sweepOnce(now); n > 0 {
				st.logger.Debug("swept idle game sessions", slog.Int("count", n))
			}
		}
	}
}

func (st *Store) sweepOnce(now time.Time) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	n := 0
	for id, s := range st.sessions {
		if now.Sub(s.lastActive) > st.ttl {
			delete(st.sessions, id)
			n++
		}
	}
	return n
}
