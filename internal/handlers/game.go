package handlers

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/avbord/minesweeper-server/internal/config"
	"github.com/avbord/minesweeper-server/internal/mines"
	"github.com/avbord/minesweeper-server/internal/session"
)

type GameHandler struct {
	logger          *slog.Logger
	sessions        *session.Store
	ws              *config.WebSocket
	defaultGridSize int
	newRand         func() *rand.Rand
}

// NewGameHandler wires the HTTP surface around the board engine.
// newRand supplies each board with its own random source, keeping
// every board single-caller.
func NewGameHandler(
	logger *slog.Logger,
	sessions *session.Store,
	ws *config.WebSocket,
	defaultGridSize int,
	newRand func() *rand.Rand,
) *GameHandler {
	return &GameHandler{
		logger:          logger,
		sessions:        sessions,
		ws:              ws,
		defaultGridSize: defaultGridSize,
		newRand:         newRand,
	}
}

func (g GameHandler) NewGame(w http.ResponseWriter, r *http.Request) {
	dto, err := ParseCreateGameDTO(r.URL.Query())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, wrapError(err))
		return
	}
	if dto.GridSize == 0 {
		dto.GridSize = g.defaultGridSize
	}

	board, err := mines.New(dto.GridSize, mines.PopulationConstant, g.newRand())
	if err != nil {
		if errors.Is(err, mines.ErrInvalidConfiguration) {
			w.WriteHeader(http.StatusBadRequest)
			sendJSONOrLog(w, g.logger, wrapError(err))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		g.logger.Error("unable to create a board", slog.Any("error", err))
		return
	}

	s := g.sessions.Create(board)
	g.logger.Debug(
		"created game session",
		slog.Int64("id", s.ID),
		slog.Int("gridSize", board.Size()),
		slog.Int("mineCount", board.MineCount()),
	)

	s.Lock()
	defer s.Unlock()
	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s))
}

func (g GameHandler) fetchSession(w http.ResponseWriter, r *http.Request) *session.Session {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}
	s, err := g.sessions.Get(id)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return nil
	}
	return s
}

func (g GameHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	s := g.fetchSession(w, r)
	if s == nil {
		return
	}
	s.Lock()
	defer s.Unlock()
	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s))
}

// Reveal activates one covered cell. On a loss the handler, not the
// engine, discloses the remaining field before rendering.
func (g GameHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	pos, err := ParsePosition(r.URL.Query())
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, wrapError(err))
		return
	}

	s := g.fetchSession(w, r)
	if s == nil {
		return
	}
	s.Lock()
	defer s.Unlock()

	outcome, err := s.Board.Reveal(pos.Row, pos.Col)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		sendJSONOrLog(w, g.logger, wrapError(err))
		return
	}

	if outcome == mines.Lost {
		s.Board.RevealAll()
	}
	if outcome != mines.Continue {
		s.End()
	}

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s))
}

// Reset regenerates the board for a fresh round.
func (g GameHandler) Reset(w http.ResponseWriter, r *http.Request) {
	s := g.fetchSession(w, r)
	if s == nil {
		return
	}
	s.Lock()
	defer s.Unlock()

	s.Board.Regenerate()
	s.Restart()

	sendJSONOrLog(w, g.logger, NewGameSessionDTO(s))
}

// GiveUp discloses the whole field, renders it, and immediately
// regenerates so the next round is ready.
func (g GameHandler) GiveUp(w http.ResponseWriter, r *http.Request) {
	s := g.fetchSession(w, r)
	if s == nil {
		return
	}
	s.Lock()
	defer s.Unlock()

	s.Board.Forfeit()
	s.End()
	disclosed := NewGameSessionDTO(s)

	s.Board.Regenerate()
	s.Restart()

	sendJSONOrLog(w, g.logger, disclosed)
}
