package handlers

import (
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avbord/minesweeper-server/internal/config"
	"github.com/avbord/minesweeper-server/internal/mines"
	"github.com/avbord/minesweeper-server/internal/session"
)

func newTestHandler(t *testing.T) (*GameHandler, *session.Store) {
	t.Helper()
	logger := slog.Default()
	store := session.NewStore(logger, time.Minute)
	handler := NewGameHandler(
		logger, store, config.NewWebSocket(), 10,
		func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) },
	)
	return handler, store
}

func decodeSessionDTO(t *testing.T, rec *httptest.ResponseRecorder) GameSessionDTO {
	t.Helper()
	var dto GameSessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	return dto
}

func sessionRequest(method, target, id string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.SetPathValue("id", id)
	return req
}

func TestNewGameDefaults(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.NewGame(rec, httptest.NewRequest(http.MethodPost, "/game", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeSessionDTO(t, rec)
	assert.Equal(t, 10, dto.GridSize)
	assert.Equal(t, 15, dto.MineCount)
	assert.Equal(t, "continue", dto.Outcome)
	assert.Len(t, dto.Grid, 100)
	for _, c := range dto.Grid {
		assert.False(t, c.Revealed)
		assert.False(t, c.Mine, "a covered cell must not leak mine status")
		assert.Zero(t, c.AdjacentMines)
	}
}

func TestNewGameCustomGridSize(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/game?grid_size=4", nil)
	handler.NewGame(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeSessionDTO(t, rec)
	assert.Equal(t, 4, dto.GridSize)
	assert.Equal(t, 6, dto.MineCount)
	assert.Len(t, dto.Grid, 16)
}

func TestNewGameInvalidConfiguration(t *testing.T) {
	handler, _ := newTestHandler(t)

	// A 1x1 board cannot hold floor(1.5) = 1 mine.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/game?grid_size=1", nil)
	handler.NewGame(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestFetchUnknownSession(t *testing.T) {
	handler, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	handler.Fetch(rec, sessionRequest(http.MethodGet, "/game/999", "999"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.Fetch(rec, sessionRequest(http.MethodGet, "/game/abc", "abc"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// createSession plants a deterministic board directly in the store so
// tests can pick cells knowingly.
func createSession(t *testing.T, store *session.Store) (*session.Session, *mines.Board) {
	t.Helper()
	board, err := mines.New(10, mines.PopulationConstant, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)
	return store.Create(board), board
}

func findCell(t *testing.T, board *mines.Board, pred func(mines.Cell) bool) mines.Cell {
	t.Helper()
	for _, c := range board.Cells() {
		if pred(c) {
			return c
		}
	}
	t.Fatal("no cell matches predicate")
	return mines.Cell{}
}

func TestRevealSafeCell(t *testing.T) {
	handler, store := newTestHandler(t)
	s, board := createSession(t, store)
	id := strconv.FormatInt(s.ID, 10)

	safe := findCell(t, board, func(c mines.Cell) bool {
		return !c.Mine && c.AdjacentMines > 0
	})

	rec := httptest.NewRecorder()
	target := "/game/" + id + "/reveal?row=" + strconv.Itoa(safe.Row) +
		"&col=" + strconv.Itoa(safe.Col)
	handler.Reveal(rec, sessionRequest(http.MethodPost, target, id))

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeSessionDTO(t, rec)
	assert.Equal(t, "continue", dto.Outcome)

	opened := dto.Grid[safe.Row*10+safe.Col]
	assert.True(t, opened.Revealed)
	assert.False(t, opened.Mine)
	assert.Equal(t, safe.AdjacentMines, opened.AdjacentMines)
	assert.Nil(t, dto.EndedAt)
}

func TestRevealMineDisclosesBoard(t *testing.T) {
	handler, store := newTestHandler(t)
	s, board := createSession(t, store)
	id := strconv.FormatInt(s.ID, 10)

	mine := findCell(t, board, func(c mines.Cell) bool { return c.Mine })

	rec := httptest.NewRecorder()
	target := "/game/" + id + "/reveal?row=" + strconv.Itoa(mine.Row) +
		"&col=" + strconv.Itoa(mine.Col)
	handler.Reveal(rec, sessionRequest(http.MethodPost, target, id))

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeSessionDTO(t, rec)
	assert.Equal(t, "lost", dto.Outcome)
	assert.NotNil(t, dto.EndedAt)

	minesSeen := 0
	for _, c := range dto.Grid {
		assert.True(t, c.Revealed, "loss response must disclose the field")
		if c.Mine {
			minesSeen++
		}
	}
	assert.Equal(t, board.MineCount(), minesSeen)
}

func TestRevealBadCoordinates(t *testing.T) {
	handler, store := newTestHandler(t)
	s, _ := createSession(t, store)
	id := strconv.FormatInt(s.ID, 10)

	rec := httptest.NewRecorder()
	handler.Reveal(rec, sessionRequest(
		http.MethodPost, "/game/"+id+"/reveal?row=42&col=0", id,
	))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.Reveal(rec, sessionRequest(
		http.MethodPost, "/game/"+id+"/reveal?row=1", id,
	))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetStartsFreshRound(t *testing.T) {
	handler, store := newTestHandler(t)
	s, board := createSession(t, store)
	id := strconv.FormatInt(s.ID, 10)

	mine := findCell(t, board, func(c mines.Cell) bool { return c.Mine })
	_, err := board.Reveal(mine.Row, mine.Col)
	require.NoError(t, err)
	require.Equal(t, mines.Lost, board.Outcome())
	s.End()

	rec := httptest.NewRecorder()
	handler.Reset(rec, sessionRequest(http.MethodPost, "/game/"+id+"/reset", id))

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeSessionDTO(t, rec)
	assert.Equal(t, "continue", dto.Outcome)
	assert.Nil(t, dto.EndedAt)
	for _, c := range dto.Grid {
		assert.False(t, c.Revealed)
	}
}

func TestGiveUpDisclosesThenRegenerates(t *testing.T) {
	handler, store := newTestHandler(t)
	s, _ := createSession(t, store)
	id := strconv.FormatInt(s.ID, 10)

	rec := httptest.NewRecorder()
	handler.GiveUp(rec, sessionRequest(http.MethodPost, "/game/"+id+"/giveup", id))

	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeSessionDTO(t, rec)
	assert.Equal(t, "lost", dto.Outcome)
	for _, c := range dto.Grid {
		assert.True(t, c.Revealed, "give-up must disclose every cell")
	}

	// The next round is already running.
	rec = httptest.NewRecorder()
	handler.Fetch(rec, sessionRequest(http.MethodGet, "/game/"+id, id))
	require.Equal(t, http.StatusOK, rec.Code)
	next := decodeSessionDTO(t, rec)
	assert.Equal(t, "continue", next.Outcome)
	for _, c := range next.Grid {
		assert.False(t, c.Revealed)
	}
}

func TestExecutorCommands(t *testing.T) {
	_, store := newTestHandler(t)
	s, board := createSession(t, store)

	exec := &gameExecutor{s: s}

	require.NoError(t, exec.execute(""))
	require.NoError(t, exec.execute("g"))

	safe := findCell(t, board, func(c mines.Cell) bool {
		return !c.Mine && c.AdjacentMines > 0
	})
	require.NoError(t, exec.execute(
		"o "+strconv.Itoa(safe.Row)+" "+strconv.Itoa(safe.Col),
	))
	got, err := board.CellAt(safe.Row, safe.Col)
	require.NoError(t, err)
	assert.True(t, got.Revealed)

	require.NoError(t, exec.execute("n"))
	assert.Equal(t, mines.Continue, board.Outcome())

	require.NoError(t, exec.execute("s"))
	assert.True(t, exec.surrendered)
	assert.Equal(t, mines.Lost, board.Outcome())

	assert.Error(t, exec.execute("o 1"))
	assert.Error(t, exec.execute("o a b"))
	assert.Error(t, exec.execute("x 1 2"))
}
