package handlers

import (
	"fmt"
	"strconv"

	"github.com/gorilla/schema"

	"github.com/avbord/minesweeper-server/internal/mines"
	"github.com/avbord/minesweeper-server/internal/session"
)

type CreateGameDTO struct {
	GridSize int `schema:"grid_size"`
}

func ParseCreateGameDTO(src map[string][]string) (CreateGameDTO, error) {
	var dto CreateGameDTO
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	err := dec.Decode(&dto, src)
	return dto, err
}

type PositionDTO struct {
	Row int `schema:"row,required"`
	Col int `schema:"col,required"`
}

func ParsePosition(src map[string][]string) (PositionDTO, error) {
	var dto PositionDTO
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	if err := dec.Decode(&dto, src); err != nil {
		return dto, fmt.Errorf("invalid cell position: %w", err)
	}
	return dto, nil
}

// CellDTO renders one cell. Mine status and adjacency count are
// emitted only once the cell is revealed or the round is over, so a
// covered cell leaks nothing.
type CellDTO struct {
	Row           int  `json:"row"`
	Col           int  `json:"col"`
	Revealed      bool `json:"revealed"`
	Mine          bool `json:"mine,omitempty"`
	AdjacentMines int  `json:"adjacent_mines,omitempty"`
}

type GameSessionDTO struct {
	GameSessionId string    `json:"game_session_id"`
	GridSize      int       `json:"grid_size"`
	MineCount     int       `json:"mine_count"`
	Outcome       string    `json:"outcome"`
	Grid          []CellDTO `json:"grid"`
	StartedAt     int64     `json:"started_at"`
	EndedAt       *int64    `json:"ended_at,omitempty"`
}

// NewGameSessionDTO snapshots a session for rendering. Callers must
// hold the session lock.
func NewGameSessionDTO(s *session.Session) *GameSessionDTO {
	var endedAt *int64
	if s.EndedAt != nil {
		e := s.EndedAt.UnixMilli()
		endedAt = &e
	}

	board := s.Board
	over := board.Outcome() != mines.Continue
	cells := board.Cells()
	grid := make([]CellDTO, len(cells))
	for i, c := range cells {
		dto := CellDTO{Row: c.Row, Col: c.Col, Revealed: c.Revealed}
		if c.Revealed || over {
			dto.Mine = c.Mine
			if !c.Mine {
				dto.AdjacentMines = c.AdjacentMines
			}
		}
		grid[i] = dto
	}

	return &GameSessionDTO{
		GameSessionId: strconv.FormatInt(s.ID, 10),
		GridSize:      board.Size(),
		MineCount:     board.MineCount(),
		Outcome:       board.Outcome().String(),
		Grid:          grid,
		StartedAt:     s.StartedAt.UnixMilli(),
		EndedAt:       endedAt,
	}
}
