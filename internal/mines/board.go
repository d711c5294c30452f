package mines

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// PopulationConstant controls mine density relative to board side
// length: a board of side n gets floor(PopulationConstant * n) mines.
// Density is deliberately linear in the side length, not the area.
const PopulationConstant = 1.5

var (
	ErrOutOfBounds          = errors.New("cell coordinates out of bounds")
	ErrInvalidConfiguration = errors.New("invalid board configuration")
)

// Outcome is the terminal-state signal reported after every move.
type Outcome int

const (
	Continue Outcome = iota
	Won
	Lost
)

func (o Outcome) String() string {
	switch o {
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return "continue"
	}
}

// Cell is one grid position. It carries game state only; mapping a
// cell to a rendering primitive is the caller's business.
type Cell struct {
	Row, Col      int
	Mine          bool
	AdjacentMines int
	Revealed      bool
}

// Board is a square minefield of side Size. All mutation goes through
// a single caller at a time; the board does no locking of its own.
type Board struct {
	size      int
	mineCount int
	cells     []Cell
	outcome   Outcome
	rnd       *rand.Rand
}

// New validates the configuration, lays out the first round and
// returns the board. The random source is injected so that mine
// placement can be made deterministic under test.
func New(gridSize int, populationConstant float64, r *rand.Rand) (*Board, error) {
	if gridSize < 1 {
		return nil, fmt.Errorf("%w: grid size %d", ErrInvalidConfiguration, gridSize)
	}
	mineCount := int(math.Floor(populationConstant * float64(gridSize)))
	if mineCount < 0 || mineCount >= gridSize*gridSize {
		return nil, fmt.Errorf(
			"%w: %d mines do not fit a %dx%d grid",
			ErrInvalidConfiguration, mineCount, gridSize, gridSize,
		)
	}
	b := &Board{
		size:      gridSize,
		mineCount: mineCount,
		cells:     make([]Cell, gridSize*gridSize),
		rnd:       r,
	}
	b.Regenerate()
	return b, nil
}

func (b *Board) Size() int        { return b.size }
func (b *Board) MineCount() int   { return b.mineCount }
func (b *Board) Outcome() Outcome { return b.outcome }

// Regenerate replaces the entire board state with a fresh round:
// every cell covered, a new random mine layout, recomputed counts.
func (b *Board) Regenerate() {
	for i := range b.cells {
		b.cells[i] = Cell{Row: i / b.size, Col: i % b.size}
	}
	b.outcome = Continue

	/*
	 * Pick mineCount distinct cells by sampling without replacement
	 * from the shrinking list of not-yet-chosen linear indices.
	 */
	candidates := make([]int, len(b.cells))
	for i := range candidates {
		candidates[i] = i
	}
	k := len(candidates)
	for range b.mineCount {
		i := b.rnd.IntN(k)
		b.cells[candidates[i]].Mine = true
		k--
		candidates[i] = candidates[k]
	}

	b.recount()
}

func (b *Board) recount() {
	for i := range b.cells {
		if b.cells[i].Mine {
			continue
		}
		n := 0
		for _, j := range b.neighbourIndices(i) {
			if b.cells[j].Mine {
				n++
			}
		}
		b.cells[i].AdjacentMines = n
	}
}

func (b *Board) index(row, col int) (int, bool) {
	if row < 0 || row >= b.size || col < 0 || col >= b.size {
		return 0, false
	}
	return row*b.size + col, true
}

// neighbourIndices returns the Moore neighbourhood of cell i, clipped
// at the board edges, in row-major order. A fresh slice per call; no
// shared scratch storage.
func (b *Board) neighbourIndices(i int) []int {
	row, col := i/b.size, i%b.size
	ns := make([]int, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if r < 0 || r >= b.size || c < 0 || c >= b.size {
				continue
			}
			ns = append(ns, r*b.size+c)
		}
	}
	return ns
}

// Neighbours returns copies of the up-to-8 cells adjacent to
// (row, col), in row-major order.
func (b *Board) Neighbours(row, col int) ([]Cell, error) {
	i, ok := b.index(row, col)
	if !ok {
		return nil, fmt.Errorf("%w: %d:%d", ErrOutOfBounds, row, col)
	}
	is := b.neighbourIndices(i)
	ns := make([]Cell, len(is))
	for k, j := range is {
		ns[k] = b.cells[j]
	}
	return ns, nil
}

// CellAt returns a read-only snapshot of the cell at (row, col).
func (b *Board) CellAt(row, col int) (Cell, error) {
	i, ok := b.index(row, col)
	if !ok {
		return Cell{}, fmt.Errorf("%w: %d:%d", ErrOutOfBounds, row, col)
	}
	return b.cells[i], nil
}

// Cells returns a snapshot of the whole grid in row-major order.
func (b *Board) Cells() []Cell {
	out := make([]Cell, len(b.cells))
	copy(out, b.cells)
	return out
}

// Reveal opens the cell at (row, col) and reports the resulting
// outcome. Revealing an already revealed cell, or any cell once the
// round is over, is a no-op. Hitting a mine reveals that one cell
// only; disclosing the rest of the board after a loss is up to the
// caller.
func (b *Board) Reveal(row, col int) (Outcome, error) {
	i, ok := b.index(row, col)
	if !ok {
		return b.outcome, fmt.Errorf("%w: %d:%d", ErrOutOfBounds, row, col)
	}
	if b.outcome != Continue {
		return b.outcome, nil
	}
	if b.cells[i].Revealed {
		return Continue, nil
	}

	if b.cells[i].Mine {
		b.cells[i].Revealed = true
		b.outcome = Lost
		return Lost, nil
	}

	if b.cells[i].AdjacentMines == 0 {
		b.cascade(i)
	} else {
		b.cells[i].Revealed = true
	}

	if b.cleared() {
		b.outcome = Won
	}
	return b.outcome, nil
}

// cascade flood-fills the connected region of zero-count cells
// starting at i, plus the one ring of numbered cells around it. The
// working set is keyed by linear index, so membership never depends
// on cell identity. Each cell is revealed the moment it leaves the
// set and a revealed cell is never re-added, so the loop terminates.
func (b *Board) cascade(start int) {
	todo := map[int]struct{}{start: {}}
	for len(todo) > 0 {
		var i int
		for i = range todo {
			break
		}
		delete(todo, i)
		b.cells[i].Revealed = true

		for _, j := range b.neighbourIndices(i) {
			if b.cells[j].AdjacentMines == 0 && !b.cells[j].Revealed {
				todo[j] = struct{}{}
			} else {
				// A zero cell has no adjacent mines, so the
				// boundary ring can never contain one.
				b.cells[j].Revealed = true
			}
		}
	}
}

// cleared reports whether every non-mine cell has been revealed.
// Mines never need to be revealed to win.
func (b *Board) cleared() bool {
	for i := range b.cells {
		if !b.cells[i].Mine && !b.cells[i].Revealed {
			return false
		}
	}
	return true
}

// RevealAll discloses the entire board without touching the outcome.
// Callers use it to show the full field after a loss.
func (b *Board) RevealAll() {
	for i := range b.cells {
		b.cells[i].Revealed = true
	}
}

// Forfeit ends the round as a loss, if it is still running, and
// discloses the whole board.
func (b *Board) Forfeit() {
	if b.outcome == Continue {
		b.outcome = Lost
	}
	b.RevealAll()
}

// String renders the board for logs and test output: '#' covered,
// '*' a disclosed mine, digits for open cells.
func (b *Board) String() string {
	var sb strings.Builder
	for row := range b.size {
		for col := range b.size {
			c := b.cells[row*b.size+col]
			switch {
			case !c.Revealed:
				sb.WriteString("# ")
			case c.Mine:
				sb.WriteString("* ")
			default:
				sb.WriteString(strconv.Itoa(c.AdjacentMines) + " ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
