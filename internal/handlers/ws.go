package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/avbord/minesweeper-server/internal/mines"
	"github.com/avbord/minesweeper-server/internal/session"
)

type wsCommand string

const (
	wsNoop      wsCommand = "g"
	wsOpen      wsCommand = "o"
	wsReset     wsCommand = "n"
	wsSurrender wsCommand = "s"
)

// gameExecutor runs one batch of commands against a session. The
// caller holds the session lock for the whole batch.
type gameExecutor struct {
	s           *session.Session
	surrendered bool
}

func parseRowCol(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("expected 2 coordinates, got %d", len(args))
	}
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid row %q", args[0])
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid col %q", args[1])
	}
	return row, col, nil
}

func (e *gameExecutor) execute(line string) error {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil
	}
	cmd, args := wsCommand(tokens[0]), tokens[1:]
	switch cmd {
	case wsNoop:
		return nil
	case wsOpen:
		row, col, err := parseRowCol(args)
		if err != nil {
			return err
		}
		outcome, err := e.s.Board.Reveal(row, col)
		if err != nil {
			return err
		}
		if outcome == mines.Lost {
			e.s.Board.RevealAll()
		}
		if outcome != mines.Continue {
			e.s.End()
		}
		return nil
	case wsReset:
		e.s.Board.Regenerate()
		e.s.Restart()
		return nil
	case wsSurrender:
		e.s.Board.Forfeit()
		e.s.End()
		e.surrendered = true
		return nil
	default:
		return fmt.Errorf("unknown command %q", tokens[0])
	}
}

// ConnectWS serves a live game connection. Each text message is a
// newline-separated batch of commands; every batch is answered with
// the session snapshot. A surrendered round is rendered disclosed and
// then regenerated, same as the plain HTTP give-up.
func (g GameHandler) ConnectWS(w http.ResponseWriter, r *http.Request) {
	s := g.fetchSession(w, r)
	if s == nil {
		return
	}

	conn, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("unable to upgrade connection", slog.Any("error", err))
		return
	}
	defer conn.Close()

	for {
		mt, buf, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				g.logger.Warn("websocket read failed", slog.Any("error", err))
			}
			return
		}
		if mt != websocket.TextMessage {
			return
		}

		s.Lock()
		exec := &gameExecutor{s: s}
		var execErr error
		for _, line := range strings.Split(strings.TrimSpace(string(buf)), "\n") {
			if execErr = exec.execute(strings.TrimSpace(line)); execErr != nil {
				break
			}
		}
		dto := NewGameSessionDTO(s)
		if exec.surrendered {
			s.Board.Regenerate()
			s.Restart()
		}
		s.Unlock()

		if execErr != nil {
			if err := conn.WriteJSON(wrapError(execErr)); err != nil {
				g.logger.Error("websocket write failed", slog.Any("error", err))
			}
			return
		}
		if err := conn.WriteJSON(dto); err != nil {
			g.logger.Error("websocket write failed", slog.Any("error", err))
			return
		}
	}
}
