package app

import (
	"hash/maphash"
	"math/rand/v2"

	"github.com/avbord/minesweeper-server/internal/config"
	"github.com/avbord/minesweeper-server/internal/handlers"
)

func createRand() *rand.Rand {
	return rand.New(rand.NewPCG(
		new(maphash.Hash).Sum64(), new(maphash.Hash).Sum64(),
	))
}

func (a *App) loadRoutes() {
	game := handlers.NewGameHandler(
		a.logger, a.sessions, a.ws, config.DefaultGridSize(), createRand,
	)

	a.router.HandleFunc("POST /game", game.NewGame)
	a.router.HandleFunc("GET /game/{id}", game.Fetch)
	a.router.HandleFunc("POST /game/{id}/reveal", game.Reveal)
	a.router.HandleFunc("POST /game/{id}/reset", game.Reset)
	a.router.HandleFunc("POST /game/{id}/giveup", game.GiveUp)
	a.router.HandleFunc("/game/{id}/connect", game.ConnectWS)
}
