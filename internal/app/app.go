package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/avbord/minesweeper-server/internal/config"
	"github.com/avbord/minesweeper-server/internal/middleware"
	"github.com/avbord/minesweeper-server/internal/session"
)

type App struct {
	logger   *slog.Logger
	router   *http.ServeMux
	sessions *session.Store
	ws       *config.WebSocket
}

func New(logger *slog.Logger) *App {
	return &App{
		logger: logger,
		router: http.NewServeMux(),
	}
}

// Start runs the HTTP server and the session sweeper until ctx is
// cancelled, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	ttl := time.Duration(config.SessionTTLMinutes()) * time.Minute
	a.sessions = session.NewStore(a.logger, ttl)
	a.ws = config.NewWebSocket()

	a.loadRoutes()

	addr := config.Addr()
	server := &http.Server{
		Addr: addr,
		Handler: middleware.Wrap(
			a.router,
			middleware.Cors(),
			middleware.Logging(a.logger),
		),
	}

	a.logger.Info("server listening", slog.String("addr", addr))

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := a.sessions.Sweep(gCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
