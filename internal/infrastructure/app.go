package infrastructure

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"motorvault/internal/logger"
)

// Server is a long-running component. Start blocks until ctx is cancelled or
// the component fails.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

const shutdownTimeout = 15 * time.Second

type App struct {
	servers []Server
}

func NewApp(servers []Server) *App {
	return &App{servers: servers}
}

func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range a.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range a.servers {
		if err := srv.Stop(stopCtx); err != nil {
			logger.Warn("server stop failed", zap.Error(err))
		}
	}

	return g.Wait()
}
