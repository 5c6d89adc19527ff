package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long in-flight HTTP requests may run after the
// run context is cancelled.
const shutdownTimeout = 10 * time.Second

// MonitorMode starts the polling engine, the WebSocket hub, and the HTTP
// server, and blocks until the context is cancelled or a subsystem fails.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	// Polling engine.
	g.Go(func() error {
		return deps.Engine.Run(ctx)
	})

	// WebSocket hub, when enabled.
	if deps.Hub != nil {
		g.Go(func() error {
			return deps.Hub.Run(ctx)
		})
	}

	// HTTP server plus graceful shutdown on context cancellation.
	g.Go(func() error {
		return deps.Server.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return deps.Server.Shutdown(shutCtx)
	})

	return g.Wait()
}

// OnceMode runs a single collect-and-detect cycle and writes the ranked
// opportunity snapshot as JSON to stdout. Useful for cron jobs and smoke
// tests; no server is started.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting once mode")

	deps.Engine.RefreshOnce(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	opps := deps.Engine.Opportunities(0, "")
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(opps); err != nil {
		return fmt.Errorf("once mode: encode opportunities: %w", err)
	}

	a.logger.InfoContext(ctx, "once mode complete",
		slog.Int("opportunities", len(opps)),
	)
	return nil
}
