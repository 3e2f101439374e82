package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-security-service/internal/config"
	"github.com/spec-kit/blog-security-service/internal/service"
)

// CleanupWorker drives the two periodic sweeps: expired-session cleanup and
// orphaned-data repair. Each tick performs only independent per-key
// operations, so request-path work is never blocked.
type CleanupWorker struct {
	sessions        *service.SessionService
	logger          *zap.Logger
	expiredInterval time.Duration
	orphanInterval  time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCleanupWorker builds the worker from security config.
func NewCleanupWorker(cfg config.SecurityConfig, sessions *service.SessionService, logger *zap.Logger) *CleanupWorker {
	return &CleanupWorker{
		sessions:        sessions,
		logger:          logger,
		expiredInterval: time.Duration(cfg.ExpiredSweepIntervalMinutes) * time.Minute,
		orphanInterval:  time.Duration(cfg.OrphanSweepIntervalMinutes) * time.Minute,
	}
}

// Start launches the sweep loops.
func (w *CleanupWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	w.wg.Add(2)
	go w.loop(ctx, w.expiredInterval, w.sessions.ScheduledExpiredSessionCleanup)
	go w.loop(ctx, w.orphanInterval, w.sessions.ScheduledOrphanedDataCleanup)

	w.logger.Info("cleanup worker started",
		zap.Duration("expired_interval", w.expiredInterval),
		zap.Duration("orphan_interval", w.orphanInterval))
}

// Stop cancels the loops and waits for them to exit.
func (w *CleanupWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

func (w *CleanupWorker) loop(ctx context.Context, interval time.Duration, sweep func(context.Context)) {
	defer w.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx)
		}
	}
}
