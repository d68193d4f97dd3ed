package trash

import (
	"context"
	"log/slog"
	"time"

	"github.com/docvault/docvault/internal/config"
	"github.com/robfig/cron/v3"
)

// sweepTimeout bounds one sweep pass so a stuck storage backend cannot
// pile up overlapping runs.
const sweepTimeout = 5 * time.Minute

// Sweeper periodically purges documents whose self-destruct time has
// passed.
type Sweeper struct {
	mgr    Manager
	cron   *cron.Cron
	logger *slog.Logger
}

// NewSweeper creates an expiry sweeper on the configured schedule. It
// returns nil when the sweep is disabled.
func NewSweeper(mgr Manager, cfg *config.SweepConfig, logger *slog.Logger) (*Sweeper, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	s := &Sweeper{
		mgr:    mgr,
		cron:   cron.New(),
		logger: logger.With("system", "sweep"),
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, err
	}

	return s, nil
}

// Start begins scheduled execution.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("expiry sweep started")
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("expiry sweep stopped")
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	purged, err := s.mgr.PurgeExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("expiry sweep failed", "error", err)
		return
	}
	if purged > 0 {
		s.logger.Info("expiry sweep completed", "purged", purged)
	}
}
