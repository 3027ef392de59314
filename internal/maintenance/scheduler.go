package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/logger"
)

// Scheduler runs a Repairer periodically while the server is up.
type Scheduler struct {
	repairer *Repairer
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewScheduler creates a scheduler; interval must be > 0.
func NewScheduler(r *Repairer, interval time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{
		repairer: r,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until Stop or ctx
// cancellation.
func (s *Scheduler) Start(ctx context.Context) {
	if _, err := s.repairer.Run(ctx, false); err != nil {
		s.logger.Warn("initial expiration repair failed", logger.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.repairer.Run(ctx, false); err != nil {
					s.logger.Error("expiration repair failed", logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.done
}
