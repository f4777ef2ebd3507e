package scheduler

import (
	"context"
	"time"

	"auction-house/utils"
)

// DefaultInterval is the sweep period when none is configured
const DefaultInterval = 5 * time.Second

// Sweeper closes auctions whose end time has passed
type Sweeper interface {
	CloseExpiredAuctions(ctx context.Context) (int, error)
}

// Scheduler runs the expiry sweep periodically
type Scheduler struct {
	sweeper  Sweeper
	interval time.Duration
}

// New creates a new Scheduler. A non-positive interval uses DefaultInterval.
func New(sweeper Sweeper, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		sweeper:  sweeper,
		interval: interval,
	}
}

// Run sweeps on every tick until ctx is done. Sweep failures are logged
// and never stop the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	utils.Info("scheduler: started", map[string]any{"interval": s.interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.Info("scheduler: stopped", nil)
			return nil
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns how many auctions reached a terminal state
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	closed, err := s.sweeper.CloseExpiredAuctions(ctx)
	if err != nil {
		utils.Error("scheduler: sweep failed", map[string]any{
			"closed": closed,
			"error":  err.Error(),
		})
		return closed, err
	}

	if closed > 0 {
		utils.Info("scheduler: sweep closed auctions", map[string]any{
			"closed":  closed,
			"latency": time.Since(start).String(),
		})
	}
	return closed, nil
}
