// Package janitor periodically deletes aged IP observations. The composition
// root owns its lifecycle: Start launches the loop, Stop waits for it to exit.
package janitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// IPLogPruner deletes IP observations seen before cutoff (unix seconds).
type IPLogPruner interface {
	DeleteIPLogBefore(ctx context.Context, cutoff int64) (int64, error)
}

// Janitor sweeps the IP log on an interval.
type Janitor struct {
	pruner    IPLogPruner
	retention time.Duration
	interval  time.Duration
	logger    zerolog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// New returns a Janitor deleting observations older than retention every interval.
func New(pruner IPLogPruner, retention, interval time.Duration, logger zerolog.Logger) *Janitor {
	return &Janitor{pruner: pruner, retention: retention, interval: interval, logger: logger}
}

// Start launches the sweep loop. It runs one sweep immediately, then on every
// interval tick until Stop is called.
func (j *Janitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.done = make(chan struct{})

	go func() {
		defer close(j.done)
		j.sweep(ctx)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.sweep(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
func (j *Janitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.once.Do(func() {
		j.cancel()
		<-j.done
	})
}

func (j *Janitor) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-j.retention).Unix()
	deleted, err := j.pruner.DeleteIPLogBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			j.logger.Error().Err(err).Msg("ip log sweep failed")
		}
		return
	}
	if deleted > 0 {
		j.logger.Info().Int64("deleted", deleted).Msg("pruned aged ip observations")
	}
}
