package services

import (
	"context"
	"time"
)

// Poller re-runs a query on a fixed interval. Interval re-query instead of
// ledger subscriptions is a deliberate trade-off: views are eventually
// consistent with a staleness window of at most one interval, and Kick
// shortens that window right after a submitted action. A run superseded by
// the next tick is left to finish; its result is simply older.
type Poller struct {
	interval time.Duration
	run      func(ctx context.Context)
	kick     chan struct{}
}

// NewPoller wraps run; nothing happens until Start.
func NewPoller(interval time.Duration, run func(ctx context.Context)) *Poller {
	return &Poller{interval: interval, run: run, kick: make(chan struct{}, 1)}
}

// Start runs the loop until ctx is cancelled, firing once immediately.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		case <-p.kick:
			p.run(ctx)
		}
	}
}

// Kick requests an immediate re-run. Kicks coalesce; one pending kick is
// enough.
func (p *Poller) Kick() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}
