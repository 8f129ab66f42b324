package main

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Broadcaster is notified after every successful poll cycle.
type Broadcaster interface {
	Broadcast()
}

// poller drives the fetch-decode-publish cycle on a fixed wall-clock
// interval and owns the retry policy for transient fetch/decode failure.
type poller struct {
	feed          VehicleFeedSource
	cell          *SnapshotCell
	broadcaster   Broadcaster
	interval      time.Duration
	fetchTimeout  time.Duration
	retryAttempts int
	retryBackoff  time.Duration
	overlapGuard  bool

	cycleActive atomic.Bool
}

func newPoller(feed VehicleFeedSource, cell *SnapshotCell, b Broadcaster, cfg FeedConfig) *poller {
	return &poller{
		feed:          feed,
		cell:          cell,
		broadcaster:   b,
		interval:      cfg.PollInterval,
		fetchTimeout:  cfg.FetchTimeout,
		retryAttempts: cfg.RetryAttempts,
		retryBackoff:  cfg.RetryBackoff,
		overlapGuard:  cfg.OverlapGuard,
	}
}

// run schedules cycles at the fixed cadence until the context is canceled.
// One cycle fires immediately so the first viewer is not served an empty
// snapshot. The ticker is independent of cycle duration; with the overlap
// guard disabled, a slow cycle may interleave with the next one.
func (p *poller) run(ctx context.Context) {
	go p.runCycle(ctx)

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if p.overlapGuard && p.cycleActive.Load() {
				log.Printf("poll cycle still in progress, skipping tick")
				continue
			}
			go p.runCycle(ctx)
		}
	}
}

// runCycle attempts fetch+decode up to the retry budget with a fixed
// inter-attempt backoff. On success it replaces the shared snapshot and
// triggers the broadcast; on exhaustion it logs and leaves the previous
// snapshot in force. Reports whether the cycle succeeded.
func (p *poller) runCycle(ctx context.Context) bool {
	p.cycleActive.Store(true)
	defer p.cycleActive.Store(false)

	for attempt := 1; attempt <= p.retryAttempts; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
		vehicles, err := p.feed.Fetch(cctx)
		cancel()
		if err == nil {
			p.cell.Replace(vehicles)
			log.Printf("fetched %d buses", len(vehicles))
			p.broadcaster.Broadcast()
			return true
		}
		log.Printf("poll attempt %d/%d failed: %v", attempt, p.retryAttempts, err)
		if attempt == p.retryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(p.retryBackoff):
		}
	}
	log.Printf("poll cycle failed after %d attempts, keeping previous snapshot", p.retryAttempts)
	return false
}
