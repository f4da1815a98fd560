// Package poller fetches the entity list on a fixed interval for the
// headless commands. At most one fetch is in flight at a time; ticks that
// arrive while a fetch is still running are dropped.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/luki/hasensors/internal/hass"
	"github.com/luki/hasensors/internal/logging"
)

func logger() *zerolog.Logger {
	return logging.For("poller")
}

// Result is the outcome of one fetch.
type Result struct {
	Entities []hass.Entity
	Err      error
	At       time.Time
}

// Poller drives a hass.Fetcher.
type Poller struct {
	fetcher  hass.Fetcher
	handle   func(Result)
	interval time.Duration
	reset    chan time.Duration
	inFlight atomic.Bool
	wg       sync.WaitGroup
	skipped  atomic.Int64
}

// New creates a poller that passes every result to handle. handle is called
// from the fetch goroutine and must not block for long.
func New(f hass.Fetcher, interval time.Duration, handle func(Result)) *Poller {
	return &Poller{
		fetcher:  f,
		handle:   handle,
		interval: interval,
		reset:    make(chan time.Duration, 1),
	}
}

// Run fetches immediately and then on every tick until ctx is done. It
// waits for an outstanding fetch before returning.
func (p *Poller) Run(ctx context.Context) {
	defer p.wg.Wait()

	p.trigger(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-p.reset:
			logger().Debug().Dur("interval", d).Msg("interval changed")
			ticker.Reset(d)
		case <-ticker.C:
			p.trigger(ctx)
		}
	}
}

// SetInterval changes the tick interval of a running poller.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-p.reset:
	default:
	}
	p.reset <- d
}

// Skipped returns the number of ticks dropped because a fetch was running.
func (p *Poller) Skipped() int64 {
	return p.skipped.Load()
}

func (p *Poller) trigger(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		logger().Debug().Msg("previous fetch still running, skipping tick")
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.inFlight.Store(false)

		entities, err := p.fetcher.FetchEntities(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger().Warn().Err(err).Msg("fetch failed")
		}
		p.handle(Result{Entities: entities, Err: err, At: time.Now()})
	}()
}
