// Package worker runs the background poll loop: fetch usage, publish a
// snapshot, then sleep until the next tick, a refresh request or shutdown.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tnunamak/usagegauge/internal/api"
	"github.com/tnunamak/usagegauge/internal/logging"
)

const DefaultInterval = 60 * time.Second

var ErrAlreadyRunning = errors.New("poller already running")

// Fetcher performs one poll. *api.Client satisfies it.
type Fetcher interface {
	FetchUsageWithAutoRefresh(ctx context.Context) (api.Usage, error)
}

type State int32

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the poller's latest known state. Percentages,
// reset labels and reset instants are only meaningful when HasData is true;
// a failed poll sets the error fields and leaves them as they were.
type Snapshot struct {
	FiveHourPct      float64
	SevenDayPct      float64
	FiveHourReset    string
	SevenDayReset    string
	FiveHourResetsAt time.Time
	SevenDayResetsAt time.Time

	HasError     bool
	ErrorMessage string
	Err          error

	// LastSuccess is zero until the first successful poll.
	LastSuccess time.Time
}

func (s Snapshot) HasData() bool {
	return !s.LastSuccess.IsZero()
}

// NewSnapshot is the state after a successful poll at now.
func NewSnapshot(u api.Usage, now time.Time) Snapshot {
	s := Snapshot{
		FiveHourPct:   u.FiveHour.Utilization,
		SevenDayPct:   u.SevenDay.Utilization,
		FiveHourReset: FormatResetLabel(u.FiveHour.ResetsAt, now),
		SevenDayReset: FormatResetLabel(u.SevenDay.ResetsAt, now),
		LastSuccess:   now,
	}
	s.FiveHourResetsAt, _ = ParseResetTime(u.FiveHour.ResetsAt)
	s.SevenDayResetsAt, _ = ParseResetTime(u.SevenDay.ResetsAt)
	return s
}

type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	now      func() time.Time
	log      logging.Logger
	listener Listener

	// refresh is the single-slot refresh request flag.
	refresh chan struct{}

	mu    sync.Mutex
	snap  Snapshot
	state State
	quit  chan struct{}
	done  chan struct{}
}

type Option func(*Poller)

// WithInterval sets the time between polls. Non-positive values select
// DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithClock(now func() time.Time) Option { return func(p *Poller) { p.now = now } }
func WithLogger(l logging.Logger) Option    { return func(p *Poller) { p.log = l } }

// Listener is called on the poll goroutine after every publish. Calling
// stop ends the loop once the listener returns; the listener must not call
// Poller.Stop, which waits for the loop.
type Listener func(snap Snapshot, stop func())

func WithListener(fn Listener) Option { return func(p *Poller) { p.listener = fn } }

func New(f Fetcher, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  f,
		interval: DefaultInterval,
		now:      time.Now,
		log:      logging.Nop(),
		refresh:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Start spawns the poll loop. The first poll begins immediately. If a loop
// stopped by its listener is still winding down, Start waits for it.
func (p *Poller) Start() error {
	p.mu.Lock()
	if p.state == Running {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}
	prev := p.done
	p.mu.Unlock()

	if prev != nil {
		<-prev
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == Running {
		return ErrAlreadyRunning
	}
	p.state = Running
	p.quit = make(chan struct{})
	p.done = make(chan struct{})

	go p.run(p.quit, p.done)
	return nil
}

// Stop signals the loop to exit and waits for it. A poll already in flight
// runs to completion first. Stop is safe to call more than once; a later
// call still waits for a loop that is winding down.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.halt(p.quit)
	done := p.done
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

// halt marks the loop owning quit as stopped. Callers hold p.mu.
func (p *Poller) halt(quit chan struct{}) {
	if p.state != Running || p.quit != quit {
		return
	}
	p.state = Stopped
	close(quit)
}

// RequestRefresh cuts the current wait short. It never blocks, and requests
// made while one is already pending collapse into it.
func (p *Poller) RequestRefresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the latest state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *Poller) run(quit, done chan struct{}) {
	defer close(done)
	ctx := context.Background()

	for {
		select {
		case <-quit:
			return
		default:
		}

		usage, err := p.fetcher.FetchUsageWithAutoRefresh(ctx)
		snap := p.publish(ctx, usage, err)
		p.notify(ctx, snap, quit)

		select {
		case <-p.refresh:
		default:
		}

		if !p.wait(quit) {
			return
		}
	}
}

func (p *Poller) publish(ctx context.Context, usage api.Usage, err error) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		p.snap.HasError = true
		p.snap.ErrorMessage = err.Error()
		p.snap.Err = err
		p.log.Warn(ctx, "poll failed", "error", err, "has_data", p.snap.HasData())
		return p.snap
	}

	p.snap = NewSnapshot(usage, p.now())

	p.log.Debug(ctx, "poll succeeded", "five_hour", p.snap.FiveHourPct, "seven_day", p.snap.SevenDayPct)
	return p.snap
}

func (p *Poller) notify(ctx context.Context, snap Snapshot, quit chan struct{}) {
	if p.listener == nil {
		return
	}
	p.listener(snap, func() {
		p.log.Debug(ctx, "stop requested by listener")
		p.mu.Lock()
		defer p.mu.Unlock()
		p.halt(quit)
	})
}

// wait blocks for one interval. It returns false when the loop should exit.
func (p *Poller) wait(quit chan struct{}) bool {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	select {
	case <-quit:
		return false
	case <-p.refresh:
		return true
	case <-timer.C:
		return true
	}
}
