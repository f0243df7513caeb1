package mining

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	tickInterval       = time.Second
	defaultPollEvery   = 60 * time.Second
	refreshCallTimeout = 15 * time.Second
)

// StatusSource returns the reconciled server state.
type StatusSource interface {
	Status(ctx context.Context) (State, error)
}

// Countdown keeps a live State for display. Between server polls it only
// re-derives progress locally; crossing the end of the session triggers
// an immediate refresh.
type Countdown struct {
	source   StatusSource
	poll     time.Duration
	tick     time.Duration
	now      func() time.Time
	onUpdate func(State)
	logger   *slog.Logger

	mu     sync.RWMutex
	state  State
	cancel context.CancelFunc
	live   bool
	wg     sync.WaitGroup
}

// NewCountdown builds a countdown. A negative poll uses the default of 60s
// and zero disables polling.
func NewCountdown(source StatusSource, poll time.Duration, onUpdate func(State), logger *slog.Logger) *Countdown {
	if poll < 0 {
		poll = defaultPollEvery
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Countdown{
		source:   source,
		poll:     poll,
		tick:     tickInterval,
		now:      time.Now,
		onUpdate: onUpdate,
		logger:   logger,
	}
}

// Start fetches the state once and launches the update loop. Concurrent
// calls start at most one loop.
func (c *Countdown) Start(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		cancel()
		return nil
	}
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	if err := c.refresh(loopCtx); err != nil {
		c.mu.Lock()
		// Stop may already have released the slot.
		if c.cancel != nil && loopCtx.Err() == nil {
			c.cancel = nil
		}
		c.mu.Unlock()
		cancel()
		c.wg.Done()
		return err
	}

	c.mu.Lock()
	c.live = loopCtx.Err() == nil
	c.mu.Unlock()
	go c.loop(loopCtx)
	return nil
}

// Stop halts the loop and waits for it to exit.
func (c *Countdown) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.live = false
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
}

// State returns the latest state.
func (c *Countdown) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Refresh pulls the server state now.
func (c *Countdown) Refresh(ctx context.Context) error {
	return c.refresh(ctx)
}

// Apply replaces the state with one the caller already reconciled, such as
// the result of a start or claim action.
func (c *Countdown) Apply(st State) {
	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
	c.publish(st)
}

// Running reports whether the update loop is active.
func (c *Countdown) Running() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.live
}

func (c *Countdown) loop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	var pollC <-chan time.Time
	if c.poll > 0 {
		poller := time.NewTicker(c.poll)
		defer poller.Stop()
		pollC = poller.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.advance() {
				c.refreshLogged(ctx)
			}
		case <-pollC:
			c.refreshLogged(ctx)
		}
	}
}

// advance re-derives a running session and reports whether it just ended.
func (c *Countdown) advance() bool {
	c.mu.Lock()
	prev := c.state
	if prev.Phase != PhaseRunning {
		c.mu.Unlock()
		return false
	}
	next := Derive(prev, c.now())
	c.state = next
	c.mu.Unlock()

	c.publish(next)
	return next.Phase != PhaseRunning
}

func (c *Countdown) refreshLogged(ctx context.Context) {
	if err := c.refresh(ctx); err != nil && ctx.Err() == nil {
		c.logger.Warn("mining refresh failed", "error", err)
	}
}

func (c *Countdown) refresh(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, refreshCallTimeout)
	defer cancel()

	st, err := c.source.Status(callCtx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
	c.publish(st)
	return nil
}

func (c *Countdown) publish(st State) {
	if c.onUpdate != nil {
		c.onUpdate(st)
	}
}
