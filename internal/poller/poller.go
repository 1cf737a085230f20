// Package poller owns the background refresh loop: one cancellable ticker
// at a time, restartable with a new interval, shut down idempotently.
package poller

import (
	"sync"
	"time"

	"github.com/bizzkoot/copilot-tracker/internal/logger"
)

// restartDebounce absorbs bursts of identical restart requests from the
// settings surface; re-requesting the current interval within this window
// is a no-op.
const restartDebounce = 500 * time.Millisecond

// Poller runs tick on a fixed period. The first tick fires one full
// interval after start, never immediately, so a settings change does not
// trigger an instant fetch.
type Poller struct {
	tick func()

	mu           sync.Mutex
	cancel       chan struct{}
	shuttingDown bool
	lastInterval time.Duration
	lastRestart  time.Time
}

func New(tick func()) *Poller {
	return &Poller{tick: tick}
}

// Restart cancels any running loop and spawns a new one with the given
// interval. During shutdown it is a no-op, as is a repeat of the current
// interval inside the debounce window.
func (p *Poller) Restart(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shuttingDown {
		return
	}
	if p.cancel != nil && interval == p.lastInterval && time.Since(p.lastRestart) < restartDebounce {
		return
	}
	p.lastInterval = interval
	p.lastRestart = time.Now()

	p.cancelLocked()

	cancel := make(chan struct{}, 1)
	p.cancel = cancel
	go p.loop(interval, cancel)

	logger.Info("polling loop started", "interval", interval)
}

// Stop sets the shutting-down flag before signalling, so a concurrent
// Restart cannot slip a new loop in behind the teardown. Safe to call
// more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.shuttingDown = true
	p.cancelLocked()
	p.mu.Unlock()
}

// Running reports whether a loop is currently active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// cancelLocked signals the active loop, best-effort. A full channel means
// the loop is already being stopped; that is not an error.
func (p *Poller) cancelLocked() {
	if p.cancel == nil {
		return
	}
	select {
	case p.cancel <- struct{}{}:
	default:
		logger.Debug("cancellation already pending")
	}
	p.cancel = nil
}

func (p *Poller) loop(interval time.Duration, cancel chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tick()
		case <-cancel:
			return
		}
	}
}
