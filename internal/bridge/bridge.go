// Package bridge carries events from injected page scripts back into the
// host process. Script code calls Push with a named event and a JSON
// payload; the host installs a bounded channel to receive them for the
// duration of one extraction attempt.
package bridge

import (
	"encoding/json"
	"sync"

	"github.com/bizzkoot/copilot-tracker/internal/logger"
)

// capacity bounds the in-flight event buffer. A well-behaved extraction
// script emits a handful of events, so anything beyond this is runaway
// script output and gets dropped rather than blocking the browser.
const capacity = 10

// Event is one message pushed by the injected script.
type Event struct {
	Name    string
	Payload json.RawMessage
}

// Bridge holds the installable sender slot. The zero value is unusable;
// construct with New.
type Bridge struct {
	mu     sync.Mutex
	events chan Event
}

func New() *Bridge {
	return &Bridge{}
}

// Install creates a fresh bounded channel and makes it the active sink.
// Any previously installed channel is abandoned, not closed, so a late
// Push from a dying session cannot panic.
func (b *Bridge) Install() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = make(chan Event, capacity)
	return b.events
}

// Uninstall detaches the active sink. Subsequent pushes are discarded.
func (b *Bridge) Uninstall() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// Push delivers an event to the installed sink. With no sink installed the
// event is silently discarded; with a full buffer it is dropped with a log
// line. Push never blocks, because the caller is the browser event loop.
func (b *Bridge) Push(name string, payload json.RawMessage) {
	b.mu.Lock()
	events := b.events
	b.mu.Unlock()

	if events == nil {
		return
	}

	select {
	case events <- Event{Name: name, Payload: payload}:
	default:
		logger.Debug("bridge buffer full, dropping event", "event", name)
	}
}
