package wificfg

import (
	"sync"
	"time"
)

// Waitable connectivity bits. Same three flags the event callback and
// WaitEvent communicate through.
const (
	connectedBit uint32 = 1 << iota
	smartConfigDoneBit
	disconnectedBit

	allEventBits = connectedBit | smartConfigDoneBit | disconnectedBit
)

// Event is the outcome of a WaitEvent call.
type Event uint8

const (
	// EventTimeout: no qualifying event occurred within the wait duration.
	EventTimeout Event = iota
	// EventConnected: the station acquired connectivity (got an address).
	EventConnected
	// EventDisconnected: the station lost or failed association.
	EventDisconnected
	// EventSmartConfigStopped: the provisioning session finished.
	EventSmartConfigStopped
)

func (e Event) String() string {
	switch e {
	case EventTimeout:
		return "timeout"
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventSmartConfigStopped:
		return "smartconfig_stopped"
	}
	return "unknown"
}

// eventBits is a waitable set of boolean flags. Set/Clear/Wait are atomic
// with respect to each other; a waiter observes any bit set after its wait
// began. Waiting clears the matched bits on return.
type eventBits struct {
	mu   sync.Mutex
	bits uint32
	// sig is closed and replaced on every Set so waiters wake up.
	sig chan struct{}
}

func newEventBits() *eventBits {
	return &eventBits{sig: make(chan struct{})}
}

func (e *eventBits) Set(mask uint32) {
	e.mu.Lock()
	e.bits |= mask
	close(e.sig)
	e.sig = make(chan struct{})
	e.mu.Unlock()
}

func (e *eventBits) Clear(mask uint32) {
	e.mu.Lock()
	e.bits &^= mask
	e.mu.Unlock()
}

func (e *eventBits) Get() uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bits
}

// Wait blocks until any bit in mask is set or timeout elapses, whichever
// comes first. Matched bits are cleared before returning. Returns the bits
// that were matched, zero on timeout.
func (e *eventBits) Wait(mask uint32, timeout time.Duration) uint32 {
	deadline := time.Now().Add(timeout)
	for {
		e.mu.Lock()
		if got := e.bits & mask; got != 0 {
			e.bits &^= got
			e.mu.Unlock()
			return got
		}
		sig := e.sig
		e.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0
		}
		timer := time.NewTimer(remaining)
		select {
		case <-sig:
			timer.Stop()
		case <-timer.C:
			// Re-check under lock before giving up: a Set racing the
			// timer may have fired between unlock and select.
		}
	}
}

// WaitEvent blocks until a connectivity event occurs or timeout elapses.
// When several bits are pending the result follows a fixed priority:
// connected, then disconnected, then provisioning-stopped. All matched bits
// are consumed.
func (m *Manager) WaitEvent(timeout time.Duration) Event {
	got := m.events.Wait(allEventBits, timeout)
	switch {
	case got&connectedBit != 0:
		return EventConnected
	case got&disconnectedBit != 0:
		return EventDisconnected
	case got&smartConfigDoneBit != 0:
		return EventSmartConfigStopped
	}
	return EventTimeout
}
