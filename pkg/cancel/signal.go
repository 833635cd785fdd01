// Package cancel provides the one-shot cancellation signal shared between the
// lifecycle orchestrator, the service host and the worker loop.
//
// A Signal starts unset and can be set exactly once. Setting it is idempotent
// and wakes every goroutine blocked in Wait. There is no reset.
package cancel

import (
	"sync"
	"sync/atomic"
	"time"
)

// WaitResult reports why Wait returned.
type WaitResult int

const (
	// TimedOut means the full duration elapsed without the signal being set.
	TimedOut WaitResult = iota
	// Signaled means the signal was set before (or while) waiting.
	Signaled
)

func (r WaitResult) String() string {
	switch r {
	case TimedOut:
		return "timed_out"
	case Signaled:
		return "signaled"
	default:
		return "unknown"
	}
}

// Signal is a one-shot cancellation source. The zero value is not usable;
// construct with New.
type Signal struct {
	once sync.Once
	set  atomic.Bool
	done chan struct{}
}

// New returns an unset Signal.
func New() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Set transitions the signal to set and wakes all waiters. Calling Set more
// than once has the same effect as calling it once.
func (s *Signal) Set() {
	s.once.Do(func() {
		s.set.Store(true)
		close(s.done)
	})
}

// IsSet reports whether Set has been called.
func (s *Signal) IsSet() bool {
	return s.set.Load()
}

// Done returns a channel that is closed once the signal is set.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the signal is set or d elapses, whichever comes first.
// A non-positive d does not block: it only reports the current state.
func (s *Signal) Wait(d time.Duration) WaitResult {
	if d <= 0 {
		select {
		case <-s.done:
			return Signaled
		default:
			return TimedOut
		}
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-s.done:
		return Signaled
	case <-timer.C:
		// Both may be ready at once; a set flag always wins.
		if s.IsSet() {
			return Signaled
		}
		return TimedOut
	}
}
