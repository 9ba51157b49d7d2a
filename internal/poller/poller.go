// Package poller implements a readiness demultiplexer: it registers
// interest in read/write readiness for a file descriptor and reports
// the fired interests back to the caller. One interest per (fd,
// direction) at a time; firing is edge-triggered and one-shot.
package poller

import "github.com/pkg/errors"

// Event is the direction a caller is interested in.
type Event uint8

const (
	Read Event = 1 << iota
	Write
)

func (e Event) String() string {
	switch e {
	case Read:
		return "read"
	case Write:
		return "write"
	case Read | Write:
		return "read|write"
	default:
		return "none"
	}
}

// Continuation is the opaque handle fired when a registered interest
// is ready. It carries no payload: the caller re-checks readiness by
// retrying its non-blocking I/O call, per the usual edge-triggered
// contract. Poller never calls a Continuation itself — Poll only
// returns the ones that fired, leaving the caller (the scheduler) to
// decide when they run.
type Continuation func()

var (
	ErrInvalidHandle    = errors.New("poller: invalid handle")
	ErrUnsupportedEvent = errors.New("poller: unsupported event")
)

// DemultiplexWaitError wraps a fatal error surfaced from Poll.
type DemultiplexWaitError struct {
	Cause error
}

func (e *DemultiplexWaitError) Error() string { return "poller: wait failed: " + e.Cause.Error() }
func (e *DemultiplexWaitError) Unwrap() error { return e.Cause }

// Poller is the platform-independent contract both backends implement.
// Interest is kept per (fd, direction): registering Write on an fd that
// already has a Read interest adds a second, independent slot rather
// than overwriting the first — both continuations are preserved and
// each fires only for its own direction.
type Poller interface {
	// Register records interest in events on fd, firing cont when
	// ready. events may name Read, Write, or both; a combined Register
	// call installs cont as the continuation for each named direction.
	// Registering a direction that already has a continuation replaces
	// only that direction's continuation — the other direction's
	// registration, if any, is untouched. Fails with ErrInvalidHandle
	// for fd < 0 and ErrUnsupportedEvent for events outside Read|Write.
	Register(fd int, events Event, cont Continuation) error
	// Unregister removes any interest for fd. No-op if absent.
	Unregister(fd int) error
	// Poll blocks up to timeoutMs (negative = infinite) and appends
	// the Continuations whose interest fired to out, removing each
	// fired interest (edge-triggered, one-shot). Returns nil on
	// signal interruption without having fired anything.
	Poll(timeoutMs int, out []Continuation) ([]Continuation, error)
	// HasWatchers reports whether any interest is currently registered.
	HasWatchers() bool
	// Close releases the underlying OS resource.
	Close() error
}

func validate(fd int, events Event) error {
	if fd < 0 {
		return ErrInvalidHandle
	}
	if events == 0 || events&^(Read|Write) != 0 {
		return ErrUnsupportedEvent
	}
	return nil
}
