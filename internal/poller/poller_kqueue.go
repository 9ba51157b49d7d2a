//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package poller

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const maxEvents = 128

// entry holds one continuation per direction so a Read and a Write
// interest on the same fd never collide.
type entry struct {
	read  Continuation
	write Continuation
}

func (e entry) empty() bool { return e.read == nil && e.write == nil }

// kqueuePoller is the BSD/Darwin C1 backend, single-goroutine like its
// Linux sibling.
type kqueuePoller struct {
	kq        int
	table     map[int]entry
	changeBuf []unix.Kevent_t
	eventBuf  []unix.Kevent_t
}

// New opens the platform-native readiness backend.
func New() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, errors.Wrap(err, "kqueue")
	}
	return &kqueuePoller{
		kq:       kq,
		table:    make(map[int]entry),
		eventBuf: make([]unix.Kevent_t, maxEvents),
	}, nil
}

func (p *kqueuePoller) apply(changes []unix.Kevent_t) error {
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

func (p *kqueuePoller) Register(fd int, events Event, cont Continuation) error {
	if err := validate(fd, events); err != nil {
		return err
	}
	ent := p.table[fd]
	var changes []unix.Kevent_t
	if events&Read != 0 {
		ent.read = cont
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD | unix.EV_ONESHOT})
	}
	if events&Write != 0 {
		ent.write = cont
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_ADD | unix.EV_ONESHOT})
	}
	if err := p.apply(changes); err != nil {
		return errors.Wrap(err, "kevent")
	}
	p.table[fd] = ent
	return nil
}

func (p *kqueuePoller) Unregister(fd int) error {
	ent, ok := p.table[fd]
	if !ok {
		return nil
	}
	delete(p.table, fd)
	var changes []unix.Kevent_t
	if ent.read != nil {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE})
	}
	if ent.write != nil {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE})
	}
	// The fd is usually about to be closed, which already drops the
	// kqueue registration; ignore ENOENT-class failures here.
	_ = p.apply(changes)
	return nil
}

func (p *kqueuePoller) Poll(timeoutMs int, out []Continuation) ([]Continuation, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * int64(1e6))
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf, ts)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, &DemultiplexWaitError{Cause: err}
	}
	for i := 0; i < n; i++ {
		ev := p.eventBuf[i]
		fd := int(ev.Ident)
		ent, ok := p.table[fd]
		if !ok {
			continue
		}
		// Each filter is independently EV_ONESHOT: the kernel already
		// dropped just this half, so only that direction's
		// continuation fires here — the other direction, if
		// registered, keeps waiting.
		switch ev.Filter {
		case unix.EVFILT_READ:
			if ent.read != nil {
				out = append(out, ent.read)
				ent.read = nil
			}
		case unix.EVFILT_WRITE:
			if ent.write != nil {
				out = append(out, ent.write)
				ent.write = nil
			}
		}
		if ent.empty() {
			delete(p.table, fd)
		} else {
			p.table[fd] = ent
		}
	}
	return out, nil
}

func (p *kqueuePoller) HasWatchers() bool { return len(p.table) > 0 }

func (p *kqueuePoller) Close() error {
	return unix.Close(p.kq)
}
