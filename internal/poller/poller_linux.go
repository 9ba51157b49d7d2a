//go:build linux

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

func (e entry) mask() Event {
	var ev Event
	if e.read != nil {
		ev |= Read
	}
	if e.write != nil {
		ev |= Write
	}
	return ev
}

func (e entry) empty() bool { return e.read == nil && e.write == nil }

// epollPoller is the Linux C1 backend. It is only ever driven from the
// scheduler's single goroutine, so the fd table needs no locking.
type epollPoller struct {
	epfd      int
	table     map[int]entry
	eventsBuf []unix.EpollEvent
}

// New opens the platform-native readiness backend.
func New() (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, errors.Wrap(err, "epoll_create1")
	}
	return &epollPoller{
		epfd:      epfd,
		table:     make(map[int]entry),
		eventsBuf: make([]unix.EpollEvent, maxEvents),
	}, nil
}

func toEpoll(e Event) uint32 {
	var m uint32
	if e&Read != 0 {
		m |= unix.EPOLLIN
	}
	if e&Write != 0 {
		m |= unix.EPOLLOUT
	}
	return m
}

func (p *epollPoller) Register(fd int, events Event, cont Continuation) error {
	if err := validate(fd, events); err != nil {
		return err
	}
	ent, exists := p.table[fd]
	if events&Read != 0 {
		ent.read = cont
	}
	if events&Write != 0 {
		ent.write = cont
	}
	op := unix.EPOLL_CTL_ADD
	if exists {
		op = unix.EPOLL_CTL_MOD
	}
	ev := unix.EpollEvent{Events: toEpoll(ent.mask()), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, op, fd, &ev); err != nil {
		return errors.Wrap(err, "epoll_ctl")
	}
	p.table[fd] = ent
	return nil
}

func (p *epollPoller) Unregister(fd int) error {
	if _, ok := p.table[fd]; !ok {
		return nil
	}
	delete(p.table, fd)
	// EPOLL_CTL_DEL on an already-closed fd returns EBADF; callers
	// close the fd after Unregister so this is expected to succeed.
	_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	return nil
}

func (p *epollPoller) Poll(timeoutMs int, out []Continuation) ([]Continuation, error) {
	n, err := unix.EpollWait(p.epfd, p.eventsBuf, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return out, nil
		}
		return out, &DemultiplexWaitError{Cause: err}
	}
	for i := 0; i < n; i++ {
		fired := p.eventsBuf[i].Events
		fd := int(p.eventsBuf[i].Fd)
		ent, ok := p.table[fd]
		if !ok {
			continue
		}
		if fired&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 && ent.read != nil {
			out = append(out, ent.read)
			ent.read = nil
		}
		if fired&(unix.EPOLLOUT|unix.EPOLLHUP|unix.EPOLLERR) != 0 && ent.write != nil {
			out = append(out, ent.write)
			ent.write = nil
		}
		if ent.empty() {
			delete(p.table, fd)
			// Nothing left to wait for: drop the kernel registration too,
			// so a later Register starts over with EPOLL_CTL_ADD.
			_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
			continue
		}
		// One direction fired, the other is still pending: re-arm for
		// just what remains so a level-triggered re-fire of the
		// already-delivered direction doesn't wake the loop again.
		p.table[fd] = ent
		ev := unix.EpollEvent{Events: toEpoll(ent.mask()), Fd: int32(fd)}
		_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
	}
	return out, nil
}

func (p *epollPoller) HasWatchers() bool { return len(p.table) > 0 }

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}
