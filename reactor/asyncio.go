package reactor

import (
	"github.com/badu/corosrv/internal/poller"
	"github.com/badu/corosrv/netfd"
	"github.com/badu/corosrv/task"
)

// AsyncListener wraps a netfd.Listener with a suspendable Accept
// (C5). Grounded on the retry-until-EAGAIN accept loop of the raw
// epoll demo server, translated to suspend via the poller instead of
// busy-looping.
type AsyncListener struct {
	rt *Runtime
	l  *netfd.Listener
}

// NewAsyncListener binds and listens on port, non-blocking.
func NewAsyncListener(rt *Runtime, port int, backlog int) (*AsyncListener, error) {
	l, err := netfd.Listen(port, backlog)
	if err != nil {
		return nil, err
	}
	return &AsyncListener{rt: rt, l: l}, nil
}

// Addr returns the bound address.
func (al *AsyncListener) Addr() netfd.Addr { return al.l.Addr() }

// Accept suspends until a connection is available, looping
// would-block into a readiness wait.
func (al *AsyncListener) Accept(y *task.Yielder) (*AsyncConn, error) {
	for {
		c, err := al.l.Accept()
		if err == nil {
			return &AsyncConn{rt: al.rt, c: c}, nil
		}
		if !netfd.WouldBlock(err) {
			return nil, err
		}
		y.Suspend(func(resume task.Continuation) {
			al.rt.registerIO(int(al.l.FD()), poller.Read, resume)
		})
	}
}

// Close releases the listening handle.
func (al *AsyncListener) Close() error {
	al.rt.unregisterIO(int(al.l.FD()))
	return al.l.Close()
}

// AsyncConn wraps a netfd.Conn with suspendable Read/Write (C5).
type AsyncConn struct {
	rt *Runtime
	c  *netfd.Conn
}

// Peer returns the peer address snapshot.
func (ac *AsyncConn) Peer() netfd.Addr { return ac.c.Peer() }

// Read performs one non-blocking read, suspending at most once on
// would-block before retrying — it does not loop internally past one
// would-block cycle per call.
func (ac *AsyncConn) Read(y *task.Yielder, buf []byte) (int, error) {
	n, err := ac.c.Read(buf)
	if err == nil {
		return n, nil
	}
	if !netfd.WouldBlock(err) {
		return -1, err
	}
	y.Suspend(func(resume task.Continuation) {
		ac.rt.registerIO(int(ac.c.FD()), poller.Read, resume)
	})
	n, err = ac.c.Read(buf)
	if err != nil {
		if netfd.WouldBlock(err) {
			return 0, nil
		}
		return -1, err
	}
	return n, nil
}

// Write loops until all of buf is written or a non-would-block error
// occurs, suspending on write-readiness each time the kernel's send
// buffer is full.
func (ac *AsyncConn) Write(y *task.Yielder, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := ac.c.Write(buf[total:])
		if err == nil {
			total += n
			continue
		}
		if !netfd.WouldBlock(err) {
			return -1, err
		}
		y.Suspend(func(resume task.Continuation) {
			ac.rt.registerIO(int(ac.c.FD()), poller.Write, resume)
		})
	}
	return total, nil
}

// Close releases the handle.
func (ac *AsyncConn) Close() error {
	ac.rt.unregisterIO(int(ac.c.FD()))
	return ac.c.Close()
}

// DialAsync opens a non-blocking connection to ip:port and suspends
// until the connect completes (or fails), surfaced as write-readiness
// per the usual non-blocking connect convention. Test use only — see
// netfd.Dial.
func DialAsync(y *task.Yielder, rt *Runtime, ip string, port int) (*AsyncConn, error) {
	c, err := netfd.Dial(ip, port)
	if err != nil {
		return nil, err
	}
	y.Suspend(func(resume task.Continuation) {
		rt.registerIO(int(c.FD()), poller.Write, resume)
	})
	return &AsyncConn{rt: rt, c: c}, nil
}
