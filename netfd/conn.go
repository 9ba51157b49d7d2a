package netfd

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Conn is an active (stream) socket: a handle plus a snapshot of the
// peer's address.
type Conn struct {
	fd   FD
	peer Addr
}

// FD exposes the raw handle for poller registration.
func (c *Conn) FD() FD { return c.fd }

// Peer returns the peer address snapshot taken at accept time.
func (c *Conn) Peer() Addr { return c.peer }

// Read performs one non-blocking read attempt. Returns n>=0 on
// success (0 meaning orderly peer close), or an error: WouldBlock(err)
// for try-again, ErrReceive otherwise.
func (c *Conn) Read(buf []byte) (int, error) {
	n, err := unix.Read(int(c.fd), buf)
	if err != nil {
		if WouldBlock(err) {
			return 0, err
		}
		return 0, errors.Wrap(ErrReceive, err.Error())
	}
	return n, nil
}

// Write performs one non-blocking write attempt, writing as much of
// buf as the kernel will currently accept. Returns n>=0 bytes
// actually written, or an error: WouldBlock(err) for try-again (n==0
// in that case), ErrSend otherwise.
func (c *Conn) Write(buf []byte) (int, error) {
	n, err := unix.Write(int(c.fd), buf)
	if err != nil {
		if WouldBlock(err) {
			return 0, err
		}
		return 0, errors.Wrap(ErrSend, err.Error())
	}
	return n, nil
}

// Close releases the handle.
func (c *Conn) Close() error {
	err := closeFD(c.fd)
	c.fd = Invalid
	return err
}
