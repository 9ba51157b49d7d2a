// Package netfd is the socket facade (C2): non-blocking IPv4 TCP
// stream sockets over a raw file descriptor. Sockets are exclusive
// owners of their FD; Close releases it.
package netfd

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// FD is an opaque handle to an OS stream endpoint. Invalid is the
// distinguished sentinel for "no handle".
type FD int

const Invalid FD = -1

var (
	ErrSocketCreate = errors.New("netfd: socket create failed")
	ErrBind         = errors.New("netfd: bind failed")
	ErrListen       = errors.New("netfd: listen failed")
	ErrAccept       = errors.New("netfd: accept failed")
	ErrSend         = errors.New("netfd: send failed")
	ErrReceive      = errors.New("netfd: receive failed")
)

// WouldBlock reports whether err is the non-blocking "try again" class
// of error returned by read/write/accept.
func WouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINPROGRESS)
}

func setNonblocking(fd int) error {
	return unix.SetNonblock(fd, true)
}

func closeFD(fd FD) error {
	if fd == Invalid {
		return nil
	}
	return unix.Close(int(fd))
}
