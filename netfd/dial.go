package netfd

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Dial opens a non-blocking TCP connection to ip:port. It is not part
// of the server-side core (spec's non-goals exclude client-side
// connection pooling); it exists only so tests can drive the server
// over a real loopback socket without a second process. The connect itself may still be in progress (EINPROGRESS)
// when Dial returns; callers should wait for write-readiness before
// using the connection, exactly as they would for any other
// would-block case.
func Dial(ip string, port int) (*Conn, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, errors.Wrap(ErrSocketCreate, err.Error())
	}
	if err := setNonblocking(fd); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(ErrSocketCreate, err.Error())
	}
	var addr [4]byte
	parsed := parseIPv4(ip)
	addr = parsed
	sa := &unix.SockaddrInet4{Port: port, Addr: addr}
	err = unix.Connect(fd, sa)
	if err != nil && !WouldBlock(err) {
		unix.Close(fd)
		return nil, errors.Wrap(ErrSocketCreate, err.Error())
	}
	return &Conn{fd: FD(fd), peer: Peer(ip, port)}, nil
}

func parseIPv4(s string) [4]byte {
	var out [4]byte
	var part, idx int
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '.' {
			out[idx] = byte(part)
			idx++
			part = 0
			continue
		}
		part = part*10 + int(s[i]-'0')
	}
	return out
}
