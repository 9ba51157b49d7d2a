package netfd

import (
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Listener is a passive (listening) socket: a bound address and a
// non-blocking, listening fd.
type Listener struct {
	fd   FD
	addr Addr
}

// Listen creates, binds and listens on a non-blocking TCP socket bound
// to all interfaces on port, with backlog pending connections.
func Listen(port int, backlog int) (*Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, errors.Wrap(ErrSocketCreate, err.Error())
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(ErrSocketCreate, err.Error())
	}
	if err := setNonblocking(fd); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(ErrSocketCreate, err.Error())
	}
	sa := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(ErrBind, err.Error())
	}
	if backlog <= 0 {
		backlog = 1024
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, errors.Wrap(ErrListen, err.Error())
	}
	boundPort := port
	if port == 0 {
		if name, err := unix.Getsockname(fd); err == nil {
			if v, ok := name.(*unix.SockaddrInet4); ok {
				boundPort = v.Port
			}
		}
	}
	return &Listener{fd: FD(fd), addr: PortOnly(boundPort)}, nil
}

// FD exposes the raw handle for poller registration.
func (l *Listener) FD() FD { return l.fd }

// Addr returns the bound address.
func (l *Listener) Addr() Addr { return l.addr }

// Accept performs one non-blocking accept attempt. On success it
// returns a Conn wrapping the accepted stream with its nonblocking
// flag already set. WouldBlock(err) reports the would-block case;
// any other error is ErrAccept.
func (l *Listener) Accept() (*Conn, error) {
	connFD, sa, err := unix.Accept(int(l.fd))
	if err != nil {
		if WouldBlock(err) {
			return nil, err
		}
		return nil, errors.Wrap(ErrAccept, err.Error())
	}
	if err := setNonblocking(connFD); err != nil {
		unix.Close(connFD)
		return nil, errors.Wrap(ErrAccept, err.Error())
	}
	return &Conn{fd: FD(connFD), peer: sockaddrToAddr(sa)}, nil
}

// Close releases the listening handle.
func (l *Listener) Close() error {
	err := closeFD(l.fd)
	l.fd = Invalid
	return err
}

func sockaddrToAddr(sa unix.Sockaddr) Addr {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		ip := net.IPv4(v.Addr[0], v.Addr[1], v.Addr[2], v.Addr[3])
		return Peer(ip.String(), v.Port)
	case *unix.SockaddrInet6:
		return Peer(net.IP(v.Addr[:]).String(), v.Port)
	default:
		return Addr{}
	}
}
