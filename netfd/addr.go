package netfd

import "strconv"

// Addr is a TCP address: either a port-only listener address (bound
// to all interfaces) or an ip:port peer address.
type Addr struct {
	IP   string // empty for a port-only listener address
	Port int
}

// String renders the canonical textual form.
func (a Addr) String() string {
	if a.IP == "" {
		return ":" + strconv.Itoa(a.Port)
	}
	return a.IP + ":" + strconv.Itoa(a.Port)
}

// PortOnly builds a listener address bound to all interfaces.
func PortOnly(port int) Addr {
	return Addr{Port: port}
}

// Peer builds a peer address.
func Peer(ip string, port int) Addr {
	return Addr{IP: ip, Port: port}
}
