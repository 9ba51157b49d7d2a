package htx

import (
	"log"

	"github.com/badu/corosrv/reactor"
	"github.com/badu/corosrv/task"
)

// Handler is the one routing extension point the core exposes: it
// turns a parsed Request into a Response.
type Handler func(req Request, cfg Config) Response

// ServeConn runs the connection driver against an accepted AsyncConn:
// a keep-alive loop that reads one Request, invokes
// handler, writes the Response, and repeats until the peer signals
// no-request, the negotiated keep-alive flag is false, or an error
// occurs. errLog receives textual diagnostics for step 2-5 failures.
// ServeConn does not recover a panic raised by handler; conn is closed
// on every return, and by the deferred close if handler panics.
func ServeConn(y *task.Yielder, conn *reactor.AsyncConn, cfg Config, handler Handler, errLog *log.Logger) {
	defer conn.Close()

	reader := NewReader(conn, cfg)
	writer := NewWriter(conn, cfg)

	for {
		req, err := reader.ReadRequest(y)
		if err != nil {
			if !IsNoRequest(err) {
				errLog.Printf("corosrv: request read failed from %s: %v", conn.Peer(), err)
			}
			return
		}

		resp := handler(req, cfg)
		resp.Headers.Set("Connection", connectionValue(req.KeepAlive))

		if err := writer.WriteResponse(y, &resp); err != nil {
			errLog.Printf("corosrv: response write failed to %s: %v", conn.Peer(), err)
			return
		}

		if !req.KeepAlive {
			return
		}
	}
}

func connectionValue(keepAlive bool) string {
	if keepAlive {
		return "keep-alive"
	}
	return "close"
}
