package htx_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/badu/corosrv/htx"
	"github.com/badu/corosrv/reactor"
	"github.com/badu/corosrv/task"
)

func TestWriterFixedLengthSetsContentLengthAndConnectionClose(t *testing.T) {
	cfg := htx.DefaultConfig()
	var raw []byte

	runServerClient(t,
		func(y *task.Yielder, conn *reactor.AsyncConn) error {
			w := htx.NewWriter(conn, cfg)
			resp := htx.NewResponse(htx.StatusOK)
			resp.Body = []byte("hi there")
			return w.WriteResponse(y, &resp)
		},
		func(y *task.Yielder, conn *reactor.AsyncConn) error {
			raw = readAll(t, y, conn)
			return nil
		},
	)

	s := string(raw)
	require.Contains(t, s, "HTTP/1.1 200 OK\r\n")
	require.Contains(t, s, "Content-Length: 8\r\n")
	require.Contains(t, s, "Connection: close\r\n")
	require.True(t, strings.HasSuffix(s, "hi there"))
}

func TestWriterChunkedStripsContentLengthAndFramesBody(t *testing.T) {
	cfg := htx.DefaultConfig()
	cfg.ReadBlock = 4 // force multiple small chunks
	var raw []byte

	runServerClient(t,
		func(y *task.Yielder, conn *reactor.AsyncConn) error {
			w := htx.NewWriter(conn, cfg)
			resp := htx.NewResponse(htx.StatusOK)
			resp.Body = []byte("Wikipedia")
			resp.UseChunked = true
			return w.WriteResponse(y, &resp)
		},
		func(y *task.Yielder, conn *reactor.AsyncConn) error {
			raw = readAll(t, y, conn)
			return nil
		},
	)

	s := string(raw)
	require.Contains(t, s, "Transfer-Encoding: chunked\r\n")
	require.Contains(t, s, "Connection: keep-alive\r\n")
	require.NotContains(t, s, "Content-Length")
	require.Contains(t, s, "4\r\nWiki\r\n")
	require.Contains(t, s, "0\r\n\r\n")
}

// readAll drains conn until the peer closes, used by writer tests
// since the server side closes its connection once WriteResponse
// returns (see runServerClient's defer conn.Close()).
func readAll(t *testing.T, y *task.Yielder, conn *reactor.AsyncConn) []byte {
	t.Helper()
	var out []byte
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(y, buf)
		if err != nil {
			return out
		}
		if n == 0 {
			return out
		}
		out = append(out, buf[:n]...)
	}
}
