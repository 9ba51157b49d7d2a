package reactor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/badu/corosrv/reactor"
	"github.com/badu/corosrv/task"
)

// Exercises C5 end-to-end over real loopback sockets: an accept loop
// plus one connection handler race against a client dialing in and
// writing a message, read back exactly by the server.
func TestAsyncAcceptReadWrite(t *testing.T) {
	rt := newTestRuntime(t)

	ln, err := reactor.NewAsyncListener(rt, 0, 16)
	if err != nil {
		t.Skipf("listener unavailable in this sandbox: %v", err)
	}
	port := ln.Addr().Port
	t.Cleanup(func() { ln.Close() })

	received := make(chan string, 1)

	rt.Spawn(func(y *task.Yielder) (any, error) {
		conn, err := ln.Accept(y)
		if err != nil {
			return nil, err
		}
		defer conn.Close()

		buf := make([]byte, 64)
		n, err := conn.Read(y, buf)
		if err != nil {
			return nil, err
		}
		received <- string(buf[:n])
		return nil, nil
	})

	rt.Spawn(func(y *task.Yielder) (any, error) {
		conn, err := reactor.DialAsync(y, rt, "127.0.0.1", port)
		if err != nil {
			return nil, err
		}
		defer conn.Close()
		_, err = conn.Write(y, []byte("hello async"))
		return nil, err
	})

	done := make(chan struct{})
	go func() {
		rt.Run(context.Background())
		close(done)
	}()

	select {
	case msg := <-received:
		require.Equal(t, "hello async", msg)
	case <-time.After(3 * time.Second):
		t.Fatal("never received the client's message")
	}
	<-done
}
