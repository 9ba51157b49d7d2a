package htx_test

import (
	"context"
	"testing"
	"time"

	"github.com/badu/corosrv/reactor"
	"github.com/badu/corosrv/task"
)

// newTestRuntime mirrors reactor_test.go's helper of the same name;
// htx tests live in a separate package so they need their own copy.
func newTestRuntime(t *testing.T) *reactor.Runtime {
	t.Helper()
	rt, err := reactor.New(nil)
	if err != nil {
		t.Fatalf("reactor.New: %v", err)
	}
	t.Cleanup(func() { rt.Close() })
	return rt
}

// runServerClient spins up a real loopback listener+dialer over a
// fresh reactor.Runtime, and runs serverFn against the accepted side
// and clientFn against the dialed side as the runtime's only two root
// tasks. Both closures are spawned before rt.Run starts (matching
// reactor's asyncio_test.go pattern), so all interaction with the
// runtime happens from inside already-scheduled task turns rather
// than from the test goroutine racing the scheduler.
func runServerClient(t *testing.T, serverFn, clientFn func(y *task.Yielder, conn *reactor.AsyncConn) error) {
	t.Helper()

	rt := newTestRuntime(t)
	ln, err := reactor.NewAsyncListener(rt, 0, 16)
	if err != nil {
		t.Skipf("listener unavailable in this sandbox: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	port := ln.Addr().Port

	serverErr := make(chan error, 1)
	clientErr := make(chan error, 1)

	rt.Spawn(func(y *task.Yielder) (any, error) {
		conn, err := ln.Accept(y)
		if err != nil {
			serverErr <- err
			return nil, err
		}
		defer conn.Close()
		serverErr <- serverFn(y, conn)
		return nil, nil
	})
	rt.Spawn(func(y *task.Yielder) (any, error) {
		conn, err := reactor.DialAsync(y, rt, "127.0.0.1", port)
		if err != nil {
			clientErr <- err
			return nil, err
		}
		defer conn.Close()
		clientErr <- clientFn(y, conn)
		return nil, nil
	})

	done := make(chan struct{})
	go func() {
		rt.Run(context.Background())
		close(done)
	}()

	timeout := time.After(2 * time.Second)
	for i := 0; i < 2; i++ {
		select {
		case err := <-serverErr:
			if err != nil {
				t.Errorf("server side: %v", err)
			}
		case err := <-clientErr:
			if err != nil {
				t.Errorf("client side: %v", err)
			}
		case <-timeout:
			t.Fatal("timed out waiting for server/client tasks")
		}
	}
	<-done
}
