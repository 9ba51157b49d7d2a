package reactor_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/badu/corosrv/reactor"
	"github.com/badu/corosrv/task"
)

func newTestRuntime(t *testing.T) *reactor.Runtime {
	t.Helper()
	rt, err := reactor.New(nil)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

// I4: the scheduler terminates iff the ready queue, timer heap and
// poller interest set are all empty.
func TestRunTerminatesWhenAllThreeAreEmpty(t *testing.T) {
	rt := newTestRuntime(t)
	ran := false
	rt.Spawn(func(y *task.Yielder) (any, error) {
		ran = true
		return nil, nil
	})

	done := make(chan struct{})
	go func() {
		rt.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not terminate")
	}
	require.True(t, ran)
}

func TestSpawnAwaitPropagatesChildResult(t *testing.T) {
	rt := newTestRuntime(t)
	var got any
	var gotErr error

	rt.Spawn(func(y *task.Yielder) (any, error) {
		child := rt.Spawn(func(y *task.Yielder) (any, error) {
			return "child-result", nil
		})
		got, gotErr = reactor.Await(y, child)
		return nil, nil
	})

	rt.Run(context.Background())
	require.NoError(t, gotErr)
	require.Equal(t, "child-result", got)
}

func TestSleepFiresAfterDuration(t *testing.T) {
	rt := newTestRuntime(t)
	start := time.Now()
	var elapsed time.Duration

	rt.Spawn(func(y *task.Yielder) (any, error) {
		rt.Sleep(y, 30*time.Millisecond)
		elapsed = time.Since(start)
		return nil, nil
	})

	rt.Run(context.Background())
	require.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestRaceReturnsFirstWinner(t *testing.T) {
	rt := newTestRuntime(t)
	var winnerIdx int
	var winnerVal any

	rt.Spawn(func(y *task.Yielder) (any, error) {
		slow := reactor.AfterFunc(rt, 200*time.Millisecond)
		fast := rt.Spawn(func(y *task.Yielder) (any, error) {
			rt.Sleep(y, 5*time.Millisecond)
			return "fast", nil
		})
		winnerIdx, winnerVal, _ = reactor.Race(y, slow, fast)
		return nil, nil
	})

	rt.Run(context.Background())
	require.Equal(t, 1, winnerIdx)
	require.Equal(t, "fast", winnerVal)
}

func TestRootTaskErrorIsLoggedNotFatal(t *testing.T) {
	var logged bytes.Buffer
	rt, err := reactor.New(log.New(&logged, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	boom := errors.New("boom")
	rt.Spawn(func(y *task.Yielder) (any, error) {
		return nil, boom
	})
	// must not panic or hang: the root task's error is absorbed and
	// logged, never silently dropped and never crashing the loop.
	rt.Run(context.Background())
	require.Contains(t, logged.String(), "boom")
}
