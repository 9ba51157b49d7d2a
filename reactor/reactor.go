// Package reactor implements the scheduler and the async socket
// adapter. A Runtime bundles the ready queue, the timer heap and the
// readiness demultiplexer (internal/poller) as one explicit value;
// there are no package-scope singletons.
package reactor

import (
	"context"
	"log"
	"time"

	"github.com/badu/corosrv/internal/poller"
	"github.com/badu/corosrv/task"
)

// Runtime bundles the scheduler and demultiplexer as a constructed
// value instead of process-wide singletons.
type Runtime struct {
	ready  readyQueue
	timers timerHeap
	poller poller.Poller
	errLog *log.Logger
}

// New constructs a Runtime with its own poller instance. errLog
// receives textual reports for root-task failures and
// connection-level errors from higher layers; if nil, log.Default()
// is used.
func New(errLog *log.Logger) (*Runtime, error) {
	p, err := poller.New()
	if err != nil {
		return nil, err
	}
	if errLog == nil {
		errLog = log.Default()
	}
	return &Runtime{poller: p, errLog: errLog}, nil
}

// Spawn enqueues fn's entry continuation on the Ready Queue and
// returns the Task. The Runtime does not own the Task: the caller
// must keep it reachable at least until Terminal() is true.
func (rt *Runtime) Spawn(fn task.Func) *task.Task {
	t := task.New(fn)
	rt.ready.push(func() { rt.driveTurn(t) })
	return t
}

// driveTurn grants t its turn and handles what happens next: a
// suspension hands the resume Continuation to whatever t suspended on
// (poller/timer/Race); termination enqueues the parent, if any, or
// (for an unawaited root task) logs a non-nil error — never silently.
func (rt *Runtime) driveTurn(t *task.Task) {
	register, terminated := t.ResumeOnce()
	if terminated {
		if parent := t.Parent(); parent != nil {
			rt.ready.push(parent)
			return
		}
		if _, err := t.Result(); err != nil {
			rt.errLog.Printf("corosrv: unhandled error in root task: %v", err)
		}
		return
	}
	register(func() { rt.driveTurn(t) })
}

// Await suspends the calling task (via y) until child terminates,
// then returns child's result. If child is already terminal, it
// returns immediately without suspending: the completion continuation
// is only recorded while the child is still running.
func Await(y *task.Yielder, child *task.Task) (any, error) {
	if !child.Terminal() {
		y.Suspend(func(resume task.Continuation) {
			child.SetParent(resume)
		})
	}
	return child.Result()
}

// SleepUntil inserts cont into the Timer Heap, to fire at wake.
func (rt *Runtime) SleepUntil(cont task.Continuation, wake time.Time) {
	rt.timers.push(wake, cont)
}

// Sleep suspends the calling task for d.
func (rt *Runtime) Sleep(y *task.Yielder, d time.Duration) {
	y.Suspend(func(resume task.Continuation) {
		rt.SleepUntil(resume, time.Now().Add(d))
	})
}

// ErrorLog returns the configured error sink.
func (rt *Runtime) ErrorLog() *log.Logger { return rt.errLog }

// registerIO hands cont to the poller for fd/events; used by
// AsyncConn and AsyncListener.
func (rt *Runtime) registerIO(fd int, events poller.Event, cont task.Continuation) error {
	return rt.poller.Register(fd, events, cont)
}

func (rt *Runtime) unregisterIO(fd int) error {
	return rt.poller.Unregister(fd)
}

// Run drives the event loop until the ready queue, timer heap and
// poller interest set are all empty.
func (rt *Runtime) Run(ctx context.Context) {
	var fired []task.Continuation
	for {
		for rt.ready.len() > 0 {
			rt.ready.pop()()
		}

		now := time.Now()
		for rt.timers.peek() != nil && !rt.timers.peek().wake.After(now) {
			rt.ready.push(rt.timers.pop().cont)
		}

		if rt.ready.len() == 0 && rt.timers.peek() == nil && !rt.poller.HasWatchers() {
			return
		}

		if ctx != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
		}

		timeout := rt.pollTimeout(now)
		var err error
		fired, err = rt.poller.Poll(timeout, fired[:0])
		if err != nil {
			rt.errLog.Printf("corosrv: poll error: %v", err)
			continue
		}
		for _, c := range fired {
			rt.ready.push(c)
		}
	}
}

func (rt *Runtime) pollTimeout(now time.Time) int {
	if rt.ready.len() > 0 {
		return 0
	}
	if next := rt.timers.peek(); next != nil {
		d := next.wake.Sub(now)
		if d < 0 {
			d = 0
		}
		return int(d / time.Millisecond)
	}
	return -1
}

// Close releases the poller's OS resource.
func (rt *Runtime) Close() error {
	return rt.poller.Close()
}
