package reactor

import (
	"time"

	"github.com/badu/corosrv/task"
)

// AfterFunc returns a Task that terminates after d elapses, turning a
// timer into an ordinary awaitable — the vehicle for racing a timeout
// against an I/O await.
func AfterFunc(rt *Runtime, d time.Duration) *task.Task {
	return rt.Spawn(func(y *task.Yielder) (any, error) {
		rt.Sleep(y, d)
		return nil, nil
	})
}

// Race suspends the calling task until the first of tasks terminates,
// returning that task's index and result. There is no cancellation
// primitive: Race does not stop the losing tasks' work, it only stops
// listening for their completion — whichever loser eventually
// terminates still enqueues the completion continuation Race set on
// it, which then returns without doing anything.
func Race(y *task.Yielder, tasks ...*task.Task) (int, any, error) {
	for i, t := range tasks {
		if t.Terminal() {
			r, err := t.Result()
			return i, r, err
		}
	}

	winner := -1
	y.Suspend(func(resume task.Continuation) {
		fired := false
		for i, t := range tasks {
			i := i
			t.SetParent(func() {
				if fired {
					return
				}
				fired = true
				winner = i
				resume()
			})
		}
	})
	r, err := tasks[winner].Result()
	return winner, r, err
}
