// Package task implements the suspendable, resumable computation the
// scheduler drives. A Task runs on its own goroutine, but only one
// task's code is ever "live" at a time: the goroutine blocks
// immediately after starting and after every suspension, handing
// control back to whichever continuation resumed it. This gives
// user code ordinary blocking-looking syntax ("read until enough
// bytes") while preserving a single-threaded, one-suspension-per-await
// model — the goroutine is a bookkeeping device for the call stack,
// not a second thread of control.
package task

// Continuation is a handle to a suspended Task that resumes it
// exactly once. Holders (the poller, the timer heap) are non-owning:
// a Continuation outlives firing only as a plain func value, never as
// a reference that keeps the Task alive.
type Continuation func()

// Register is supplied by a task when it suspends. It is called
// synchronously, once, with the Continuation that will resume this
// exact suspension point — typically to hand that Continuation to the
// poller or the timer heap.
type Register func(resume Continuation)

// Yielder is the handle a running Task uses to suspend itself.
type Yielder struct {
	t *Task
}

// Suspend parks the task's goroutine. register is invoked with the
// Continuation that resumes this suspension point; Suspend returns
// only after that Continuation has been called.
func (y *Yielder) Suspend(register Register) {
	y.t.parked <- register
	<-y.t.turn
}

// Func is a task's entry point.
type Func func(y *Yielder) (any, error)

// Task is a suspendable, resumable computation with a private result
// slot. Exactly one owner holds a *Task at any instant; the scheduler
// never owns one, only a non-owning Continuation into it.
type Task struct {
	turn     chan struct{}
	parked   chan Register
	terminal bool
	result   any
	err      error
	parent   Continuation
}

// New creates a Task from fn. The task does not start running until
// its first turn is granted via ResumeOnce.
func New(fn Func) *Task {
	t := &Task{
		turn:   make(chan struct{}),
		parked: make(chan Register, 1),
	}
	y := &Yielder{t: t}
	go func() {
		<-t.turn
		result, err := fn(y)
		t.result, t.err = result, err
		t.terminal = true
		t.parked <- nil
	}()
	return t
}

// ResumeOnce grants the task its turn and blocks until it either
// suspends again (returning the Register it suspended with) or
// terminates (terminated == true). It must only be called from the
// continuation that the task itself last suspended with, or directly
// after New for the first turn — calling it out of turn deadlocks,
// since a Task has exactly one live resumption point at a time.
func (t *Task) ResumeOnce() (register Register, terminated bool) {
	t.turn <- struct{}{}
	reg := <-t.parked
	if reg == nil {
		return nil, true
	}
	return reg, false
}

// Terminal reports whether the task has run to completion.
func (t *Task) Terminal() bool { return t.terminal }

// Result returns the task's result slot. Valid only once Terminal.
func (t *Task) Result() (any, error) { return t.result, t.err }

// SetParent records the continuation to enqueue when this task
// terminates. Overwrites any previously set parent.
func (t *Task) SetParent(c Continuation) { t.parent = c }

// Parent returns the completion continuation set by SetParent, or nil.
func (t *Task) Parent() Continuation { return t.parent }
