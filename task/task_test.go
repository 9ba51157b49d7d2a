package task_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/badu/corosrv/task"
)

func TestTaskRunsToCompletionWithoutSuspending(t *testing.T) {
	tsk := task.New(func(y *task.Yielder) (any, error) {
		return 42, nil
	})
	require.False(t, tsk.Terminal())

	_, terminated := tsk.ResumeOnce()
	require.True(t, terminated)
	require.True(t, tsk.Terminal())

	result, err := tsk.Result()
	require.NoError(t, err)
	require.Equal(t, 42, result)
}

func TestTaskSuspendsThenResumes(t *testing.T) {
	var resumeFn task.Continuation
	tsk := task.New(func(y *task.Yielder) (any, error) {
		y.Suspend(func(resume task.Continuation) {
			resumeFn = resume
		})
		return "done", nil
	})

	register, terminated := tsk.ResumeOnce()
	require.False(t, terminated)
	require.NotNil(t, register)

	// register is called synchronously by the driver, handing the
	// continuation to whatever it suspended on (poller/timer, here
	// just the test itself).
	register(func() {})
	require.NotNil(t, resumeFn)
	require.False(t, tsk.Terminal())

	_, terminated = tsk.ResumeOnce()
	require.True(t, terminated)
	result, err := tsk.Result()
	require.NoError(t, err)
	require.Equal(t, "done", result)
}

func TestTaskPropagatesError(t *testing.T) {
	wantErr := assertErr{"boom"}
	tsk := task.New(func(y *task.Yielder) (any, error) {
		return nil, wantErr
	})
	_, terminated := tsk.ResumeOnce()
	require.True(t, terminated)
	_, err := tsk.Result()
	require.Equal(t, wantErr, err)
}

func TestSetParentRecordsCompletionContinuation(t *testing.T) {
	tsk := task.New(func(y *task.Yielder) (any, error) { return nil, nil })
	require.Nil(t, tsk.Parent())

	called := false
	tsk.SetParent(func() { called = true })
	require.NotNil(t, tsk.Parent())
	tsk.Parent()()
	require.True(t, called)
}

type assertErr struct{ msg string }

func (e assertErr) Error() string { return e.msg }
