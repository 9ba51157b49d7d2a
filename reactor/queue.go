package reactor

import "github.com/badu/corosrv/task"

// readyQueue is the FIFO of continuations eligible to run now. Backed
// by a slice with a head index rather than container/list: the
// scheduler only ever pushes at the tail and pops at the head, so a
// slice whose head index resets once the queue drains needs no
// per-node allocation.
type readyQueue struct {
	items []task.Continuation
	head  int
}

func (q *readyQueue) push(c task.Continuation) {
	q.items = append(q.items, c)
}

func (q *readyQueue) pop() task.Continuation {
	c := q.items[q.head]
	q.items[q.head] = nil
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return c
}

func (q *readyQueue) len() int {
	return len(q.items) - q.head
}
