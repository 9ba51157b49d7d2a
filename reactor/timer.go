package reactor

import (
	"container/heap"
	"time"

	"github.com/badu/corosrv/task"
)

// timerEntry is one {wake-time, continuation} pair in the Timer Heap.
type timerEntry struct {
	wake time.Time
	cont task.Continuation
}

// timerHeap is a min-heap of pending timers ordered by ascending
// wake-time, grounded on the gaio watcher's timedHeap use of
// container/heap.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].wake.Before(h[j].wake) }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

func (h *timerHeap) push(wake time.Time, cont task.Continuation) {
	heap.Push(h, &timerEntry{wake: wake, cont: cont})
}

func (h timerHeap) peek() *timerEntry {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

func (h *timerHeap) pop() *timerEntry {
	return heap.Pop(h).(*timerEntry)
}
