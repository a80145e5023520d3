package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// taskQueue 按下次执行时间排序的最小堆，外部只通过加锁的方法访问
type taskQueue struct {
	mu    sync.Mutex
	items taskItems
}

type taskItems []Task

func (q taskItems) Len() int           { return len(q) }
func (q taskItems) Less(i, j int) bool { return q[i].GetNextTime().Before(q[j].GetNextTime()) }
func (q taskItems) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *taskItems) Push(x any) { *q = append(*q, x.(Task)) }

func (q *taskItems) Pop() any {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return task
}

func newTaskQueue() *taskQueue {
	return &taskQueue{}
}

func (q *taskQueue) push(task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.items, task)
}

// list 返回副本，顺序不保证
func (q *taskQueue) list() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Task, len(q.items))
	copy(out, q.items)
	return out
}

// nextTime 堆为空时返回 false
func (q *taskQueue) nextTime() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return time.Time{}, false
	}
	return q.items[0].GetNextTime(), true
}

// popReady 弹出所有到点且处于等待状态的任务
func (q *taskQueue) popReady(now time.Time) []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []Task
	for len(q.items) > 0 && q.items[0].CanExecute(now) {
		ready = append(ready, heap.Pop(&q.items).(Task))
	}
	return ready
}
