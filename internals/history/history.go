// Package history is the append-only record of every task submitted to the
// platform. In-memory only: restarting the process starts an empty log.
package history

import (
	"sync"

	"github.com/cogniolab/hybrid/internals/task"
)

type Log struct {
	mu    sync.Mutex
	tasks []*task.Task
}

func NewLog() *Log {
	return &Log{}
}

// Append records a task in submission order. Entries are never removed or
// reordered; the task keeps living its lifecycle after it is recorded.
func (l *Log) Append(t *task.Task) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.tasks = append(l.tasks, t)
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Snapshots projects the current state of every recorded task, oldest first.
func (l *Log) Snapshots() []task.Snapshot {
	l.mu.Lock()
	tasks := make([]*task.Task, len(l.tasks))
	copy(tasks, l.tasks)
	l.mu.Unlock()

	out := make([]task.Snapshot, len(tasks))
	for i, t := range tasks {
		out[i] = t.Snapshot()
	}
	return out
}

// Find returns the snapshot of the first recorded task with the given id.
func (l *Log) Find(id string) (task.Snapshot, bool) {
	l.mu.Lock()
	var found *task.Task
	for _, t := range l.tasks {
		if t.ID == id {
			found = t
			break
		}
	}
	l.mu.Unlock()

	if found == nil {
		return task.Snapshot{}, false
	}
	return found.Snapshot(), true
}
