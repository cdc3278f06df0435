// Package task provides keyed exactly-once execution.
package task

import "sync"

// Group executes keyed tasks exactly once. It behaves very similarly to
// sync.Once, except different tasks can be invoked with different keys.
type Group struct {
	mu    sync.Mutex
	tasks map[string]*task
}

type task struct {
	once sync.Once
	err  error
}

// NewGroup creates a new task group.
func NewGroup() *Group {
	return &Group{
		tasks: make(map[string]*task),
	}
}

// Do invokes the given function exactly once for the given key. Concurrent
// calls with the same key block until the first one has finished, then return
// the error (if any) from that call. Calls with other keys do not block.
func (g *Group) Do(key string, fn func() error) error {
	g.mu.Lock()
	t, ok := g.tasks[key]
	if !ok {
		t = &task{}
		g.tasks[key] = t
	}
	g.mu.Unlock()

	t.once.Do(func() { t.err = fn() })
	return t.err
}
