package install

import (
	"context"
	"sync"
)

// Task is the shared future for one package's installation. Exactly one
// goroutine runs the install body; everyone else awaits the same task and
// observes the same outcome. A task settles once and never resets.
type Task struct {
	// Name is the package the task installs.
	Name string

	done  chan struct{}
	newly bool
	err   error
}

func newTask(name string) *Task {
	return &Task{Name: name, done: make(chan struct{})}
}

// settle records the outcome and releases all current and future awaiters.
// The registry hands the run side to exactly one goroutine, so settle is
// called at most once per task.
func (t *Task) settle(newly bool, err error) {
	t.newly = newly
	t.err = err
	close(t.done)
}

// Done returns a channel that is closed when the task settles.
func (t *Task) Done() <-chan struct{} { return t.done }

// Await blocks until the task settles or ctx is cancelled. It reports
// whether the package was newly installed by this task, and the task's
// outcome.
func (t *Task) Await(ctx context.Context) (bool, error) {
	select {
	case <-t.done:
		return t.newly, t.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Settled reports whether the task has completed.
func (t *Task) Settled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Registry tracks install tasks across requests. At most one task exists per
// package name at a time; overlapping requests naming the same package share
// it, which is what bounds the install side effects to once per name.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry returns an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// claim returns the task for name, creating it when absent. The second
// result is true only for the caller that created the task; that caller owns
// running and settling it. The placeholder lands in the table before any
// fetch starts, so a concurrent claim always finds it.
func (r *Registry) claim(name string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tasks[name]; ok {
		return t, false
	}
	t := newTask(name)
	r.tasks[name] = t
	return t, true
}

// Lookup returns the current task for name, if any.
func (r *Registry) Lookup(name string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Forget drops the task for name so a later request installs it afresh.
// An in-flight task is left to settle; its awaiters keep the old handle.
func (r *Registry) Forget(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, name)
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
