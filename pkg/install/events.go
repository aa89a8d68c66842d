package install

import (
	"slices"
	"sync"
)

// events is the engine's lifecycle listener table. Installed and removal
// listeners are one-shot: each registration fires at most once, then is
// discarded. Global removal subscribers persist for the life of the engine.
type events struct {
	mu        sync.Mutex
	installed map[string][]func()
	removed   map[string][]func()
	global    []func(name string)
}

func newEvents() *events {
	return &events{
		installed: make(map[string][]func()),
		removed:   make(map[string][]func()),
	}
}

// onInstalled registers fn to run once name's install completes. live is
// evaluated under the table lock; when it reports true the package already
// completed, and fn runs immediately on the calling goroutine instead of
// being stored.
func (e *events) onInstalled(name string, fn func(), live func() bool) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	if live != nil && live() {
		e.mu.Unlock()
		fn()
		return
	}
	e.installed[name] = append(e.installed[name], fn)
	e.mu.Unlock()
}

// fireInstalled runs name's pending installed listeners in registration
// order and discards them.
func (e *events) fireInstalled(name string) {
	e.mu.Lock()
	fns := e.installed[name]
	delete(e.installed, name)
	e.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// onRemoved registers fn to run once when name is removed.
func (e *events) onRemoved(name string, fn func()) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.removed[name] = append(e.removed[name], fn)
	e.mu.Unlock()
}

// subscribe registers a persistent listener for every removal.
func (e *events) subscribe(fn func(name string)) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	e.global = append(e.global, fn)
	e.mu.Unlock()
}

// fireRemoved runs name's one-shot removal listeners, then every global
// subscriber, each set in registration order.
func (e *events) fireRemoved(name string) {
	e.mu.Lock()
	fns := e.removed[name]
	delete(e.removed, name)
	global := slices.Clone(e.global)
	e.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	for _, fn := range global {
		fn(name)
	}
}

// requestScope collects the all-installed callbacks registered during one
// top-level request. finish runs them in registration order, each to
// completion before the next starts. A registration arriving after the
// request finished runs immediately.
type requestScope struct {
	mu   sync.Mutex
	done bool
	fns  []func()
}

func (s *requestScope) register(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		fn()
		return
	}
	s.fns = append(s.fns, fn)
	s.mu.Unlock()
}

func (s *requestScope) finish() {
	s.mu.Lock()
	s.done = true
	fns := s.fns
	s.fns = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
