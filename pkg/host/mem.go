package host

import (
	"context"
	"slices"
	"sync"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/repo"
)

type memNode struct {
	bundle    *repo.Bundle
	activated bool
}

// MemHost is an in-memory Host. It counts attach and activation calls per
// package, which is what the engine's concurrency tests assert on, and it
// can inject failures for specific names.
//
// All methods are safe for concurrent use.
type MemHost struct {
	mu    sync.Mutex
	order []string
	nodes map[string]*memNode

	attaches    map[string]int
	activations map[string]int

	// Activator, when set, runs package content at activation.
	Activator Activator

	// FailAttach and FailActivate, when set, can fail specific packages.
	FailAttach   func(name string) error
	FailActivate func(name string) error
}

var _ Host = (*MemHost)(nil)

// NewMemHost creates an empty in-memory host.
func NewMemHost() *MemHost {
	return &MemHost{
		nodes:       make(map[string]*memNode),
		attaches:    make(map[string]int),
		activations: make(map[string]int),
	}
}

func (h *MemHost) Lookup(name string) (*Installed, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[name]
	if !ok {
		return nil, false
	}
	return h.installed(name, n), true
}

func (h *MemHost) List() []*Installed {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Installed, 0, len(h.order))
	for _, name := range h.order {
		out = append(out, h.installed(name, h.nodes[name]))
	}
	return out
}

func (h *MemHost) installed(name string, n *memNode) *Installed {
	return &Installed{
		Name:       name,
		Repository: n.bundle.Descriptor.Repository,
		Version:    n.bundle.Descriptor.Version,
		Activated:  n.activated,
	}
}

func (h *MemHost) Attach(_ context.Context, bundle *repo.Bundle, opts deps.InstallOptions) error {
	name := bundle.Descriptor.Name

	h.mu.Lock()
	defer h.mu.Unlock()
	h.attaches[name]++

	if h.FailAttach != nil {
		if err := h.FailAttach(name); err != nil {
			return errors.Wrap(errors.ErrCodeAttach, err, "attaching %q", name)
		}
	}

	if n, ok := h.nodes[name]; ok {
		n.bundle = bundle
		return nil
	}
	h.nodes[name] = &memNode{bundle: bundle}
	h.order = place(h.order, name, opts)
	return nil
}

func (h *MemHost) Detach(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.nodes[name]; !ok {
		return nil
	}
	delete(h.nodes, name)
	if i := slices.Index(h.order, name); i >= 0 {
		h.order = slices.Delete(h.order, i, i+1)
	}
	return nil
}

func (h *MemHost) Activated(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	n, ok := h.nodes[name]
	return ok && n.activated
}

func (h *MemHost) Activate(ctx context.Context, name string, caps Capabilities) error {
	h.mu.Lock()
	n, ok := h.nodes[name]
	if !ok {
		h.mu.Unlock()
		return errors.New(errors.ErrCodeActivation, "package %q is not attached", name)
	}
	if n.activated {
		h.mu.Unlock()
		return nil
	}
	content := n.bundle.Content
	activator := h.Activator
	failActivate := h.FailActivate
	h.mu.Unlock()

	if failActivate != nil {
		if err := failActivate(name); err != nil {
			return errors.Wrap(errors.ErrCodeActivation, err, "activating %q", name)
		}
	}
	if activator != nil {
		if err := activator(ctx, content, caps); err != nil {
			return errors.Wrap(errors.ErrCodeActivation, err, "activating %q", name)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if n, ok := h.nodes[name]; ok {
		if n.activated {
			return nil
		}
		n.activated = true
	}
	h.activations[name]++
	return nil
}

// AttachCount returns how many times name was attached.
func (h *MemHost) AttachCount(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attaches[name]
}

// ActivateCount returns how many times name was actually activated.
func (h *MemHost) ActivateCount(name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.activations[name]
}

// Order returns the current attachment order.
func (h *MemHost) Order() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.order)
}
