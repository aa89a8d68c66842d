package host

import (
	"context"
	"slices"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/repo"
)

// Installed describes one package attached to a host.
type Installed struct {
	Name       string
	Repository string // origin location the package was resolved from
	Version    int
	Activated  bool
}

// Capabilities is handed to a package's executable content at activation.
// The engine fills in the closures; hosts pass the object through to
// whatever executes the content.
type Capabilities struct {
	// Metadata returns the activating package's own descriptor.
	Metadata func() *deps.Descriptor

	// OnInstalled registers fn to run after the named package installs.
	OnInstalled func(name string, fn func())

	// OnAllInstalled registers fn to run once every package of the current
	// request has settled.
	OnAllInstalled func(fn func())

	// OnRemoved registers fn to run when the named package is removed.
	OnRemoved func(name string, fn func())

	// Require requests additional packages through the engine.
	Require func(ctx context.Context, refs ...string) error

	// Fetch retrieves an external resource for the content to evaluate.
	Fetch func(ctx context.Context, url string) ([]byte, error)
}

// Activator executes a package's content with its capability object.
type Activator func(ctx context.Context, content string, caps Capabilities) error

// Host is the environment packages are installed into.
type Host interface {
	// Lookup returns the named installed package.
	Lookup(name string) (*Installed, bool)

	// List enumerates installed packages in attachment order.
	List() []*Installed

	// Attach places a bundle into the host at the position its install
	// options call for. Re-attaching a present name replaces its payload
	// without moving it.
	Attach(ctx context.Context, bundle *repo.Bundle, opts deps.InstallOptions) error

	// Detach removes the named package and its activation marker.
	Detach(ctx context.Context, name string) error

	// Activated reports whether the named package's activation marker is set.
	Activated(name string) bool

	// Activate runs the named package's content and sets its activation
	// marker. A set marker makes Activate a no-op. The marker guards
	// re-activation only: callers serialize first activation per name,
	// and activators are free to re-enter the host through capability
	// closures.
	Activate(ctx context.Context, name string, caps Capabilities) error
}

// place returns order with name inserted per opts. Names already present
// keep their position. A before/after method whose target is absent
// degrades to an append.
func place(order []string, name string, opts deps.InstallOptions) []string {
	if slices.Contains(order, name) {
		return order
	}
	switch opts.Method {
	case deps.MethodPrepend:
		return append([]string{name}, order...)
	case deps.MethodBefore, deps.MethodAfter:
		i := slices.Index(order, opts.Target)
		if i < 0 {
			return append(order, name)
		}
		if opts.Method == deps.MethodAfter {
			i++
		}
		return slices.Insert(slices.Clone(order), i, name)
	default:
		return append(order, name)
	}
}
