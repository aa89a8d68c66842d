package deps

import "fmt"

// Closure is the deduplicated, insertion-ordered result of resolution:
// every requested package plus everything reachable through hard and
// optional dependency declarations. Package names are unique within a
// closure.
type Closure struct {
	order  []string
	byName map[string]*Descriptor
}

// NewClosure returns an empty closure.
func NewClosure() *Closure {
	return &Closure{byName: make(map[string]*Descriptor)}
}

// Add inserts d, preserving insertion order. It returns false when a
// descriptor with the same name is already present; the existing entry wins.
func (c *Closure) Add(d *Descriptor) bool {
	if _, exists := c.byName[d.Name]; exists {
		return false
	}
	c.byName[d.Name] = d
	c.order = append(c.order, d.Name)
	return true
}

// Get returns the descriptor for name.
func (c *Closure) Get(name string) (*Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// Has reports whether name is in the closure.
func (c *Closure) Has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

// Len returns the number of packages in the closure.
func (c *Closure) Len() int { return len(c.order) }

// Names returns package names in insertion order.
// The returned slice is a copy.
func (c *Closure) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Descriptors returns all descriptors in insertion order.
func (c *Closure) Descriptors() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name])
	}
	return out
}

// Failure records one reference or dependency that could not be resolved.
// Failures never abort resolution; they accompany the closure so callers
// can report what was skipped.
type Failure struct {
	Name       string // package name, or "" for a whole-repository entry
	Repository string // repository pin, if any
	Err        error
}

// String renders the failed reference for diagnostics.
func (f Failure) String() string {
	switch {
	case f.Name == "":
		return fmt.Sprintf("%s: %v", f.Repository, f.Err)
	case f.Repository != "":
		return fmt.Sprintf("%s #%s: %v", f.Repository, f.Name, f.Err)
	default:
		return fmt.Sprintf("%s: %v", f.Name, f.Err)
	}
}

// Resolution is the output of [Resolver.Resolve].
type Resolution struct {
	RequestID string
	Closure   *Closure
	Failures  []Failure
}
