package plan

import (
	"strings"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/errors"
)

// Plan is an ordered installation schedule for one closure.
type Plan struct {
	// Layers groups packages by readiness pass. Every dependency of a
	// package in layer i sits in a layer before i.
	Layers [][]*deps.Descriptor

	// Ordered is the layer-by-layer flattening of the schedule.
	Ordered []*deps.Descriptor

	// Residual lists packages that could not be placed (dependency
	// cycles), in closure order. The ordered prefix remains installable.
	Residual []string

	// Closure is the input the plan was computed from.
	Closure *deps.Closure
}

// Order computes the installation schedule for c.
//
// Order runs ready-extraction passes to a fixed point: each pass scans the
// unplaced packages in closure order and moves every package whose
// in-closure dependencies are all placed into a new layer. Dependencies
// outside the closure count as satisfied. A pass that extracts nothing
// stops ordering; whatever remains becomes the residual.
func Order(c *deps.Closure) *Plan {
	p := &Plan{Closure: c}
	remaining := c.Names()
	placed := make(map[string]bool, len(remaining))

	for len(remaining) > 0 {
		var layer []*deps.Descriptor
		var next []string

		for _, name := range remaining {
			d, _ := c.Get(name)
			if ready(c, d, placed) {
				layer = append(layer, d)
			} else {
				next = append(next, name)
			}
		}

		if len(layer) == 0 {
			p.Residual = next
			break
		}

		for _, d := range layer {
			placed[d.Name] = true
		}
		p.Layers = append(p.Layers, layer)
		p.Ordered = append(p.Ordered, layer...)
		remaining = next
	}

	return p
}

// ready reports whether every in-closure dependency of d is already placed.
// Self-references and dependencies outside the closure are satisfied.
func ready(c *deps.Closure, d *deps.Descriptor, placed map[string]bool) bool {
	for _, dep := range d.AllDeps() {
		if dep.Name == d.Name {
			continue
		}
		if !c.Has(dep.Name) {
			continue
		}
		if !placed[dep.Name] {
			return false
		}
	}
	return true
}

// Names returns the ordered package names, layer by layer.
func (p *Plan) Names() []string {
	out := make([]string, 0, len(p.Ordered))
	for _, d := range p.Ordered {
		out = append(out, d.Name)
	}
	return out
}

// Layer returns the index of the layer containing name, or -1 when name is
// residual or unknown.
func (p *Plan) Layer(name string) int {
	for i, layer := range p.Layers {
		for _, d := range layer {
			if d.Name == name {
				return i
			}
		}
	}
	return -1
}

// ResidualErr returns an UNORDERABLE error describing the residual, or nil
// when every package was placed. The error is diagnostic: callers report it
// and proceed with the ordered prefix.
func (p *Plan) ResidualErr() error {
	if len(p.Residual) == 0 {
		return nil
	}
	return errors.New(errors.ErrCodeUnorderable,
		"cannot order %d package(s): %s", len(p.Residual), strings.Join(p.Residual, ", "))
}
