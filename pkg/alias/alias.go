// Package alias maps short repository handles to target locations.
//
// This package defines the alias registry used to resolve repository
// references like "widgets" into one or more concrete URLs, with
// implementations for different backends:
//   - memory: in-process storage for session-scoped aliases and tests
//   - file: JSON file storage for CLI durable aliases
//   - redis: Redis-backed storage for multi-instance deployments
//   - mongo: MongoDB-backed storage as an alternative durable backend
//
// # Scopes
//
// A [Registry] holds two independent scopes. Durable aliases survive
// restarts; session aliases live only as long as their backing store
// (typically process memory) and shadow durable aliases with the same
// name during lookup.
//
// # Storage model
//
// Backends implement [Store]: the whole alias table loads and saves as one
// JSON blob. Registration is a read-modify-write of the full table, which
// keeps backends trivial and matches the registry's scale: tables hold
// tens of entries, not thousands.
//
// # Lookup
//
// [Registry.Candidates] resolves a repository reference into an ordered
// list of candidate locations. References that already look like URLs pass
// through untouched. Aliases may point at other aliases; expansion follows
// them depth-first with a cycle guard, preserving registration order.
package alias

import (
	"context"
	"maps"
	"strings"
	"sync"

	"github.com/gantryhq/gantry/pkg/errors"
)

// Table is one scope's alias mapping: alias name to ordered target list.
type Table map[string][]string

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Store persists one scope's alias table as a whole.
type Store interface {
	// Load reads the full table. A missing table is an empty Table, not
	// an error.
	Load(ctx context.Context) (Table, error)

	// Save overwrites the full table.
	Save(ctx context.Context, t Table) error
}

// Scope selects which alias table an operation works on.
type Scope int

const (
	// Durable aliases survive process restarts.
	Durable Scope = iota
	// Session aliases last for the registry's lifetime and shadow durable
	// aliases during lookup.
	Session
)

// String returns the scope's name.
func (s Scope) String() string {
	if s == Session {
		return "session"
	}
	return "durable"
}

// Registry resolves repository aliases across a durable and a session scope.
// All operations are safe for concurrent use; mutations serialize so that
// read-modify-write cycles on the backing stores don't interleave.
type Registry struct {
	mu      sync.Mutex
	durable Store
	session Store
}

// NewRegistry creates a Registry over the given scope stores.
func NewRegistry(durable, session Store) *Registry {
	return &Registry{durable: durable, session: session}
}

func (r *Registry) store(scope Scope) Store {
	if scope == Session {
		return r.session
	}
	return r.durable
}

// Register maps alias to one or more target locations in the given scope,
// replacing any existing registration for that alias.
func (r *Registry) Register(ctx context.Context, scope Scope, alias string, targets ...string) error {
	if err := errors.ValidateAlias(alias); err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "alias %q needs at least one target", alias)
	}
	for _, t := range targets {
		if strings.TrimSpace(t) == "" {
			return errors.New(errors.ErrCodeInvalidInput, "alias %q has an empty target", alias)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.store(scope)
	table, err := s.Load(ctx)
	if err != nil {
		return err
	}
	table[alias] = append([]string(nil), targets...)
	return s.Save(ctx, table)
}

// Unregister removes alias from the given scope. Removing an absent alias
// is not an error.
func (r *Registry) Unregister(ctx context.Context, scope Scope, alias string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.store(scope)
	table, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := table[alias]; !ok {
		return nil
	}
	delete(table, alias)
	return s.Save(ctx, table)
}

// List returns a copy of one scope's table.
func (r *Registry) List(ctx context.Context, scope Scope) (Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	table, err := r.store(scope).Load(ctx)
	if err != nil {
		return nil, err
	}
	return table.Clone(), nil
}

// Merged returns the effective lookup table: durable entries overlaid with
// session entries.
func (r *Registry) Merged(ctx context.Context) (Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.merged(ctx)
}

func (r *Registry) merged(ctx context.Context) (Table, error) {
	durable, err := r.durable.Load(ctx)
	if err != nil {
		return nil, err
	}
	session, err := r.session.Load(ctx)
	if err != nil {
		return nil, err
	}
	out := durable.Clone()
	maps.Copy(out, session.Clone())
	return out, nil
}

// Clear removes every alias in the given scope.
func (r *Registry) Clear(ctx context.Context, scope Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store(scope).Save(ctx, Table{})
}

// maxAliasDepth bounds alias-to-alias expansion.
const maxAliasDepth = 8

// Candidates resolves a repository reference into an ordered candidate
// list. References containing a URL scheme pass through as a single
// candidate. Alias targets that are themselves aliases expand depth-first;
// cycles and over-deep chains fall back to the literal target.
func (r *Registry) Candidates(ctx context.Context, location string) ([]string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty repository reference")
	}
	if strings.Contains(location, "://") {
		return []string{location}, nil
	}

	table, err := r.Merged(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	out := expand(table, location, seen, 0)
	if len(out) == 0 {
		// Not an alias: pass the reference through for the transport to try.
		return []string{location}, nil
	}
	return out, nil
}

func expand(table Table, name string, seen map[string]bool, depth int) []string {
	if depth > maxAliasDepth || seen[name] {
		return nil
	}
	targets, ok := table[name]
	if !ok {
		return nil
	}
	seen[name] = true

	var out []string
	for _, t := range targets {
		if strings.Contains(t, "://") {
			out = append(out, t)
			continue
		}
		if nested := expand(table, t, seen, depth+1); nested != nil {
			out = append(out, nested...)
			continue
		}
		out = append(out, t)
	}
	return out
}
