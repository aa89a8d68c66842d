package deps

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/observability"
)

const (
	DefaultMaxDepth = 50   // Default maximum dependency depth
	DefaultMaxNodes = 5000 // Default maximum packages per closure

	workers = 20
)

// Source retrieves package descriptors and repository catalogs.
// The repository client implements Source; tests substitute fakes.
type Source interface {
	// Descriptor fetches one package descriptor. An empty repository means
	// the source's configured default repositories apply. If refresh is
	// true, cached documents are bypassed.
	Descriptor(ctx context.Context, name, repository string, refresh bool) (*Descriptor, error)

	// Catalog lists every package name a repository document declares,
	// in document order.
	Catalog(ctx context.Context, repository string, refresh bool) ([]string, error)
}

// Options configures one resolution request.
type Options struct {
	RequestID    string                            // correlation ID (generated when empty)
	Refresh      bool                              // bypass descriptor caches
	Global       InstallOptions                    // request-global option bag
	MaxDepth     int                               // maximum dependency depth (default: 50)
	MaxNodes     int                               // maximum packages per closure (default: 5000)
	PreferOrigin func(name string) (string, bool)  // live-install origin lookup (optional)
	Logger       *log.Logger                       // diagnostics (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.RequestID == "" {
		opts.RequestID = uuid.NewString()[:8]
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

// Resolver builds closures from request entries.
type Resolver struct {
	source Source
}

// NewResolver creates a Resolver reading descriptors from source.
func NewResolver(source Source) *Resolver {
	return &Resolver{source: source}
}

// Resolve expands entries into a closure.
//
// Resolution is breadth-first from the request entries. Whole-repository
// entries expand into one entry per cataloged package. Every package name
// resolves at most once; diamonds and cycles in the dependency declarations
// collapse onto the already-resolved entry. A descriptor fetch failure
// skips that entry, records a [Failure], and resolution continues.
//
// Resolve returns an error only when ctx is cancelled; everything else is
// reported through [Resolution.Failures].
func (r *Resolver) Resolve(ctx context.Context, entries []Ref, opts Options) (*Resolution, error) {
	opts = opts.WithDefaults()
	start := time.Now()
	observability.Resolver().OnResolveStart(ctx, opts.RequestID, len(entries))

	w := &walk{
		source:    r.source,
		opts:      opts,
		closure:   NewClosure(),
		resolving: make(map[string]bool),
	}

	err := w.run(ctx, entries)
	res := &Resolution{
		RequestID: opts.RequestID,
		Closure:   w.closure,
		Failures:  w.failures,
	}
	observability.Resolver().OnResolveComplete(ctx, opts.RequestID, w.closure.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// pending is one package queued for descriptor fetch.
type pending struct {
	name       string
	repository string         // repository pin, or "" for source defaults
	caller     bool           // pin came from a request entry, not a descriptor
	bag        InstallOptions // naming reference's option bag (entries only)
	depth      int
}

type fetched struct {
	pending
	desc *Descriptor
	err  error
}

// walk carries the state of one resolution request. The closure is
// order-sensitive, so descriptor fetches run concurrently within a wave
// but results merge in wave order.
type walk struct {
	source    Source
	opts      Options
	closure   *Closure
	resolving map[string]bool // names enqueued or resolved
	failures  []Failure
}

func (w *walk) run(ctx context.Context, entries []Ref) error {
	frontier, err := w.seed(ctx, entries)
	if err != nil {
		return err
	}

	for len(frontier) > 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		results := w.fetchWave(ctx, frontier)
		frontier = w.mergeWave(ctx, results)
	}
	return ctx.Err()
}

// seed normalizes request entries into the first wave. Whole-repository
// entries expand via the catalog; the guard map keeps a package named by
// both a catalog and another entry from resolving twice.
func (w *walk) seed(ctx context.Context, entries []Ref) ([]pending, error) {
	var frontier []pending
	for _, e := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		switch e.Kind {
		case RefRepo:
			names, err := w.source.Catalog(ctx, e.Repository, w.opts.Refresh)
			if err != nil {
				w.skip(ctx, Failure{Repository: e.Repository, Err: err})
				continue
			}
			for _, name := range names {
				w.enqueue(&frontier, pending{name: name, repository: e.Repository, caller: true, bag: e.Options})
			}
		default:
			if e.Name == "" {
				w.skip(ctx, Failure{Repository: e.Repository,
					Err: errors.New(errors.ErrCodeInvalidRef, "reference has no package name")})
				continue
			}
			w.enqueue(&frontier, pending{name: e.Name, repository: e.Repository, caller: e.Repository != "", bag: e.Options})
		}
	}
	return frontier, nil
}

// enqueue adds p unless its name is already resolving or the closure is at
// its size limit.
func (w *walk) enqueue(frontier *[]pending, p pending) {
	if w.resolving[p.name] {
		return
	}
	if w.closure.Len()+len(*frontier) >= w.opts.MaxNodes {
		w.opts.Logger.Warn("closure truncated at node limit", "limit", w.opts.MaxNodes, "dropped", p.name)
		return
	}
	w.resolving[p.name] = true
	*frontier = append(*frontier, p)
}

// fetchWave fetches a wave of descriptors concurrently. Results land at
// their pending's index so merge order stays deterministic.
func (w *walk) fetchWave(ctx context.Context, frontier []pending) []fetched {
	results := make([]fetched, len(frontier))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, p := range frontier {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, p pending) {
			defer wg.Done()
			defer func() { <-sem }()
			desc, err := w.source.Descriptor(ctx, p.name, w.repositoryFor(p), w.opts.Refresh)
			results[i] = fetched{pending: p, desc: desc, err: err}
		}(i, p)
	}
	wg.Wait()
	return results
}

// repositoryFor picks the repository to fetch p from. A caller-supplied pin
// wins outright. Otherwise the origin of a live installation beats the
// repository a descriptor declared for its dependency, so an already-active
// package is never satisfied against a document it did not come from.
func (w *walk) repositoryFor(p pending) string {
	if p.caller && p.repository != "" {
		return p.repository
	}
	if w.opts.PreferOrigin != nil {
		if origin, ok := w.opts.PreferOrigin(p.name); ok {
			return origin
		}
	}
	return p.repository
}

// mergeWave folds fetch results into the closure in wave order and returns
// the next frontier. Dependencies carry no per-package bag: reference bags
// apply only to the packages they name, while the request-global bag
// applies to the whole closure.
func (w *walk) mergeWave(ctx context.Context, results []fetched) []pending {
	var next []pending
	for _, res := range results {
		if res.err != nil {
			w.skip(ctx, Failure{Name: res.name, Repository: res.repository, Err: res.err})
			continue
		}

		// Copy before merging options: the source may hand out cached descriptors.
		d := *res.desc
		d.Options = MergeOptions(DefaultOptions(), d.Options, res.bag, w.opts.Global)
		w.closure.Add(&d)

		if res.depth >= w.opts.MaxDepth {
			w.opts.Logger.Warn("dependency depth limit reached", "package", d.Name, "limit", w.opts.MaxDepth)
			continue
		}
		for _, dep := range d.AllDeps() {
			w.enqueue(&next, pending{name: dep.Name, repository: dep.Repository, depth: res.depth + 1})
		}
	}
	return next
}

func (w *walk) skip(ctx context.Context, f Failure) {
	w.failures = append(w.failures, f)
	w.opts.Logger.Warn("resolution skipped entry", "entry", f.String())
	observability.Resolver().OnEntrySkipped(ctx, f.Name, f.Err)
}
