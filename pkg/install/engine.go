package install

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gantryhq/gantry/pkg/assets"
	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/host"
	"github.com/gantryhq/gantry/pkg/httputil"
	"github.com/gantryhq/gantry/pkg/observability"
	"github.com/gantryhq/gantry/pkg/plan"
	"github.com/gantryhq/gantry/pkg/repo"
)

// Source supplies everything the engine reads from repositories: descriptors
// and catalogs for resolution, bundles for attachment, and asset content for
// synchronization. *repo.Client implements Source.
type Source interface {
	deps.Source
	assets.Source
	Bundle(ctx context.Context, name, repository string, refresh bool) (*repo.Bundle, error)
}

// Config assembles an Engine.
type Config struct {
	Source Source    // package source (required)
	Host   host.Host // hosting environment (required)

	// Assets is the destination for package asset synchronization.
	// When nil, no assets are transferred.
	Assets assets.Destination

	// External serves the fetch capability handed to activating packages.
	// When nil, the capability reports UNSUPPORTED.
	External *httputil.Client

	// AssetWorkers caps concurrent asset fetches per package.
	AssetWorkers int

	Logger *log.Logger
}

// Engine drives packages from named reference to live installation. It owns
// the cross-request task registry and the lifecycle listener tables; one
// Engine serves a whole process.
type Engine struct {
	source   Source
	host     host.Host
	assets   assets.Destination
	external *httputil.Client
	resolver *deps.Resolver
	registry *Registry
	events   *events
	workers  int
	logger   *log.Logger
}

// New creates an Engine from cfg.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		source:   cfg.Source,
		host:     cfg.Host,
		assets:   cfg.Assets,
		external: cfg.External,
		resolver: deps.NewResolver(cfg.Source),
		registry: NewRegistry(),
		events:   newEvents(),
		workers:  cfg.AssetWorkers,
		logger:   logger,
	}
}

// RequestOptions configures one top-level request.
type RequestOptions struct {
	RequestID string              // correlation ID (generated when empty)
	Refresh   bool                // bypass repository caches
	Options   deps.InstallOptions // request-global option bag
	MaxDepth  int                 // maximum dependency depth (default: deps.DefaultMaxDepth)
	MaxNodes  int                 // maximum packages per closure (default: deps.DefaultMaxNodes)
}

// Result reports the outcome of one request. A request errors as a whole
// only on context cancellation; per-package problems land in Failed and
// Failures while the rest of the closure proceeds.
type Result struct {
	RequestID string
	Planned   []string       // install order computed for this request's closure
	Installed []string       // newly installed during this request
	Skipped   []string       // already present before their task ran
	Failed    []string       // tasks that settled with an error
	Residual  []string       // unorderable closure remainder, never launched
	Failures  []deps.Failure // resolution skips and task errors
	Duration  time.Duration
}

// Require resolves refs, orders the closure, and drives every package in it
// to completion. It blocks until each task from this request settles and the
// request's all-installed callbacks have run.
//
// Cancelling ctx stops resolution and abandons the wait, but tasks already
// launched run to completion: overlapping requests share their outcome.
func (e *Engine) Require(ctx context.Context, refs []deps.Ref, opts RequestOptions) (*Result, error) {
	start := time.Now()
	if opts.RequestID == "" {
		opts.RequestID = uuid.NewString()[:8]
	}
	logger := e.logger.With("request", opts.RequestID)

	res, err := e.resolver.Resolve(ctx, refs, deps.Options{
		RequestID:    opts.RequestID,
		Refresh:      opts.Refresh,
		Global:       opts.Options,
		MaxDepth:     opts.MaxDepth,
		MaxNodes:     opts.MaxNodes,
		PreferOrigin: e.origin,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	p := plan.Order(res.Closure)
	if rerr := p.ResidualErr(); rerr != nil {
		logger.Warn("closure not fully orderable", "err", rerr)
	}

	result := &Result{
		RequestID: opts.RequestID,
		Planned:   p.Names(),
		Residual:  p.Residual,
		Failures:  res.Failures,
	}

	req := &requestScope{}

	// Tasks detach from the request context: once launched, an install runs
	// to completion even if this caller gives up, because other requests may
	// be awaiting the same task.
	taskCtx := context.WithoutCancel(ctx)

	tasks := make([]*Task, len(p.Ordered))
	for i, d := range p.Ordered {
		t, claimed := e.registry.claim(d.Name)
		tasks[i] = t
		if claimed {
			go e.run(taskCtx, t, d, res.Closure, req, opts.Refresh)
		}
	}

	for i, t := range tasks {
		newly, terr := t.Await(ctx)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d := p.Ordered[i]
		switch {
		case terr != nil:
			result.Failed = append(result.Failed, d.Name)
			result.Failures = append(result.Failures, deps.Failure{Name: d.Name, Repository: d.Repository, Err: terr})
		case newly:
			result.Installed = append(result.Installed, d.Name)
		default:
			result.Skipped = append(result.Skipped, d.Name)
		}
	}

	req.finish()

	result.Duration = time.Since(start)
	logger.Info("request complete",
		"installed", len(result.Installed),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
		"duration", result.Duration)
	return result, nil
}

// run executes one claimed task and settles it.
func (e *Engine) run(ctx context.Context, t *Task, d *deps.Descriptor, c *deps.Closure, req *requestScope, refresh bool) {
	start := time.Now()
	observability.Install().OnInstallStart(ctx, d.Name)
	newly, err := e.installOne(ctx, d, c, req, refresh)
	observability.Install().OnInstallComplete(ctx, d.Name, newly, time.Since(start), err)
	if err != nil {
		e.logger.Warn("install failed", "package", d.Name, "err", err)
	}
	t.settle(newly, err)
}

// installOne drives one package from reference to live: await closure-local
// dependencies, attach if absent, sync declared assets, activate at most
// once.
func (e *Engine) installOne(ctx context.Context, d *deps.Descriptor, c *deps.Closure, req *requestScope, refresh bool) (bool, error) {
	e.awaitDeps(ctx, d, c)

	newly := false
	if _, present := e.host.Lookup(d.Name); !present {
		bundle, err := e.source.Bundle(ctx, d.Name, d.Repository, refresh)
		if err != nil {
			return false, errors.Wrap(errors.ErrCodeInstall, err, "fetching bundle for %q", d.Name)
		}
		if err := e.host.Attach(ctx, bundle, d.Options); err != nil {
			return false, err
		}
		newly = true

		if err := e.syncAssets(ctx, d, refresh); err != nil {
			return true, err
		}
	}

	if d.Options.ShouldBootstrap() && !e.host.Activated(d.Name) {
		err := e.host.Activate(ctx, d.Name, e.capabilities(d, req))
		observability.Install().OnActivate(ctx, d.Name, err)
		if err != nil {
			return newly, err
		}
	}

	if newly {
		e.events.fireInstalled(d.Name)
	}
	return newly, nil
}

// awaitDeps blocks until every closure-local dependency task of d settles.
// A dependency's failure does not stop the dependent: installation is
// best-effort all the way down, so the failure is logged and the dependent
// proceeds.
func (e *Engine) awaitDeps(ctx context.Context, d *deps.Descriptor, c *deps.Closure) {
	for _, dep := range d.AllDeps() {
		if dep.Name == d.Name || !c.Has(dep.Name) {
			continue
		}
		t, ok := e.registry.Lookup(dep.Name)
		if !ok {
			continue
		}
		if _, err := t.Await(ctx); err != nil {
			e.logger.Warn("dependency did not install cleanly",
				"package", d.Name, "dependency", dep.Name, "err", err)
		}
	}
}

func (e *Engine) syncAssets(ctx context.Context, d *deps.Descriptor, refresh bool) error {
	if e.assets == nil || len(d.Assets) == 0 {
		return nil
	}
	_, err := assets.Sync(ctx, e.source, e.assets, d, assets.Options{
		Refresh: refresh,
		Workers: e.workers,
		Logger:  e.logger,
	})
	return err
}

// origin reports the repository a live package was installed from, letting
// resolution prefer it over a descriptor-declared pin.
func (e *Engine) origin(name string) (string, bool) {
	if inst, ok := e.host.Lookup(name); ok && inst.Repository != "" {
		return inst.Repository, true
	}
	return "", false
}

// live reports whether name is attached and activated.
func (e *Engine) live(name string) bool {
	if _, present := e.host.Lookup(name); !present {
		return false
	}
	return e.host.Activated(name)
}

// capabilities builds the boundary object handed to d's activation. Every
// closure goes through the engine's public entry points, so activating
// packages can require further packages and subscribe to lifecycle events
// while their own task is still in flight.
func (e *Engine) capabilities(d *deps.Descriptor, req *requestScope) host.Capabilities {
	meta := *d
	return host.Capabilities{
		Metadata: func() *deps.Descriptor {
			m := meta
			return &m
		},
		OnInstalled:    e.OnInstalled,
		OnAllInstalled: req.register,
		OnRemoved:      e.events.onRemoved,
		Require: func(ctx context.Context, refs ...string) error {
			return e.requireRefs(ctx, refs)
		},
		Fetch: e.fetchExternal,
	}
}

// requireRefs parses and installs refs as a fresh top-level request.
func (e *Engine) requireRefs(ctx context.Context, refs []string) error {
	entries := make([]deps.Ref, 0, len(refs))
	for _, s := range refs {
		r, err := deps.ParseRef(s)
		if err != nil {
			return err
		}
		entries = append(entries, r)
	}
	res, err := e.Require(ctx, entries, RequestOptions{})
	if err != nil {
		return err
	}
	if len(res.Failed) > 0 {
		return errors.New(errors.ErrCodeInstall,
			"%d package(s) failed: %s", len(res.Failed), strings.Join(res.Failed, ", "))
	}
	return nil
}

func (e *Engine) fetchExternal(ctx context.Context, url string) ([]byte, error) {
	if e.external == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "external fetch is not configured")
	}
	return e.external.Get(ctx, url)
}

// OnInstalled registers fn to run once name's install completes. When name
// is already live, fn runs immediately.
func (e *Engine) OnInstalled(name string, fn func()) {
	e.events.onInstalled(name, fn, func() bool { return e.live(name) })
}

// OnRemoved registers a one-shot listener for name's removal.
func (e *Engine) OnRemoved(name string, fn func()) {
	e.events.onRemoved(name, fn)
}

// SubscribeRemovals registers fn to run on every removal notification, after
// the removed package's own listeners.
func (e *Engine) SubscribeRemovals(fn func(name string)) {
	e.events.subscribe(fn)
}

// NotifyRemoved reacts to an externally observed removal of name: the
// package's one-shot removal listeners fire, then every global subscriber,
// and the name's task registration is dropped so a later request can install
// it afresh. Wire [host.DirHost.WatchRemovals] here.
func (e *Engine) NotifyRemoved(ctx context.Context, name string) {
	e.registry.Forget(name)
	e.events.fireRemoved(name)
	observability.Install().OnRemoved(ctx, name)
	e.logger.Info("package removed", "package", name)
}

// Remove detaches name from the host and fires removal notifications.
func (e *Engine) Remove(ctx context.Context, name string) error {
	if err := e.host.Detach(ctx, name); err != nil {
		return err
	}
	e.NotifyRemoved(ctx, name)
	return nil
}
