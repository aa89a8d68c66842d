// Package pkg provides the core libraries for Gantry package installation.
//
// # Overview
//
// Gantry drives packages from named reference to live installation: it
// resolves references against repositories, orders the resulting closure,
// and installs every package at most once across concurrent requests. The
// pkg directory is organized into four main areas:
//
//  1. [deps] / [plan] - Domain logic (reference parsing, closure resolution, ordering)
//  2. [install] - Orchestration (task registry, lifecycle events, removal)
//  3. [repo] / [repohttp] / [assets] / [host] - Repository protocol and host boundary
//  4. [alias] / [bootstrap] - Operator surfaces (alias registry, boot manifests)
//
// # Architecture
//
// The typical data flow through Gantry:
//
//	References ("core-lib", "https://repo.example.com #core-lib", ...)
//	         ↓
//	    [deps] package (resolve the closure)
//	         ↓
//	    [plan] package (layered install order)
//	         ↓
//	    [install] package (attach → sync assets → activate)
//	         ↓
//	    Host workspace (live packages + assets)
//
// # Quick Start
//
// Install a package and everything it depends on:
//
//	import (
//	    "context"
//	    "github.com/gantryhq/gantry/pkg/deps"
//	    "github.com/gantryhq/gantry/pkg/host"
//	    "github.com/gantryhq/gantry/pkg/install"
//	    "github.com/gantryhq/gantry/pkg/repo"
//	)
//
//	// 1. Open a repository client
//	client := repo.NewClient(repo.Config{
//	    Defaults: []string{"https://repo.example.com/widgets"},
//	})
//
//	// 2. Open the hosting workspace
//	h, _ := host.NewDirHost("/srv/gantry/workspace", nil)
//
//	// 3. Build the engine
//	eng := install.New(install.Config{Source: client, Host: h, Assets: h})
//
//	// 4. Require the packages
//	ref, _ := deps.ParseRef("telemetry-core")
//	res, _ := eng.Require(context.Background(), []deps.Ref{ref}, install.RequestOptions{})
//	fmt.Printf("installed %d, skipped %d\n", len(res.Installed), len(res.Skipped))
//
// # Main Packages
//
// ## Domain Logic
//
// [deps] - Reference parsing (bare name, repository pin, ref spec, whole
// repository), the descriptor model with hard and optional dependencies,
// install-option merging, and the closure resolver with per-entry
// best-effort error handling.
//
// [plan] - Layered install order over a closure. Fixed-point extraction
// peels packages whose dependencies are already ordered; whatever remains
// is residual (cyclic, or anchored to residual packages) and is reported
// with diagnostics. Also exports DOT, SVG, and PNG renderings.
//
// ## Orchestration
//
// [install] - The engine. A cross-request task registry guarantees each
// package installs at most once; tasks are futures that every interested
// request awaits. Packages attach, sync assets, then activate with
// capabilities for reentrant requires, install events, and external
// fetches. Removal notifications un-stick names so later requests
// reinstall them.
//
// ## Repository Protocol
//
// [repo] - HTTP client for repository documents, descriptors, asset
// manifests, and asset transfer, with TTL memo caching and singleflight
// collapse of concurrent fetches.
//
// [repohttp] - The serving counterpart: a chi router over a directory
// holding a repository document and its asset files.
//
// [assets] - Manifest diffing and staged batch transfer: fetch what the
// destination is missing, stage, then commit all-or-nothing per package.
//
// [host] - The hosting boundary the engine installs into. MemHost for
// tests, DirHost for a real workspace directory with change watching.
//
// ## Operator Surfaces
//
// [alias] - Repository alias registry with durable and session scopes over
// pluggable stores (file, memory, Redis, MongoDB).
//
// [bootstrap] - TOML boot manifests: ordered steps of alias registrations
// and installs, run best-effort with per-step results.
//
// ## Infrastructure
//
// [errors] - Coded errors (RESOLUTION_FAILED, UNORDERABLE, TRANSFER_FAILED,
// ...) with cause chaining and user-facing messages.
//
// [httputil] - Shared HTTP client with retry and backoff, status checking,
// and an on-disk content cache.
//
// [observability] - Hook interfaces for resolver, cache, HTTP, and install
// lifecycle events, with no-op defaults and a process-global registry.
//
// [buildinfo] - Version metadata stamped at build time.
//
// # Common Workflows
//
// Plan without installing:
//
//	r := deps.NewResolver(client)
//	resolution, _ := r.Resolve(ctx, refs, deps.Options{})
//	p := plan.Order(resolution.Closure)
//	fmt.Print(plan.ToDOT(p, plan.ExportOptions{}))
//
// React to a package coming live:
//
//	eng.OnInstalled("telemetry-core", func() {
//	    log.Info("telemetry-core is live")
//	})
//
// Serve a repository directory:
//
//	srv, _ := repohttp.NewServer("./repository", logger)
//	http.ListenAndServe(":8321", srv.Handler())
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...            # All tests
//	go test ./pkg/install/...    # Specific package
//	go test -run Example         # Examples only
//
// [deps]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/deps
// [plan]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/plan
// [install]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/install
// [repo]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/repo
// [repohttp]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/repohttp
// [assets]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/assets
// [host]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/host
// [alias]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/alias
// [bootstrap]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/bootstrap
// [errors]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/gantryhq/gantry/pkg/buildinfo
package pkg
