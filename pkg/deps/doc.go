// Package deps provides the package model and dependency resolution for
// Gantry.
//
// # Overview
//
// Installation starts from references: short strings or structured values
// naming the packages a caller wants. This package turns a list of
// references into a closure: the deduplicated set of descriptors for the
// requested packages and everything they transitively depend on.
//
// # References
//
// A [Ref] is a normalized request entry. The four forms:
//
//   - name only: "core-lib" (resolved against the default repositories)
//   - name at repository: "https://repo.example.com/widgets #core-lib"
//   - spec: a [Ref] literal carrying per-package install options
//   - whole repository: "https://repo.example.com/widgets" (every package
//     the repository document declares)
//
// [ParseRef] normalizes the string forms; structured callers build [Ref]
// values directly.
//
// # Descriptors
//
// A [Descriptor] is the resolved identity of one package: its name, origin
// repository, declared hard and optional dependencies, assets, and install
// options. Dependency declarations inside repository documents use the same
// string format as references ("name" or "repoURL #name") and are parsed
// with [ParseDep].
//
// # Resolution
//
// [Resolver.Resolve] builds the closure:
//
//	res := deps.NewResolver(source)
//	out, err := res.Resolve(ctx, entries, deps.Options{})
//
// The resolver walks breadth-first from the request entries, fetching
// descriptors through a [Source], deduplicating by package name, and
// tolerating per-entry failures: an unreachable repository or a missing
// package skips that entry (recorded in [Resolution.Failures]) and
// resolution continues.
//
// # Install options
//
// Each package's effective [InstallOptions] are merged from four layers,
// most specific last: process defaults, descriptor-declared options, the
// option bag of the reference that named the package, and the
// request-global bag.
package deps
