// Package install drives packages from named reference to live installation.
//
// The Engine resolves a request into a closure (pkg/deps), orders it
// (pkg/plan), and launches one install task per package. Tasks are shared
// process-wide through a registry: overlapping requests that name the same
// package await a single task, so attach and activate side effects happen at
// most once per name. Each task awaits its closure-local dependencies,
// attaches the package bundle if absent, synchronizes declared assets
// (pkg/assets), and activates the package at most once.
//
// Failures stay contained. A package that cannot resolve, attach, or
// activate is reported in the request's Result; the rest of the closure
// proceeds.
package install
