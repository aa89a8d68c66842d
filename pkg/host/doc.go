// Package host defines the boundary between the install engine and the
// environment packages are installed into.
//
// A [Host] holds attached packages in a caller-visible order, tracks
// per-package activation markers, and runs activation through an injected
// [Activator]. The engine never interprets package content: it hands the
// content and a [Capabilities] object across this boundary and observes
// only success or failure.
//
// Two implementations ship with the engine. [MemHost] keeps everything in
// memory and counts attach and activation calls, which makes it the test
// double and the dry-run target. [DirHost] is a filesystem workspace: one
// JSON file per attached package, marker files for activation, an asset
// directory that satisfies the sync destination contract, and an optional
// fsnotify watcher that reports external package removals.
package host
