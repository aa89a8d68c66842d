// Package plan orders a resolved closure into installation layers.
//
// # Overview
//
// Given a closure from [deps.Resolver], [Order] produces a Plan: packages
// grouped into layers such that every dependency of a package sits in an
// earlier layer. Packages within one layer have no ordering constraints
// between them and may install concurrently.
//
// # Algorithm
//
// Ordering runs to a fixed point. Each pass scans the not-yet-placed
// packages in closure order and extracts every package whose in-closure
// dependencies (hard and optional) are already placed; the pass's extracted
// set becomes the next layer. Ties keep closure order, so plans are
// deterministic for a given closure.
//
// A dependency that is not part of the closure (typically a hard dependency
// whose descriptor fetch failed) never blocks placement: the engine treats
// it as satisfied and best-effort installation proceeds.
//
// When a pass extracts nothing and packages remain, those packages form the
// plan's Residual: a dependency cycle or a constraint that cannot be met.
// The residual is diagnostic, not fatal: the ordered prefix is still a
// valid plan and the engine installs it.
//
// # Export
//
// [ToDOT] renders a plan as Graphviz DOT, with layers as ranks, hard
// dependencies as solid edges, optional dependencies as dashed edges, and
// residual packages highlighted. [RenderSVG] and [RenderPNG] rasterize the
// DOT in-process.
package plan
