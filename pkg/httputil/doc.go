// Package httputil provides HTTP infrastructure for repository clients.
//
// # Overview
//
// This package provides the plumbing shared by everything in Gantry that
// talks to a package repository over HTTP:
//
//   - [Client]: shared HTTP client with default headers, status mapping,
//     and retry-aware request helpers
//   - [Cache]: file-based response caching for content that outlives a
//     process (asset bytes keyed by content hash)
//   - [Retry]: automatic retry with exponential backoff
//
// # Status mapping
//
// Responses are mapped onto sentinel errors so callers can branch without
// inspecting status codes: 404 becomes [ErrNotFound], 5xx and transport
// failures become [RetryableError]-wrapped [ErrNetwork], and 429 becomes a
// rate-limit error carrying the Retry-After hint.
//
// # Caching
//
// [Cache] stores entries in the filesystem (~/.cache/gantry/ by default)
// with a TTL based on file modification time. A TTL of 0 means entries
// never expire, which suits content-addressed data such as asset bytes
// keyed by hash. Short-lived descriptor caching is handled in memory by
// the repository client, not here.
//
// # Retry
//
// [Retry] reruns an operation for transient failures only: errors must be
// wrapped in [RetryableError] to trigger another attempt. The delay doubles
// after each failure.
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return client.GetJSON(ctx, url, &doc)
//	})
package httputil
