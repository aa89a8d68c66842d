// Package observability provides hooks for metrics, tracing, and logging.
//
// The engine and its transport layers emit events through small hook
// interfaces with no-op defaults, so instrumentation is optional and the
// library stays free of backend dependencies. A binary registers
// implementations at startup (before any engine work) and the libraries
// call the registered set:
//
//	func main() {
//	    observability.SetResolverHooks(&myResolverHooks{})
//	    observability.SetInstallHooks(&myInstallHooks{})
//	    // ... run application
//	}
//
//	observability.Resolver().OnResolveStart(ctx, requestID, len(entries))
//	// ... resolve ...
//	observability.Resolver().OnResolveComplete(ctx, requestID, len(closure), duration, err)
//
// Hooks run on the emitting goroutine. Implementations must be safe for
// concurrent use and should return quickly.
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Hook Interfaces
// =============================================================================

// ResolverHooks receives events from dependency resolution.
type ResolverHooks interface {
	// OnResolveStart records the beginning of a resolution request.
	OnResolveStart(ctx context.Context, requestID string, entryCount int)

	// OnResolveComplete records the end of a resolution request.
	OnResolveComplete(ctx context.Context, requestID string, packageCount int, duration time.Duration, err error)

	// OnEntrySkipped records a request entry dropped after a fetch failure.
	OnEntrySkipped(ctx context.Context, name string, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// InstallHooks receives events from package installation tasks.
type InstallHooks interface {
	// OnInstallStart records the start of a package's install task.
	OnInstallStart(ctx context.Context, name string)

	// OnInstallComplete records the settlement of a package's install task.
	// newlyInstalled is false when the package was already present.
	OnInstallComplete(ctx context.Context, name string, newlyInstalled bool, duration time.Duration, err error)

	// OnActivate records a package activation attempt.
	OnActivate(ctx context.Context, name string, err error)

	// OnAssetSync records the outcome of an asset synchronization pass.
	OnAssetSync(ctx context.Context, name string, transferred, skipped int, err error)

	// OnRemoved records an externally observed package removal.
	OnRemoved(ctx context.Context, name string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopResolverHooks is a no-op implementation of ResolverHooks.
type NoopResolverHooks struct{}

func (NoopResolverHooks) OnResolveStart(context.Context, string, int) {}
func (NoopResolverHooks) OnResolveComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopResolverHooks) OnEntrySkipped(context.Context, string, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// NoopInstallHooks is a no-op implementation of InstallHooks.
type NoopInstallHooks struct{}

func (NoopInstallHooks) OnInstallStart(context.Context, string) {}
func (NoopInstallHooks) OnInstallComplete(context.Context, string, bool, time.Duration, error) {
}
func (NoopInstallHooks) OnActivate(context.Context, string, error)            {}
func (NoopInstallHooks) OnAssetSync(context.Context, string, int, int, error) {}
func (NoopInstallHooks) OnRemoved(context.Context, string)                    {}

// =============================================================================
// Registry
// =============================================================================

// slot holds one registered hook family behind its own lock. Reads vastly
// outnumber writes, so each family locks independently.
type slot[T any] struct {
	mu sync.RWMutex
	v  T
}

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.v
}

func (s *slot[T]) set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.v = v
}

var (
	resolverHooks = &slot[ResolverHooks]{v: NoopResolverHooks{}}
	cacheHooks    = &slot[CacheHooks]{v: NoopCacheHooks{}}
	httpHooks     = &slot[HTTPHooks]{v: NoopHTTPHooks{}}
	installHooks  = &slot[InstallHooks]{v: NoopInstallHooks{}}
)

// SetResolverHooks registers custom resolver hooks. Nil keeps the current set.
func SetResolverHooks(h ResolverHooks) {
	if h != nil {
		resolverHooks.set(h)
	}
}

// SetCacheHooks registers custom cache hooks. Nil keeps the current set.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheHooks.set(h)
	}
}

// SetHTTPHooks registers custom HTTP hooks. Nil keeps the current set.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpHooks.set(h)
	}
}

// SetInstallHooks registers custom install hooks. Nil keeps the current set.
func SetInstallHooks(h InstallHooks) {
	if h != nil {
		installHooks.set(h)
	}
}

// Resolver returns the registered resolver hooks.
func Resolver() ResolverHooks { return resolverHooks.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheHooks.get() }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return httpHooks.get() }

// Install returns the registered install hooks.
func Install() InstallHooks { return installHooks.get() }

// Reset restores every hook family to its no-op default.
// This is primarily useful for testing.
func Reset() {
	resolverHooks.set(NoopResolverHooks{})
	cacheHooks.set(NoopCacheHooks{})
	httpHooks.set(NoopHTTPHooks{})
	installHooks.set(NoopInstallHooks{})
}
