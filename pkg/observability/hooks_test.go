package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

type testResolverHooks struct{ NoopResolverHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
type testInstallHooks struct{ NoopInstallHooks }

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	r := NoopResolverHooks{}
	r.OnResolveStart(ctx, "req-1", 3)
	r.OnResolveComplete(ctx, "req-1", 12, time.Second, nil)
	r.OnEntrySkipped(ctx, "core-lib", nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "descriptor")
	c.OnCacheMiss(ctx, "manifest")
	c.OnCacheSet(ctx, "asset", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "repo.example.com", "/widgets")
	h.OnResponse(ctx, "GET", "repo.example.com", "/widgets", 200, time.Second)
	h.OnError(ctx, "GET", "repo.example.com", "/widgets", nil)

	i := NoopInstallHooks{}
	i.OnInstallStart(ctx, "core-lib")
	i.OnInstallComplete(ctx, "core-lib", true, time.Second, nil)
	i.OnActivate(ctx, "core-lib", nil)
	i.OnAssetSync(ctx, "core-lib", 2, 1, nil)
	i.OnRemoved(ctx, "core-lib")
}

func TestRegistryDefaults(t *testing.T) {
	Reset()

	if _, ok := Resolver().(NoopResolverHooks); !ok {
		t.Errorf("Resolver() = %T, want NoopResolverHooks", Resolver())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}
	if _, ok := Install().(NoopInstallHooks); !ok {
		t.Errorf("Install() = %T, want NoopInstallHooks", Install())
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	t.Cleanup(Reset)

	resolver := &testResolverHooks{}
	cache := &testCacheHooks{}
	web := &testHTTPHooks{}
	install := &testInstallHooks{}

	SetResolverHooks(resolver)
	SetCacheHooks(cache)
	SetHTTPHooks(web)
	SetInstallHooks(install)

	if Resolver() != resolver || Cache() != cache || HTTP() != web || Install() != install {
		t.Error("accessors should return the registered hooks")
	}

	Reset()
	if _, ok := Install().(NoopInstallHooks); !ok {
		t.Error("Reset() should restore the no-op defaults")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	t.Cleanup(Reset)

	custom := &testInstallHooks{}
	SetInstallHooks(custom)
	SetInstallHooks(nil)

	if Install() != custom {
		t.Error("SetInstallHooks(nil) should keep the registered hooks")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Cleanup(Reset)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetInstallHooks(&testInstallHooks{})
		}()
		go func() {
			defer wg.Done()
			Install().OnInstallStart(context.Background(), "core-lib")
		}()
	}
	wg.Wait()
}
