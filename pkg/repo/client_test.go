package repo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gantryhq/gantry/pkg/alias"
	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/httputil"
)

const widgetsDoc = `{
	"packages": [
		{
			"name": "core-lib",
			"descriptor": {
				"version": 3,
				"friendlyName": "Core Library",
				"license": "MIT",
				"dependencies": ["util", "https://other.example.com #render"],
				"optionalDependencies": ["theme"],
				"assets": ["core.bin", {"src": "core.dat"}]
			},
			"content": "core-payload"
		},
		{
			"name": "util",
			"descriptor": {}
		}
	]
}`

// serveDoc returns a test server answering the repository protocol for one
// static document, counting document GETs.
func serveDoc(t *testing.T, doc string, gets *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gets != nil {
			gets.Add(1)
		}
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Document(t *testing.T) {
	srv := serveDoc(t, widgetsDoc, nil)
	c := NewClient(Config{})

	doc, err := c.Document(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("Document() failed: %v", err)
	}
	if doc.Location != srv.URL {
		t.Errorf("Location = %q, want %q", doc.Location, srv.URL)
	}

	names := doc.Names()
	if len(names) != 2 || names[0] != "core-lib" || names[1] != "util" {
		t.Errorf("Names() = %v, want [core-lib util]", names)
	}
	if _, ok := doc.Find("core-lib"); !ok {
		t.Error("Find(core-lib) = false, want true")
	}
}

func TestClient_Descriptor(t *testing.T) {
	srv := serveDoc(t, widgetsDoc, nil)
	c := NewClient(Config{})

	d, err := c.Descriptor(context.Background(), "core-lib", srv.URL, false)
	if err != nil {
		t.Fatalf("Descriptor() failed: %v", err)
	}

	if d.Version != 3 {
		t.Errorf("Version = %d, want 3", d.Version)
	}
	if d.FriendlyName != "Core Library" || d.License != "MIT" {
		t.Errorf("metadata = %q/%q, want Core Library/MIT", d.FriendlyName, d.License)
	}
	if d.Repository != srv.URL {
		t.Errorf("Repository = %q, want requested location", d.Repository)
	}

	// Bare dependency names anchor to the document's location; pinned ones
	// keep their declared repository.
	if len(d.Hard) != 2 {
		t.Fatalf("Hard = %v, want 2 dependencies", d.Hard)
	}
	if d.Hard[0] != (deps.Dep{Name: "util", Repository: srv.URL}) {
		t.Errorf("Hard[0] = %+v, want util anchored to %q", d.Hard[0], srv.URL)
	}
	if d.Hard[1] != (deps.Dep{Name: "render", Repository: "https://other.example.com"}) {
		t.Errorf("Hard[1] = %+v, want declared pin kept", d.Hard[1])
	}
	if len(d.Optional) != 1 || d.Optional[0].Name != "theme" {
		t.Errorf("Optional = %v, want [theme]", d.Optional)
	}

	// Both asset declaration forms normalize to names.
	if len(d.Assets) != 2 || d.Assets[0] != "core.bin" || d.Assets[1] != "core.dat" {
		t.Errorf("Assets = %v, want [core.bin core.dat]", d.Assets)
	}
}

func TestClient_DescriptorVersionDefaultsToUnknown(t *testing.T) {
	srv := serveDoc(t, widgetsDoc, nil)
	c := NewClient(Config{})

	d, err := c.Descriptor(context.Background(), "util", srv.URL, false)
	if err != nil {
		t.Fatalf("Descriptor() failed: %v", err)
	}
	if d.Version != deps.VersionUnknown {
		t.Errorf("Version = %d, want %d for an undeclared version", d.Version, deps.VersionUnknown)
	}
}

func TestClient_DescriptorSearchesDefaults(t *testing.T) {
	empty := serveDoc(t, `{"packages": []}`, nil)
	full := serveDoc(t, widgetsDoc, nil)
	c := NewClient(Config{Defaults: []string{empty.URL, full.URL}})

	d, err := c.Descriptor(context.Background(), "core-lib", "", false)
	if err != nil {
		t.Fatalf("Descriptor() failed: %v", err)
	}
	if d.Repository != full.URL {
		t.Errorf("Repository = %q, want the default that declared it", d.Repository)
	}

	_, err = c.Descriptor(context.Background(), "ghost", "", false)
	if errors.GetCode(err) != errors.ErrCodePackageNotFound {
		t.Errorf("missing package error = %v, want PACKAGE_NOT_FOUND", err)
	}
}

func TestClient_DescriptorWithoutRepositoryOrDefaults(t *testing.T) {
	c := NewClient(Config{})
	_, err := c.Descriptor(context.Background(), "core-lib", "", false)
	if errors.GetCode(err) != errors.ErrCodeResolution {
		t.Errorf("error = %v, want RESOLUTION_FAILED", err)
	}
}

func TestClient_DocumentCachedWithinWindow(t *testing.T) {
	var gets atomic.Int32
	srv := serveDoc(t, widgetsDoc, &gets)
	c := NewClient(Config{})

	cur := time.Unix(1000, 0)
	c.docs.now = func() time.Time { return cur }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Document(ctx, srv.URL, false); err != nil {
			t.Fatalf("Document() failed: %v", err)
		}
	}
	if n := gets.Load(); n != 1 {
		t.Fatalf("document GETs = %d, want 1 within the window", n)
	}

	cur = cur.Add(DefaultTTL + time.Second)
	if _, err := c.Document(ctx, srv.URL, false); err != nil {
		t.Fatalf("Document() failed: %v", err)
	}
	if n := gets.Load(); n != 2 {
		t.Errorf("document GETs = %d, want 2 after the window lapsed", n)
	}
}

func TestClient_RefreshBypassesDocumentCache(t *testing.T) {
	var gets atomic.Int32
	srv := serveDoc(t, widgetsDoc, &gets)
	c := NewClient(Config{})

	ctx := context.Background()
	_, _ = c.Document(ctx, srv.URL, false)
	_, _ = c.Document(ctx, srv.URL, true)
	if n := gets.Load(); n != 2 {
		t.Errorf("document GETs = %d, want 2", n)
	}
}

func TestClient_ConcurrentDocumentFetchesShareOneRequest(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gets.Add(1)
		time.Sleep(30 * time.Millisecond)
		fmt.Fprint(w, widgetsDoc)
	}))
	defer srv.Close()
	c := NewClient(Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Document(context.Background(), srv.URL, false); err != nil {
				t.Errorf("Document() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := gets.Load(); n != 1 {
		t.Errorf("document GETs = %d, want 1 shared fetch", n)
	}
}

func TestClient_AliasCandidatesTriedInOrder(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer dead.Close()
	var gets atomic.Int32
	live := serveDoc(t, widgetsDoc, &gets)

	reg := alias.NewRegistry(alias.NewMemStore(), alias.NewMemStore())
	ctx := context.Background()
	if err := reg.Register(ctx, alias.Session, "widgets", dead.URL, live.URL); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	c := NewClient(Config{Aliases: reg})
	doc, err := c.Document(ctx, "widgets", false)
	if err != nil {
		t.Fatalf("Document() failed: %v", err)
	}
	if doc.Location != "widgets" {
		t.Errorf("Location = %q, want the alias itself", doc.Location)
	}

	// The second lookup by alias must hit the cache, not the candidates.
	if _, err := c.Document(ctx, "widgets", false); err != nil {
		t.Fatalf("Document() failed: %v", err)
	}
	if n := gets.Load(); n != 1 {
		t.Errorf("live candidate GETs = %d, want 1 (alias key cached)", n)
	}
}

func TestClient_DocumentUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer dead.Close()
	c := NewClient(Config{})

	_, err := c.Document(context.Background(), dead.URL, false)
	if errors.GetCode(err) != errors.ErrCodeRepoUnreachable {
		t.Errorf("error = %v, want REPOSITORY_UNREACHABLE", err)
	}
}

func TestClient_AssetManifestKeepsHighestRevision(t *testing.T) {
	var sawQuery atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("assets") && r.URL.Query().Has("latest") {
			sawQuery.Store(true)
		}
		fmt.Fprint(w, `[
			{"fileName": "core.bin", "fileHash": "aaa", "v": 1},
			{"fileName": "core.bin", "fileHash": "bbb", "v": 3},
			{"fileName": "core.dat", "fileHash": "ccc", "v": 2}
		]`)
	}))
	defer srv.Close()
	c := NewClient(Config{})

	m, err := c.AssetManifest(context.Background(), srv.URL, false)
	if err != nil {
		t.Fatalf("AssetManifest() failed: %v", err)
	}
	if !sawQuery.Load() {
		t.Error("manifest request missing assets&latest query")
	}
	if h, _ := m.Hash("core.bin"); h != "bbb" {
		t.Errorf("Hash(core.bin) = %q, want highest-revision hash bbb", h)
	}
	if h, _ := m.Hash("core.dat"); h != "ccc" {
		t.Errorf("Hash(core.dat) = %q, want ccc", h)
	}
	if len(m) != 2 {
		t.Errorf("manifest size = %d, want 2", len(m))
	}
}

func TestClient_AssetFetchAndDiskCache(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/assets/core.bin" {
			http.NotFound(w, r)
			return
		}
		gets.Add(1)
		w.Write([]byte("binary-bytes"))
	}))
	defer srv.Close()

	disk, err := httputil.NewCache(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewCache() failed: %v", err)
	}
	c := NewClient(Config{AssetCache: disk})

	ctx := context.Background()
	data, err := c.Asset(ctx, srv.URL, "core.bin", "hash-1")
	if err != nil {
		t.Fatalf("Asset() failed: %v", err)
	}
	if string(data) != "binary-bytes" {
		t.Errorf("Asset() = %q, want binary-bytes", data)
	}

	// Same content hash: served from disk.
	data, err = c.Asset(ctx, srv.URL, "core.bin", "hash-1")
	if err != nil {
		t.Fatalf("Asset() failed: %v", err)
	}
	if string(data) != "binary-bytes" {
		t.Errorf("cached Asset() = %q, want binary-bytes", data)
	}
	if n := gets.Load(); n != 1 {
		t.Errorf("asset GETs = %d, want 1", n)
	}
}

func TestClient_UploadPostsOneMultipartBatch(t *testing.T) {
	var posts atomic.Int32
	var mu sync.Mutex
	received := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		posts.Add(1)
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, fh := range r.MultipartForm.File["file"] {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			body, _ := io.ReadAll(f)
			f.Close()
			mu.Lock()
			received[fh.Filename] = string(body)
			mu.Unlock()
		}
	}))
	defer srv.Close()
	c := NewClient(Config{})

	err := c.Upload(context.Background(), srv.URL, []Staged{
		{Name: "core.bin", Data: []byte("one")},
		{Name: "core.dat", Data: []byte("two")},
	})
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}

	if n := posts.Load(); n != 1 {
		t.Errorf("POSTs = %d, want a single batched transfer", n)
	}
	if received["core.bin"] != "one" || received["core.dat"] != "two" {
		t.Errorf("received = %v, want both staged assets", received)
	}
}

func TestClient_UploadNothingIsNoop(t *testing.T) {
	c := NewClient(Config{})
	if err := c.Upload(context.Background(), "https://unused.example.com", nil); err != nil {
		t.Errorf("Upload(no files) = %v, want nil", err)
	}
}

func TestClient_Bundle(t *testing.T) {
	srv := serveDoc(t, widgetsDoc, nil)
	c := NewClient(Config{})

	b, err := c.Bundle(context.Background(), "core-lib", srv.URL, false)
	if err != nil {
		t.Fatalf("Bundle() failed: %v", err)
	}
	if b.Content != "core-payload" {
		t.Errorf("Content = %q, want core-payload", b.Content)
	}
	if b.Descriptor.Name != "core-lib" {
		t.Errorf("Descriptor.Name = %q, want core-lib", b.Descriptor.Name)
	}

	if _, err := c.Bundle(context.Background(), "ghost", srv.URL, false); errors.GetCode(err) != errors.ErrCodePackageNotFound {
		t.Errorf("Bundle(ghost) error = %v, want PACKAGE_NOT_FOUND", err)
	}
}

func TestClient_TokenSentAsBearer(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"packages": []}`)
	}))
	defer srv.Close()

	c := NewClient(Config{Token: "secret"})
	if _, err := c.Document(context.Background(), srv.URL, false); err != nil {
		t.Fatalf("Document() failed: %v", err)
	}
	if got.Load() != "Bearer secret" {
		t.Errorf("Authorization = %q, want Bearer secret", got.Load())
	}
}
