package repo

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gantryhq/gantry/pkg/alias"
	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/httputil"
	"github.com/gantryhq/gantry/pkg/observability"
)

// Config configures a repository client.
type Config struct {
	// Token is the ambient credential attached to every repository request
	// as a bearer Authorization header. Empty means unauthenticated.
	Token string

	// Defaults are the repositories searched, in order, for packages that
	// carry no repository pin.
	Defaults []string

	// Aliases expands short repository names into candidate URL lists.
	// Nil disables alias expansion.
	Aliases *alias.Registry

	// TTL is the staleness window for cached documents and manifests.
	// Zero means DefaultTTL.
	TTL time.Duration

	// AssetCache holds fetched asset bytes keyed by content hash.
	// Nil disables on-disk asset caching.
	AssetCache *httputil.Cache

	Logger *log.Logger
}

// Client fetches repository documents, descriptors, asset manifests, and
// asset bytes, and uploads staged assets. It implements [deps.Source].
//
// All methods are safe for concurrent use.
type Client struct {
	http      *httputil.Client
	aliases   *alias.Registry
	defaults  []string
	docs      *memo
	manifests *memo
	assetDisk *httputil.Cache
	logger    *log.Logger
}

var _ deps.Source = (*Client)(nil)

// NewClient creates a repository client.
func NewClient(cfg Config) *Client {
	var headers map[string]string
	if cfg.Token != "" {
		headers = map[string]string{"Authorization": "Bearer " + cfg.Token}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	var assetDisk *httputil.Cache
	if cfg.AssetCache != nil {
		assetDisk = cfg.AssetCache.Namespace("asset:")
	}
	return &Client{
		http:      httputil.NewClient(headers),
		aliases:   cfg.Aliases,
		defaults:  cfg.Defaults,
		docs:      newMemo("document", cfg.TTL),
		manifests: newMemo("manifest", cfg.TTL),
		assetDisk: assetDisk,
		logger:    logger,
	}
}

// Document returns the repository document at location, from cache when
// fresh. location may be an alias; candidates are tried in order and the
// result is cached under location itself.
func (c *Client) Document(ctx context.Context, location string, refresh bool) (*Document, error) {
	if location == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty repository location")
	}
	v, err := c.docs.get(ctx, location, refresh, func() (any, error) {
		return c.fetchDocument(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Document), nil
}

// Catalog lists the package names a repository document declares, in
// document order.
func (c *Client) Catalog(ctx context.Context, repository string, refresh bool) ([]string, error) {
	doc, err := c.Document(ctx, repository, refresh)
	if err != nil {
		return nil, err
	}
	return doc.Names(), nil
}

// Descriptor returns the descriptor for name. An empty repository searches
// the client's default repositories in order. The returned descriptor is
// freshly built per call; callers own it.
func (c *Client) Descriptor(ctx context.Context, name, repository string, refresh bool) (*deps.Descriptor, error) {
	if err := errors.ValidatePackageName(name); err != nil {
		return nil, err
	}

	locations := c.defaults
	if repository != "" {
		locations = []string{repository}
	}
	if len(locations) == 0 {
		return nil, errors.New(errors.ErrCodeResolution,
			"package %q has no repository and no default repositories are configured", name)
	}

	var lastErr error
	for _, loc := range locations {
		doc, err := c.Document(ctx, loc, refresh)
		if err != nil {
			lastErr = err
			continue
		}
		if node, ok := doc.Find(name); ok {
			return node.descriptor(loc)
		}
	}
	if lastErr != nil {
		return nil, errors.Wrap(errors.ErrCodePackageNotFound, lastErr,
			"package %q not found in %d reachable repositories", name, len(locations))
	}
	return nil, errors.New(errors.ErrCodePackageNotFound,
		"package %q not declared by %d repositories", name, len(locations))
}

// Bundle returns name's installable content from repository: the resolved
// descriptor plus the executable payload.
func (c *Client) Bundle(ctx context.Context, name, repository string, refresh bool) (*Bundle, error) {
	doc, err := c.Document(ctx, repository, refresh)
	if err != nil {
		return nil, err
	}
	node, ok := doc.Find(name)
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "package %q not declared by %q", name, repository)
	}
	desc, err := node.descriptor(repository)
	if err != nil {
		return nil, err
	}
	return &Bundle{Descriptor: desc, Content: node.Content}, nil
}

// AssetManifest returns the asset manifest for location, collapsed to the
// highest revision per file, from cache when fresh.
func (c *Client) AssetManifest(ctx context.Context, location string, refresh bool) (Manifest, error) {
	if location == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty repository location")
	}
	v, err := c.manifests.get(ctx, location, refresh, func() (any, error) {
		return c.fetchManifest(ctx, location)
	})
	if err != nil {
		return nil, err
	}
	return v.(Manifest), nil
}

// Asset fetches one asset's bytes from location. hash is the expected
// content hash from the manifest; when the client carries an asset cache,
// known hashes are served from disk without a network round trip.
func (c *Client) Asset(ctx context.Context, location, name, hash string) ([]byte, error) {
	if err := errors.ValidateAssetName(name); err != nil {
		return nil, err
	}
	if c.assetDisk != nil && hash != "" {
		var data []byte
		if ok, _ := c.assetDisk.Get(hash, &data); ok {
			observability.Cache().OnCacheHit(ctx, "asset")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "asset")
	}

	cands := c.candidates(ctx, location)
	var lastErr error
	for _, cand := range cands {
		var data []byte
		err := c.observe(ctx, http.MethodGet, assetURL(cand, name), func(u string) error {
			var err error
			data, err = c.http.Get(ctx, u)
			return err
		})
		if err != nil {
			lastErr = err
			continue
		}
		if c.assetDisk != nil && hash != "" {
			if err := c.assetDisk.Set(hash, data); err != nil {
				c.logger.Warn("asset cache write failed", "asset", name, "err", err)
			}
		}
		return data, nil
	}
	return nil, errors.Wrap(errors.ErrCodeTransfer, lastErr,
		"asset %q unavailable from %q (%d candidates)", name, location, len(cands))
}

// Staged is one asset body ready for upload.
type Staged struct {
	Name string
	Data []byte
}

// Upload transfers staged assets to location as a single multipart POST of
// "file" fields. Candidates are tried in order; the first accepting the
// batch wins.
func (c *Client) Upload(ctx context.Context, location string, files []Staged) error {
	if len(files) == 0 {
		return nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("file", f.Name)
		if err != nil {
			return errors.Wrap(errors.ErrCodeTransfer, err, "staging %q", f.Name)
		}
		if _, err := part.Write(f.Data); err != nil {
			return errors.Wrap(errors.ErrCodeTransfer, err, "staging %q", f.Name)
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeTransfer, err, "finalizing upload body")
	}

	cands := c.candidates(ctx, location)
	var lastErr error
	for _, cand := range cands {
		err := c.observe(ctx, http.MethodPost, cand, func(u string) error {
			return c.http.Post(ctx, u, mw.FormDataContentType(), bytes.NewReader(buf.Bytes()))
		})
		if err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return errors.Wrap(errors.ErrCodeTransfer, lastErr,
		"upload of %d assets to %q failed (%d candidates)", len(files), location, len(cands))
}

// PurgeCache drops every cached document and manifest.
func (c *Client) PurgeCache() {
	c.docs.purge()
	c.manifests.purge()
}

func (c *Client) fetchDocument(ctx context.Context, location string) (*Document, error) {
	cands := c.candidates(ctx, location)
	var lastErr error
	for _, cand := range cands {
		var doc Document
		err := c.observe(ctx, http.MethodGet, cand, func(u string) error {
			return httputil.RetryWithBackoff(ctx, func() error {
				doc = Document{}
				return c.http.GetJSON(ctx, u, &doc)
			})
		})
		if err != nil {
			lastErr = err
			c.logger.Warn("repository candidate failed", "location", location, "candidate", cand, "err", err)
			continue
		}
		doc.Location = location
		return &doc, nil
	}
	return nil, errors.Wrap(errors.ErrCodeRepoUnreachable, lastErr,
		"repository %q unreachable (%d candidates)", location, len(cands))
}

func (c *Client) fetchManifest(ctx context.Context, location string) (any, error) {
	cands := c.candidates(ctx, location)
	var lastErr error
	for _, cand := range cands {
		var entries []ManifestEntry
		err := c.observe(ctx, http.MethodGet, manifestURL(cand), func(u string) error {
			return httputil.RetryWithBackoff(ctx, func() error {
				entries = nil
				return c.http.GetJSON(ctx, u, &entries)
			})
		})
		if err != nil {
			lastErr = err
			continue
		}
		return CollapseManifest(entries), nil
	}
	return nil, errors.Wrap(errors.ErrCodeRepoUnreachable, lastErr,
		"asset manifest for %q unreachable (%d candidates)", location, len(cands))
}

// candidates expands location through the alias registry. When expansion
// itself fails the literal location is used, so a broken alias store
// degrades to direct fetches instead of failing resolution outright.
func (c *Client) candidates(ctx context.Context, location string) []string {
	if c.aliases == nil {
		return []string{location}
	}
	cands, err := c.aliases.Candidates(ctx, location)
	if err != nil {
		c.logger.Warn("alias expansion failed", "location", location, "err", err)
		return []string{location}
	}
	return cands
}

// observe runs fn against rawURL with HTTP hooks fired around it.
func (c *Client) observe(ctx context.Context, method, rawURL string, fn func(string) error) error {
	host, path := splitURL(rawURL)
	observability.HTTP().OnRequest(ctx, method, host, path)
	start := time.Now()
	if err := fn(rawURL); err != nil {
		observability.HTTP().OnError(ctx, method, host, path, err)
		return err
	}
	observability.HTTP().OnResponse(ctx, method, host, path, http.StatusOK, time.Since(start))
	return nil
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, ""
	}
	return u.Host, u.Path
}

func manifestURL(base string) string {
	if strings.Contains(base, "?") {
		return base + "&assets&latest"
	}
	return base + "?assets&latest"
}

func assetURL(base, name string) string {
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, "/") + "/assets/" + url.PathEscape(name)
}
