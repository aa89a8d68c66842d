package httputil

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// ErrExpired is returned by [Cache.Get] when an entry exists but has outlived
// the cache TTL. The stale bytes remain on disk; callers refetch and
// [Cache.Set] the fresh value.
var ErrExpired = errors.New("cache entry expired")

// Cache is a directory of JSON entries keyed by the SHA-256 of the entry
// key. Hashing keeps arbitrary keys (repository URLs, content hashes)
// filesystem-safe and collision-free across namespaces.
//
// Entries expire ttl after their last write, judged by file modification
// time. A ttl of zero disables expiry, which suits content-addressed data
// such as asset bytes keyed by hash.
//
// A Cache value performs no internal locking. Writes land via a temp file
// and rename, so concurrent processes sharing a directory only ever observe
// complete entries.
type Cache struct {
	dir    string
	ttl    time.Duration
	prefix string
}

// NewCache opens the cache directory, creating it if needed. An empty dir
// selects ~/.cache/gantry. A ttl of zero means entries never expire.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".cache", "gantry")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

// TTL returns the staleness window. Zero means entries never expire.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Namespace returns a view of the cache whose keys are transparently
// prefixed, keeping different data sources from colliding:
//
//	assets := cache.Namespace("asset:")
//	bundles := cache.Namespace("bundle:")
//	assets.Set(hash, data) // key becomes "asset:<hash>"
//
// The view shares the parent's directory and TTL. Calls chain, building
// hierarchical key spaces.
func (c *Cache) Namespace(prefix string) *Cache {
	return &Cache{dir: c.dir, ttl: c.ttl, prefix: c.prefix + prefix}
}

// Get loads the entry for key into v, which must be a pointer compatible
// with json.Unmarshal. Three outcomes: (true, nil) on a fresh hit,
// (false, nil) when no entry exists, and (false, ErrExpired) when the entry
// outlived the TTL. Get never refreshes modification times.
func (c *Cache) Get(key string, v any) (bool, error) {
	f, err := os.Open(c.keyPath(c.prefix + key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	if c.ttl > 0 {
		info, err := f.Stat()
		if err != nil {
			return false, err
		}
		if time.Since(info.ModTime()) > c.ttl {
			return false, ErrExpired
		}
	}
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return false, err
	}
	return true, nil
}

// Set stores v under key, replacing any existing entry and restarting its
// TTL.
func (c *Cache) Set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, "put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.keyPath(c.prefix+key))
}

func (c *Cache) keyPath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:]))
}
