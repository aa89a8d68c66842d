package host

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/repo"
)

const (
	packagesDir = "packages"
	assetsDir   = "assets"
	orderFile   = "order.json"
	markerExt   = ".activated"
)

// DirHost is a Host rooted in a filesystem directory:
//
//	<root>/packages/<name>.json       attached bundle
//	<root>/packages/<name>.activated  activation marker
//	<root>/assets/<file>              synced assets
//	<root>/order.json                 attachment order
//
// The assets directory satisfies the asset sync destination contract via
// [DirHost.Manifest] and [DirHost.Store].
type DirHost struct {
	root   string
	logger *log.Logger

	mu    sync.Mutex
	order []string

	// Activator, when set, runs package content at activation.
	Activator Activator
}

var _ Host = (*DirHost)(nil)

// NewDirHost opens or creates a host workspace at root.
func NewDirHost(root string, logger *log.Logger) (*DirHost, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	for _, dir := range []string{root, filepath.Join(root, packagesDir), filepath.Join(root, assetsDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	h := &DirHost{root: root, logger: logger}
	if err := h.loadOrder(); err != nil {
		return nil, err
	}
	return h, nil
}

// Root returns the workspace directory.
func (h *DirHost) Root() string { return h.root }

// AssetDir returns the directory synced assets land in.
func (h *DirHost) AssetDir() string { return filepath.Join(h.root, assetsDir) }

func (h *DirHost) packagePath(name string) string {
	return filepath.Join(h.root, packagesDir, name+".json")
}

func (h *DirHost) markerPath(name string) string {
	return filepath.Join(h.root, packagesDir, name+markerExt)
}

// loadOrder reads order.json and reconciles it against the package files
// actually present: stale names drop out, unlisted packages append in
// lexical order.
func (h *DirHost) loadOrder() error {
	var order []string
	data, err := os.ReadFile(filepath.Join(h.root, orderFile))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(data, &order); err != nil {
			h.logger.Warn("order file unreadable, rebuilding", "err", err)
			order = nil
		}
	}

	present := map[string]bool{}
	entries, err := os.ReadDir(filepath.Join(h.root, packagesDir))
	if err != nil {
		return err
	}
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), ".json"); ok {
			present[name] = true
		}
	}

	h.order = h.order[:0]
	for _, name := range order {
		if present[name] {
			h.order = append(h.order, name)
			delete(present, name)
		}
	}
	rest := make([]string, 0, len(present))
	for name := range present {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	h.order = append(h.order, rest...)
	return nil
}

func (h *DirHost) saveOrder() error {
	data, err := json.MarshalIndent(h.order, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(h.root, orderFile), data, 0o644)
}

func (h *DirHost) readBundle(name string) (*repo.Bundle, error) {
	data, err := os.ReadFile(h.packagePath(name))
	if err != nil {
		return nil, err
	}
	var b struct {
		Descriptor *deps.Descriptor `json:"descriptor"`
		Content    string           `json:"content,omitempty"`
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &repo.Bundle{Descriptor: b.Descriptor, Content: b.Content}, nil
}

func (h *DirHost) Lookup(name string) (*Installed, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, err := h.readBundle(name)
	if err != nil {
		return nil, false
	}
	return &Installed{
		Name:       name,
		Repository: b.Descriptor.Repository,
		Version:    b.Descriptor.Version,
		Activated:  h.hasMarker(name),
	}, true
}

func (h *DirHost) List() []*Installed {
	h.mu.Lock()
	order := slices.Clone(h.order)
	h.mu.Unlock()

	out := make([]*Installed, 0, len(order))
	for _, name := range order {
		if inst, ok := h.Lookup(name); ok {
			out = append(out, inst)
		}
	}
	return out
}

func (h *DirHost) Attach(_ context.Context, bundle *repo.Bundle, opts deps.InstallOptions) error {
	name := bundle.Descriptor.Name
	if err := errors.ValidatePackageName(name); err != nil {
		return errors.Wrap(errors.ErrCodeAttach, err, "attaching %q", name)
	}

	payload := struct {
		Descriptor *deps.Descriptor `json:"descriptor"`
		Content    string           `json:"content,omitempty"`
	}{Descriptor: bundle.Descriptor, Content: bundle.Content}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeAttach, err, "encoding %q", name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := os.WriteFile(h.packagePath(name), data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeAttach, err, "writing %q", name)
	}
	h.order = place(h.order, name, opts)
	if err := h.saveOrder(); err != nil {
		return errors.Wrap(errors.ErrCodeAttach, err, "recording order for %q", name)
	}
	return nil
}

func (h *DirHost) Detach(_ context.Context, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := os.Remove(h.packagePath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(h.markerPath(name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	if i := slices.Index(h.order, name); i >= 0 {
		h.order = slices.Delete(h.order, i, i+1)
		return h.saveOrder()
	}
	return nil
}

func (h *DirHost) hasMarker(name string) bool {
	_, err := os.Stat(h.markerPath(name))
	return err == nil
}

func (h *DirHost) Activated(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hasMarker(name)
}

func (h *DirHost) Activate(ctx context.Context, name string, caps Capabilities) error {
	h.mu.Lock()
	if h.hasMarker(name) {
		h.mu.Unlock()
		return nil
	}
	b, err := h.readBundle(name)
	h.mu.Unlock()
	if err != nil {
		return errors.Wrap(errors.ErrCodeActivation, err, "package %q is not attached", name)
	}

	if h.Activator != nil {
		if err := h.Activator(ctx, b.Content, caps); err != nil {
			return errors.Wrap(errors.ErrCodeActivation, err, "activating %q", name)
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := os.WriteFile(h.markerPath(name), nil, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeActivation, err, "marking %q", name)
	}
	return nil
}

// Manifest hashes every file in the asset directory. It is the destination
// side of an asset sync diff.
func (h *DirHost) Manifest(_ context.Context) (repo.Manifest, error) {
	entries, err := os.ReadDir(h.AssetDir())
	if err != nil {
		return nil, err
	}
	m := make(repo.Manifest, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(h.AssetDir(), e.Name()))
		if err != nil {
			return nil, err
		}
		m[e.Name()] = repo.ManifestEntry{FileName: e.Name(), FileHash: repo.HashBytes(data)}
	}
	return m, nil
}

// Store writes staged assets into the asset directory. It is the
// destination side of an asset sync transfer.
func (h *DirHost) Store(_ context.Context, files []repo.Staged) error {
	for _, f := range files {
		if err := errors.ValidateAssetName(f.Name); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(h.AssetDir(), f.Name), f.Data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// WatchRemovals reports packages whose files disappear from the workspace,
// whether through Detach or outside interference, until ctx is cancelled.
// notify runs on the watcher goroutine.
func (h *DirHost) WatchRemovals(ctx context.Context, notify func(name string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Join(h.root, packagesDir)); err != nil {
		w.Close()
		return err
	}

	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				name, isPkg := strings.CutSuffix(filepath.Base(ev.Name), ".json")
				if !isPkg {
					continue
				}
				h.logger.Debug("package removed from workspace", "package", name)
				notify(name)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				h.logger.Warn("removal watcher error", "err", err)
			}
		}
	}()
	return nil
}
