// Package assets reconciles a package's declared assets between its source
// repository and a destination.
//
// A sync pass diffs the content-hash manifests of both sides, fetches only
// the assets whose hashes differ or are missing, and hands the whole batch
// to the destination in one transfer. When nothing needs staging, the
// transfer step does not run at all.
package assets

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/observability"
	"github.com/gantryhq/gantry/pkg/repo"
)

// DefaultWorkers bounds concurrent asset fetches during staging.
const DefaultWorkers = 4

// Source provides asset manifests and bytes for repository locations.
// The repository client satisfies it.
type Source interface {
	AssetManifest(ctx context.Context, location string, refresh bool) (repo.Manifest, error)
	Asset(ctx context.Context, location, name, hash string) ([]byte, error)
}

// Destination is where synced assets land: a host workspace or a remote
// repository accepting multipart uploads.
type Destination interface {
	Manifest(ctx context.Context) (repo.Manifest, error)
	Store(ctx context.Context, files []repo.Staged) error
}

// Options configures one sync pass.
type Options struct {
	Refresh bool // bypass the source manifest cache
	Workers int  // concurrent asset fetches (default: 4)
	Logger  *log.Logger
}

// Result reports what a sync pass did, in declared-asset order.
type Result struct {
	Transferred []string
	Skipped     []string
}

// Sync reconciles desc's declared assets between src and dst. A failure
// anywhere aborts this package's batch without storing anything; assets
// synced by earlier passes stay put.
func Sync(ctx context.Context, src Source, dst Destination, desc *deps.Descriptor, opts Options) (*Result, error) {
	if len(desc.Assets) == 0 {
		return &Result{}, nil
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	res, err := sync(ctx, src, dst, desc, opts)
	if err != nil {
		observability.Install().OnAssetSync(ctx, desc.Name, 0, 0, err)
		return nil, err
	}
	observability.Install().OnAssetSync(ctx, desc.Name, len(res.Transferred), len(res.Skipped), nil)
	return res, nil
}

func sync(ctx context.Context, src Source, dst Destination, desc *deps.Descriptor, opts Options) (*Result, error) {
	srcMan, err := src.AssetManifest(ctx, desc.Repository, opts.Refresh)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransfer, err, "source manifest for %q", desc.Name)
	}
	dstMan, err := dst.Manifest(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransfer, err, "destination manifest for %q", desc.Name)
	}

	res := &Result{}
	var stage []string
	for _, name := range desc.Assets {
		srcHash, inSrc := srcMan.Hash(name)
		dstHash, inDst := dstMan.Hash(name)
		if inSrc && inDst && srcHash == dstHash {
			res.Skipped = append(res.Skipped, name)
			continue
		}
		stage = append(stage, name)
	}
	if len(stage) == 0 {
		return res, nil
	}

	staged := make([]repo.Staged, len(stage))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, name := range stage {
		g.Go(func() error {
			hash, _ := srcMan.Hash(name)
			data, err := src.Asset(gctx, desc.Repository, name, hash)
			if err != nil {
				return errors.Wrap(errors.ErrCodeTransfer, err, "fetching asset %q of %q", name, desc.Name)
			}
			staged[i] = repo.Staged{Name: name, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := dst.Store(ctx, staged); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTransfer, err, "storing %d assets of %q", len(staged), desc.Name)
	}
	opts.Logger.Debug("assets synced", "package", desc.Name, "transferred", len(stage), "skipped", len(res.Skipped))
	res.Transferred = stage
	return res, nil
}

// RemoteDestination uploads staged assets to a repository location through
// the client's multipart transfer.
type RemoteDestination struct {
	Client   *repo.Client
	Location string
}

var _ Destination = (*RemoteDestination)(nil)

func (d *RemoteDestination) Manifest(ctx context.Context) (repo.Manifest, error) {
	return d.Client.AssetManifest(ctx, d.Location, false)
}

func (d *RemoteDestination) Store(ctx context.Context, files []repo.Staged) error {
	return d.Client.Upload(ctx, d.Location, files)
}
