package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantryhq/gantry/pkg/repohttp"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	dir  string // repository directory
	addr string // listen address
}

// serveCommand creates the serve command, which exposes a directory as a
// package repository over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{dir: ".", addr: ":8321"}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a directory as a package repository",
		Long: `Serve the repository protocol from a directory holding document.json and
an assets/ subdirectory. Clients fetch the document at GET /, the asset
manifest at GET /?assets, asset bytes at GET /assets/{name}, and upload
staged assets with multipart POST /.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", opts.dir, "repository directory")
	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, opts *serveOpts) error {
	srv, err := repohttp.NewServer(opts.dir, c.Logger)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              opts.addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	printInfo("Serving %s on %s", srv.Root(), opts.addr)
	printDetail("document: GET /   manifest: GET /?assets   assets: GET /assets/{name}")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	printInfo("Server stopped")
	return ctx.Err()
}
