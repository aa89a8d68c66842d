package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/install"
	"github.com/gantryhq/gantry/pkg/observability"
)

// installOpts holds the command-line flags for the install command.
type installOpts struct {
	repos       []string      // default repositories, searched in order
	method      string        // placement method
	target      string        // placement target or anchor
	noBootstrap bool          // attach without activating
	refresh     bool          // bypass cached repository documents
	ttl         time.Duration // document staleness window
	progress    bool          // live progress view
	workspace   string        // workspace directory
}

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var opts installOpts

	cmd := &cobra.Command{
		Use:   "install <ref>...",
		Short: "Install packages and their dependency closures",
		Long: `Resolve package references, order their dependency closures, and install
everything into the workspace. Packages already present are skipped.

References take several forms:

  core-lib                              package from the default repositories
  https://repo.example.com #core-lib    package pinned to a repository
  widgets #core-lib                     package pinned to a repository alias
  https://repo.example.com/extras       every package the repository declares`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInstall(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.repos, "repo", nil, "default repository URL or alias (repeatable, searched in order)")
	cmd.Flags().StringVar(&opts.method, "method", "", "placement method: append, prepend, before, after")
	cmd.Flags().StringVar(&opts.target, "target", "", "placement target (anchor package for before/after)")
	cmd.Flags().BoolVar(&opts.noBootstrap, "no-bootstrap", false, "attach packages without activating them")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached repository documents")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "repository document staleness window (0 = default)")
	cmd.Flags().BoolVar(&opts.progress, "progress", false, "show a live per-package progress view")
	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "workspace directory (default $GANTRY_WORKSPACE or XDG data dir)")

	return cmd
}

// installOptions converts the flag values into the request-global option bag.
// Flags override whatever the descriptors declare.
func (o *installOpts) installOptions() (deps.InstallOptions, error) {
	out := deps.InstallOptions{
		Method: deps.Method(o.method),
		Target: o.target,
	}
	if o.noBootstrap {
		out.Bootstrap = deps.Bool(false)
	}
	if err := out.Validate(); err != nil {
		return deps.InstallOptions{}, err
	}
	return out, nil
}

// parseRefs normalizes the positional arguments into references.
func parseRefs(args []string) ([]deps.Ref, error) {
	refs := make([]deps.Ref, 0, len(args))
	for _, a := range args {
		r, err := deps.ParseRef(a)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, nil
}

// resolveWorkspace picks the workspace directory from the flag or defaults.
func resolveWorkspace(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return defaultWorkspace()
}

func (c *CLI) runInstall(ctx context.Context, args []string, opts *installOpts) error {
	refs, err := parseRefs(args)
	if err != nil {
		return err
	}
	global, err := opts.installOptions()
	if err != nil {
		return err
	}
	workspace, err := resolveWorkspace(opts.workspace)
	if err != nil {
		return err
	}

	aliases, err := openAliases()
	if err != nil {
		return err
	}
	client := c.newRepoClient(aliases, opts.repos, opts.ttl)
	eng, _, err := c.newEngine(client, workspace)
	if err != nil {
		return err
	}

	reqOpts := install.RequestOptions{Refresh: opts.refresh, Options: global}

	var result *install.Result
	if opts.progress {
		result, err = runInstallTUI(ctx, eng, refs, reqOpts)
	} else {
		prog := newProgress(c.Logger)
		sp := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %d reference(s)...", len(refs)))
		sp.Start()
		observability.SetInstallHooks(spinnerHooks{sp: sp})
		result, err = eng.Require(ctx, refs, reqOpts)
		observability.SetInstallHooks(observability.NoopInstallHooks{})
		sp.Stop()
		if err == nil {
			prog.done(fmt.Sprintf("Processed %d package(s)", len(result.Planned)))
		}
	}
	if err != nil {
		return err
	}

	printInstallResult(result, workspace)
	if n := len(result.Failed) + len(result.Residual); n > 0 {
		return fmt.Errorf("%d package(s) not installed", n)
	}
	return nil
}

// spinnerHooks surfaces the package currently installing on the spinner line.
type spinnerHooks struct {
	observability.NoopInstallHooks
	sp *Spinner
}

func (h spinnerHooks) OnInstallStart(_ context.Context, name string) {
	h.sp.Update("Installing " + name + "...")
}

// printInstallResult renders the per-request summary.
func printInstallResult(res *install.Result, workspace string) {
	if len(res.Installed) > 0 {
		printSuccess("Installed %s", strings.Join(res.Installed, ", "))
	}
	if len(res.Skipped) > 0 {
		printInfo("Already present: %s", strings.Join(res.Skipped, ", "))
	}
	if len(res.Residual) > 0 {
		printWarning("Unorderable: %s", strings.Join(res.Residual, ", "))
	}
	for _, f := range res.Failures {
		printError("%s", f.String())
	}
	printDetail("Workspace: %s", workspace)
}
