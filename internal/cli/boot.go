package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantryhq/gantry/pkg/bootstrap"
)

// bootOpts holds the command-line flags for the boot command.
type bootOpts struct {
	repos     []string      // default repositories
	ttl       time.Duration // document staleness window
	workspace string        // workspace directory
}

// bootCommand creates the boot command, which runs an ordered TOML manifest
// of install steps.
func (c *CLI) bootCommand() *cobra.Command {
	var opts bootOpts

	cmd := &cobra.Command{
		Use:   "boot <manifest.toml>",
		Short: "Run an ordered boot manifest",
		Long: `Execute the [[step]] blocks of a boot manifest in order. Each step may
register repository aliases (session scope) and install a list of
dependencies with step-level options. Steps run strictly sequentially;
a failing step is reported and later steps still run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBoot(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.repos, "repo", nil, "default repository URL or alias (repeatable, searched in order)")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "repository document staleness window (0 = default)")
	cmd.Flags().StringVar(&opts.workspace, "workspace", "", "workspace directory (default $GANTRY_WORKSPACE or XDG data dir)")

	return cmd
}

func (c *CLI) runBoot(ctx context.Context, path string, opts *bootOpts) error {
	m, err := bootstrap.Load(path)
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

	runner := &bootstrap.Runner{Engine: eng, Aliases: aliases, Logger: c.Logger}
	prog := newProgress(c.Logger)
	results, err := runner.Run(ctx, m)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Ran %d step(s)", len(results)))

	failed := 0
	for _, sr := range results {
		switch {
		case sr.Err != nil:
			failed++
			printError("step %d: %v", sr.Step, sr.Err)
		case sr.Result == nil:
			printInfo("step %d: registered repositories", sr.Step)
		default:
			printSuccess("step %d: %d installed, %d skipped, %d failed",
				sr.Step, len(sr.Result.Installed), len(sr.Result.Skipped), len(sr.Result.Failed))
			if len(sr.Result.Failed) > 0 || len(sr.Result.Residual) > 0 {
				failed++
			}
		}
	}
	printDetail("Workspace: %s", workspace)

	if failed > 0 {
		return fmt.Errorf("%d step(s) had failures", failed)
	}
	return nil
}
