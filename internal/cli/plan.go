package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/plan"
)

const (
	formatText = "text"
	formatDOT  = "dot"
	formatSVG  = "svg"
	formatPNG  = "png"
)

// validPlanFormats is the set of supported plan output formats.
var validPlanFormats = map[string]bool{formatText: true, formatDOT: true, formatSVG: true, formatPNG: true}

// planOpts holds the command-line flags for the plan command.
type planOpts struct {
	format   string        // output format
	output   string        // output file path
	repos    []string      // default repositories
	refresh  bool          // bypass cached repository documents
	ttl      time.Duration // document staleness window
	detailed bool          // include version, repository, and layer data
}

// planCommand creates the plan command for inspecting install plans without
// touching the workspace.
func (c *CLI) planCommand() *cobra.Command {
	opts := planOpts{format: formatText}

	cmd := &cobra.Command{
		Use:   "plan <ref>...",
		Short: "Compute an install plan without installing",
		Long: `Resolve package references and print the layered install plan. Layer 0
holds packages with no dependencies inside the closure; every later layer
depends only on earlier ones. Unorderable packages (dependency cycles) are
reported as residual.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validPlanFormats[opts.format] {
				return fmt.Errorf("invalid format: %s (must be 'text', 'dot', 'svg', or 'png')", opts.format)
			}
			return c.runPlan(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: text (default), dot, svg, png")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout; plan.svg/plan.png for images)")
	cmd.Flags().StringArrayVar(&opts.repos, "repo", nil, "default repository URL or alias (repeatable, searched in order)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached repository documents")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", 0, "repository document staleness window (0 = default)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include version, repository, and layer data")

	return cmd
}

func (c *CLI) runPlan(ctx context.Context, args []string, opts *planOpts) error {
	refs, err := parseRefs(args)
	if err != nil {
		return err
	}

	aliases, err := openAliases()
	if err != nil {
		return err
	}
	client := c.newRepoClient(aliases, opts.repos, opts.ttl)
	resolver := deps.NewResolver(client)

	prog := newProgress(c.Logger)
	res, err := resolver.Resolve(ctx, refs, deps.Options{Refresh: opts.refresh, Logger: c.Logger})
	if err != nil {
		return err
	}
	p := plan.Order(res.Closure)
	prog.done(fmt.Sprintf("Planned %d package(s)", len(p.Ordered)))

	for _, f := range res.Failures {
		printWarning("%s", f.String())
	}

	if err := c.renderPlan(p, opts); err != nil {
		return err
	}

	printPlanStats(len(p.Ordered), len(p.Layers), len(p.Residual))
	if opts.format == formatText && len(p.Ordered) > 0 {
		printNextStep("Install this plan", "gantry install "+strings.Join(args, " "))
	}
	return nil
}

// renderPlan writes the plan in the requested format. Text and DOT default
// to stdout; image formats default to plan.svg / plan.png.
func (c *CLI) renderPlan(p *plan.Plan, opts *planOpts) error {
	export := plan.ExportOptions{Detailed: opts.detailed}

	switch opts.format {
	case formatText:
		return writePlanOutput([]byte(formatPlanText(p, opts.detailed)), opts.output)
	case formatDOT:
		return writePlanOutput([]byte(plan.ToDOT(p, export)), opts.output)
	case formatSVG, formatPNG:
		dot := plan.ToDOT(p, export)
		var data []byte
		var err error
		if opts.format == formatSVG {
			data, err = plan.RenderSVG(dot)
		} else {
			data, err = plan.RenderPNG(dot)
		}
		if err != nil {
			return err
		}
		path := opts.output
		if path == "" {
			path = "plan." + opts.format
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		printFile(path)
		return nil
	}
	return nil
}

// writePlanOutput sends data to stdout or to the given file.
func writePlanOutput(data []byte, path string) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printFile(path)
	return nil
}

// formatPlanText renders the plan as a layered listing.
func formatPlanText(p *plan.Plan, detailed bool) string {
	var b strings.Builder
	for i, layer := range p.Layers {
		fmt.Fprintf(&b, "layer %d:\n", i)
		for _, d := range layer {
			if detailed {
				fmt.Fprintf(&b, "  %s\n", describePlanNode(d))
			} else {
				fmt.Fprintf(&b, "  %s\n", d.Name)
			}
		}
	}
	if len(p.Residual) > 0 {
		b.WriteString("residual:\n")
		for _, name := range p.Residual {
			fmt.Fprintf(&b, "  %s\n", name)
		}
	}
	return b.String()
}

func describePlanNode(d *deps.Descriptor) string {
	parts := []string{d.Name}
	if d.Version != deps.VersionUnknown {
		parts = append(parts, fmt.Sprintf("v%d", d.Version))
	}
	if d.Repository != "" {
		parts = append(parts, d.Repository)
	}
	if n := len(d.Hard) + len(d.Optional); n > 0 {
		parts = append(parts, fmt.Sprintf("%d dep(s)", n))
	}
	return strings.Join(parts, "  ")
}
