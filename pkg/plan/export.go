package plan

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gantryhq/gantry/pkg/deps"
)

// ExportOptions configures plan rendering.
type ExportOptions struct {
	// Detailed includes version, repository, and layer data in node labels.
	// When false, only the package name is shown.
	Detailed bool
}

// ToDOT converts a plan to Graphviz DOT format.
//
// Layers become same-rank groups so the drawing reads top-down in install
// order. Hard dependencies render as solid edges and optional dependencies
// as dashed edges, both pointing from the dependent to its dependency.
// Residual packages are highlighted. The resulting DOT string can be
// rendered with [RenderSVG] or [RenderPNG].
func ToDOT(p *Plan, opts ExportOptions) string {
	residual := make(map[string]bool, len(p.Residual))
	for _, name := range p.Residual {
		residual[name] = true
	}

	var buf bytes.Buffer
	buf.WriteString("digraph plan {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, d := range p.Closure.Descriptors() {
		label := fmtLabel(p, d, opts.Detailed)
		attrs := fmtAttrs(d, label, residual[d.Name])
		fmt.Fprintf(&buf, "  %q [%s];\n", d.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for i, layer := range p.Layers {
		fmt.Fprintf(&buf, "  { rank=same;")
		for _, d := range layer {
			fmt.Fprintf(&buf, " %q;", d.Name)
		}
		fmt.Fprintf(&buf, " } // layer %d\n", i)
	}

	buf.WriteString("\n")
	for _, d := range p.Closure.Descriptors() {
		for _, dep := range d.Hard {
			if p.Closure.Has(dep.Name) {
				fmt.Fprintf(&buf, "  %q -> %q;\n", d.Name, dep.Name)
			}
		}
		for _, dep := range d.Optional {
			if p.Closure.Has(dep.Name) {
				fmt.Fprintf(&buf, "  %q -> %q [style=dashed];\n", d.Name, dep.Name)
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p *Plan, d *deps.Descriptor, detailed bool) string {
	if !detailed {
		return d.Name
	}

	parts := []string{d.Label()}
	if d.Version != deps.VersionUnknown {
		parts = append(parts, fmt.Sprintf("v%d", d.Version))
	}
	if d.Repository != "" {
		parts = append(parts, d.Repository)
	}
	if layer := p.Layer(d.Name); layer >= 0 {
		parts = append(parts, fmt.Sprintf("layer: %d", layer))
	}
	return strings.Join(parts, "\n")
}

func fmtAttrs(d *deps.Descriptor, label string, residual bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if residual {
		attrs = append(attrs, "color=red", "fillcolor=mistyrose")
	} else if !d.Options.ShouldBootstrap() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(dot, graphviz.SVG, &buf); err != nil {
		return nil, err
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := render(dot, graphviz.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func render(dot string, format graphviz.Format, buf *bytes.Buffer) error {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if err := gv.Render(ctx, g, format, buf); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg element so the image origin is 0,0
// and explicit pixel dimensions are present.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
