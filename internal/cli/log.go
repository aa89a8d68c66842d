// Package cli implements the gantry command-line interface.
//
// This package provides commands for installing packages into a workspace,
// inspecting install plans, managing repository aliases, serving a package
// repository over HTTP, and running boot manifests. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - install: Resolve package references and install their closures
//   - plan: Compute an install plan and render it as text, DOT, SVG, or PNG
//   - repos: Manage repository aliases across durable and session scopes
//   - serve: Serve a directory as a package repository
//   - boot: Run an ordered boot manifest
//   - cache: Manage the on-disk asset cache
//
// # Logging
//
// Every command inherits --verbose (-v) for debug-level output. The root
// command attaches its logger to the context, so helpers anywhere in a run
// can retrieve it without extra plumbing.
//
// # Example
//
//	import "github.com/gantryhq/gantry/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger builds the logger every command shares. Output carries a
// timestamp with centisecond precision so closely spaced install steps
// stay distinguishable.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
	})
}

// progress measures one operation from construction to done.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done reports msg with the elapsed time, e.g. "Planned 4 package(s) (312ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// loggerKey carries the command logger through context so free functions
// reach it without threading *CLI everywhere.
type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() when the context carries none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
