// Package bootstrap loads and runs boot manifests: a declarative, ordered
// list of install steps executed through the engine at startup.
//
// A manifest is TOML:
//
//	[[step]]
//	dependencies = ["core-lib", "widgets #theme"]
//
//	[step.repositories]
//	widgets = "https://widgets.example.com/v1"
//
//	[step.options]
//	appendMethod = "prepend"
//
// Steps run strictly in order. Repository registrations are session-scoped
// and happen before the step's dependencies are required, so later steps
// can reference aliases registered by earlier ones.
package bootstrap

import (
	"context"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/gantryhq/gantry/pkg/alias"
	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/errors"
	"github.com/gantryhq/gantry/pkg/install"
)

// Step is one manifest entry: repositories to register, then dependencies
// to require with the step's option bag.
type Step struct {
	Dependencies []string            `toml:"dependencies"`
	Options      deps.InstallOptions `toml:"options"`
	Repositories map[string]string   `toml:"repositories"`
}

// Refs parses the step's dependency strings.
func (s Step) Refs() ([]deps.Ref, error) {
	out := make([]deps.Ref, 0, len(s.Dependencies))
	for _, raw := range s.Dependencies {
		r, err := deps.ParseRef(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Manifest is an ordered list of boot steps.
type Manifest struct {
	Steps []Step `toml:"step"`
}

// Parse decodes and validates a TOML manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parsing boot manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "reading boot manifest %q", path)
	}
	return Parse(data)
}

// Validate checks that every step does something and that its references
// and options are well-formed.
func (m *Manifest) Validate() error {
	if len(m.Steps) == 0 {
		return errors.New(errors.ErrCodeInvalidManifest, "manifest has no steps")
	}
	for i, s := range m.Steps {
		if len(s.Dependencies) == 0 && len(s.Repositories) == 0 {
			return errors.New(errors.ErrCodeInvalidManifest, "step %d is empty", i+1)
		}
		for _, ref := range s.Dependencies {
			if _, err := deps.ParseRef(ref); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidManifest, err, "step %d", i+1)
			}
		}
		if err := s.Options.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidManifest, err, "step %d", i+1)
		}
	}
	return nil
}

// StepResult reports one executed step.
type StepResult struct {
	Step   int             // 1-based manifest position
	Result *install.Result // nil when the step never reached the engine
	Err    error
}

// Runner executes manifests against an engine and an alias registry.
type Runner struct {
	Engine  *install.Engine
	Aliases *alias.Registry
	Logger  *log.Logger
}

// Run executes m's steps in order. A step's failure is recorded and the
// next step still runs; Run itself errors only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, m *Manifest) ([]StepResult, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	results := make([]StepResult, 0, len(m.Steps))
	for i, step := range m.Steps {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		res := StepResult{Step: i + 1}
		res.Result, res.Err = r.runStep(ctx, step, logger.With("step", i+1))
		results = append(results, res)
		if res.Err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			logger.Warn("boot step failed", "step", i+1, "err", res.Err)
		}
	}
	return results, nil
}

func (r *Runner) runStep(ctx context.Context, s Step, logger *log.Logger) (*install.Result, error) {
	if len(s.Repositories) > 0 && r.Aliases == nil {
		return nil, errors.New(errors.ErrCodeInvalidManifest,
			"step registers repositories but no alias registry is configured")
	}
	for name, target := range s.Repositories {
		if err := r.Aliases.Register(ctx, alias.Session, name, target); err != nil {
			return nil, err
		}
		logger.Debug("registered repository", "alias", name, "target", target)
	}

	if len(s.Dependencies) == 0 {
		return nil, nil
	}
	refs, err := s.Refs()
	if err != nil {
		return nil, err
	}
	return r.Engine.Require(ctx, refs, install.RequestOptions{Options: s.Options})
}
