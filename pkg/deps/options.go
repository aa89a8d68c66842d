package deps

import "github.com/gantryhq/gantry/pkg/errors"

// Method selects where an attached package lands relative to its target.
type Method string

const (
	MethodAppend  Method = "append"  // end of the target container
	MethodPrepend Method = "prepend" // start of the target container
	MethodBefore  Method = "before"  // immediately before the target package
	MethodAfter   Method = "after"   // immediately after the target package
)

// Valid reports whether m is one of the recognized placement methods.
func (m Method) Valid() bool {
	switch m {
	case MethodAppend, MethodPrepend, MethodBefore, MethodAfter:
		return true
	}
	return false
}

// InstallOptions is one layer of a package's install option set. The zero
// value means "nothing set at this layer": empty fields are transparent
// when layers are merged.
type InstallOptions struct {
	// Method is the placement strategy. With MethodBefore/MethodAfter the
	// Target names the anchor package; with MethodAppend/MethodPrepend it
	// names the destination container.
	Method Method `json:"appendMethod,omitempty" toml:"appendMethod,omitempty"`

	// Target is the placement target (container or anchor, per Method).
	Target string `json:"appendTarget,omitempty" toml:"appendTarget,omitempty"`

	// Bootstrap controls whether the package is activated after attach.
	// A nil pointer means unset; use [Bool] to set it explicitly.
	Bootstrap *bool `json:"bootstrap,omitempty" toml:"bootstrap,omitempty"`
}

// Bool returns a pointer to v, for setting InstallOptions.Bootstrap.
func Bool(v bool) *bool { return &v }

// DefaultOptions returns the process-default option layer: append placement
// into the host's default container, activation on.
func DefaultOptions() InstallOptions {
	return InstallOptions{Method: MethodAppend, Bootstrap: Bool(true)}
}

// IsZero reports whether no field is set at this layer.
func (o InstallOptions) IsZero() bool {
	return o.Method == "" && o.Target == "" && o.Bootstrap == nil
}

// Merge overlays more-specific options onto o. Fields set in overlay win;
// unset overlay fields keep o's values.
func (o InstallOptions) Merge(overlay InstallOptions) InstallOptions {
	out := o
	if overlay.Method != "" {
		out.Method = overlay.Method
	}
	if overlay.Target != "" {
		out.Target = overlay.Target
	}
	if overlay.Bootstrap != nil {
		out.Bootstrap = overlay.Bootstrap
	}
	return out
}

// MergeOptions folds option layers left to right, later layers winning.
// The canonical chain, least to most specific: process defaults,
// descriptor-declared, per-package reference bag, request-global bag.
func MergeOptions(layers ...InstallOptions) InstallOptions {
	var out InstallOptions
	for _, l := range layers {
		out = out.Merge(l)
	}
	return out
}

// ShouldBootstrap reports the effective activation decision.
// Unset defaults to true.
func (o InstallOptions) ShouldBootstrap() bool {
	return o.Bootstrap == nil || *o.Bootstrap
}

// Validate checks that the layer's fields, where set, are well-formed.
func (o InstallOptions) Validate() error {
	if o.Method != "" && !o.Method.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "unknown placement method %q", o.Method)
	}
	if (o.Method == MethodBefore || o.Method == MethodAfter) && o.Target == "" {
		return errors.New(errors.ErrCodeInvalidInput, "placement method %q requires a target", o.Method)
	}
	return nil
}
