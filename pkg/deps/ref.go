package deps

import (
	"fmt"
	"strings"

	"github.com/gantryhq/gantry/pkg/errors"
)

// RefKind discriminates the forms a package reference can take.
type RefKind int

const (
	// RefName names a package with no repository hint.
	RefName RefKind = iota
	// RefNameAt names a package pinned to a specific repository.
	RefNameAt
	// RefSpec is a full reference carrying a per-package option bag.
	RefSpec
	// RefRepo names a whole repository: every package its document declares.
	RefRepo
)

// String returns the kind's name for diagnostics.
func (k RefKind) String() string {
	switch k {
	case RefName:
		return "name"
	case RefNameAt:
		return "name-at-repository"
	case RefSpec:
		return "spec"
	case RefRepo:
		return "repository"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Ref is a normalized package reference: one entry of an install request.
// Refs are ephemeral: they exist only for the duration of a request and
// are never stored in a closure.
type Ref struct {
	Kind       RefKind
	Name       string         // package name (empty for RefRepo)
	Repository string         // repository location or alias (empty for RefName)
	Options    InstallOptions // per-package option bag (RefSpec; zero = unset)
}

// NameRef returns a bare-name reference.
func NameRef(name string) Ref {
	return Ref{Kind: RefName, Name: name}
}

// RepoRef returns a whole-repository reference.
func RepoRef(location string) Ref {
	return Ref{Kind: RefRepo, Repository: location}
}

// String renders the reference in its canonical string form.
func (r Ref) String() string {
	switch r.Kind {
	case RefRepo:
		return r.Repository
	case RefNameAt, RefSpec:
		if r.Repository != "" {
			return r.Repository + " #" + r.Name
		}
		return r.Name
	default:
		return r.Name
	}
}

// Key returns the dedup identity for request entries: the package name, or
// the repository location for whole-repository references.
func (r Ref) Key() string {
	if r.Kind == RefRepo {
		return r.Repository
	}
	return r.Name
}

// ParseRef normalizes a reference string into a Ref.
//
// Accepted forms:
//
//	"core-lib"                                  → RefName
//	"https://repo.example.com #core-lib"        → RefNameAt
//	"https://repo.example.com#core-lib"         → RefNameAt
//	"https://repo.example.com/widgets"          → RefRepo
//	"widgets #core-lib"                         → RefNameAt (aliased repository)
//
// A string is treated as a whole-repository reference when it contains a
// URL scheme and no "#" separator; only http and https schemes are
// accepted. Bare names containing "#" are invalid.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Ref{}, errors.New(errors.ErrCodeInvalidRef, "empty reference")
	}

	if repo, name, ok := splitLocation(s); ok {
		if name == "" {
			return Ref{}, errors.New(errors.ErrCodeInvalidRef, "missing package name in %q", s)
		}
		if repo == "" {
			return Ref{}, errors.New(errors.ErrCodeInvalidRef, "missing repository in %q", s)
		}
		if err := errors.ValidatePackageName(name); err != nil {
			return Ref{}, err
		}
		return Ref{Kind: RefNameAt, Name: name, Repository: repo}, nil
	}

	if strings.Contains(s, "://") {
		if err := errors.ValidateURL(s); err != nil {
			return Ref{}, err
		}
		return Ref{Kind: RefRepo, Repository: s}, nil
	}

	if err := errors.ValidatePackageName(s); err != nil {
		return Ref{}, err
	}
	return Ref{Kind: RefName, Name: s}, nil
}

// Dep is one dependency declaration: a package name with an optional
// repository pin. Declaration order is preserved everywhere Deps appear.
type Dep struct {
	Name       string `json:"name"`
	Repository string `json:"repository,omitempty"`
}

// ParseDep parses a dependency string from a repository document.
// The format matches reference strings: "packageName" or
// "repositoryURL #packageName".
func ParseDep(s string) (Dep, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Dep{}, errors.New(errors.ErrCodeInvalidDescriptor, "empty dependency")
	}

	if repo, name, ok := splitLocation(s); ok {
		if name == "" || repo == "" {
			return Dep{}, errors.New(errors.ErrCodeInvalidDescriptor, "malformed dependency %q", s)
		}
		if err := errors.ValidatePackageName(name); err != nil {
			return Dep{}, err
		}
		return Dep{Name: name, Repository: repo}, nil
	}

	if err := errors.ValidatePackageName(s); err != nil {
		return Dep{}, err
	}
	return Dep{Name: s}, nil
}

// ParseDeps parses a list of dependency strings, preserving order.
func ParseDeps(ss []string) ([]Dep, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]Dep, 0, len(ss))
	for _, s := range ss {
		d, err := ParseDep(s)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// splitLocation splits "repo #name" or "repo#name" into its parts.
// The last "#" wins so repository URLs containing fragments stay intact
// up to the separator.
func splitLocation(s string) (repo, name string, ok bool) {
	i := strings.LastIndex(s, "#")
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
}
