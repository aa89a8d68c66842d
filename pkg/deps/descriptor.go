package deps

// VersionUnknown marks a descriptor whose document declared no version.
// Versions are informational in Gantry: they are surfaced to users and
// compared for display only, never solved against.
const VersionUnknown = -1

// Descriptor is the resolved identity of one package. Descriptors are
// immutable once resolution places them in a closure: option merging has
// already been applied to the Options field.
type Descriptor struct {
	Name          string   `json:"name"`
	Repository    string   `json:"repository"`            // origin the descriptor was fetched from
	Version       int      `json:"version"`               // VersionUnknown when undeclared
	FriendlyName  string   `json:"friendlyName,omitempty"`
	Description   string   `json:"description,omitempty"`
	Changelog     string   `json:"changelog,omitempty"`
	Documentation string   `json:"documentationLink,omitempty"`
	License       string   `json:"license,omitempty"`
	Hard          []Dep    `json:"dependencies,omitempty"`         // ordered as declared
	Optional      []Dep    `json:"optionalDependencies,omitempty"` // ordered as declared
	Assets        []string `json:"assets,omitempty"`

	// Options is the package's effective install option set, merged from
	// process defaults, document-declared options, the naming reference's
	// bag, and the request-global bag.
	Options InstallOptions `json:"installOptions"`
}

// AllDeps returns hard then optional dependencies in declared order.
func (d *Descriptor) AllDeps() []Dep {
	if len(d.Optional) == 0 {
		return d.Hard
	}
	out := make([]Dep, 0, len(d.Hard)+len(d.Optional))
	out = append(out, d.Hard...)
	out = append(out, d.Optional...)
	return out
}

// DependsOn reports whether d declares name as a hard or optional dependency.
func (d *Descriptor) DependsOn(name string) bool {
	for _, dep := range d.Hard {
		if dep.Name == name {
			return true
		}
	}
	for _, dep := range d.Optional {
		if dep.Name == name {
			return true
		}
	}
	return false
}

// Label returns the display name: the friendly name when declared,
// otherwise the package name.
func (d *Descriptor) Label() string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return d.Name
}
