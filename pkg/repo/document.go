package repo

import (
	"encoding/json"

	"github.com/gantryhq/gantry/pkg/deps"
	"github.com/gantryhq/gantry/pkg/errors"
)

// Document is one repository's inventory: the package nodes its location
// serves, in document order.
type Document struct {
	// Location is the requested location the document was fetched under
	// (the alias, when one was used), not the candidate URL that served it.
	Location string `json:"-"`

	Packages []PackageNode `json:"packages"`
}

// Names returns the document's package names in document order.
func (d *Document) Names() []string {
	names := make([]string, len(d.Packages))
	for i, node := range d.Packages {
		names[i] = node.Name
	}
	return names
}

// Find returns the package node declaring name.
func (d *Document) Find(name string) (*PackageNode, bool) {
	for i := range d.Packages {
		if d.Packages[i].Name == name {
			return &d.Packages[i], true
		}
	}
	return nil, false
}

// PackageNode is one package's entry in a repository document: its embedded
// descriptor plus the executable content handed to activation.
type PackageNode struct {
	Name       string        `json:"name"`
	Descriptor DescriptorDoc `json:"descriptor"`
	Content    string        `json:"content,omitempty"`
}

// DescriptorDoc is the descriptor JSON embedded in a package node.
// Dependency strings are either "name" (same repository) or
// "repositoryURL #name" (explicit repository).
type DescriptorDoc struct {
	Version       int                  `json:"version"`
	FriendlyName  string               `json:"friendlyName,omitempty"`
	Description   string               `json:"description,omitempty"`
	Changelog     string               `json:"changelog,omitempty"`
	Documentation string               `json:"documentationLink,omitempty"`
	License       string               `json:"license,omitempty"`
	Dependencies  []string             `json:"dependencies,omitempty"`
	Optional      []string             `json:"optionalDependencies,omitempty"`
	Assets        []AssetRef           `json:"assets,omitempty"`
	Options       *deps.InstallOptions `json:"installOptions,omitempty"`
}

// UnmarshalJSON defaults Version to [deps.VersionUnknown] when the document
// omits it, keeping 0 distinguishable from "undeclared".
func (d *DescriptorDoc) UnmarshalJSON(data []byte) error {
	type plain DescriptorDoc
	doc := plain{Version: deps.VersionUnknown}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*d = DescriptorDoc(doc)
	return nil
}

// AssetRef accepts both asset declaration forms: a bare "name" string or an
// object carrying a src field.
type AssetRef struct {
	Src string `json:"src"`
}

func (a *AssetRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.Src)
	}
	type plain AssetRef
	return json.Unmarshal(data, (*plain)(a))
}

func (a AssetRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Src)
}

// descriptor converts node into the resolver's model, anchored at location.
// Bare dependency names resolve against the same location the document was
// requested under.
func (n *PackageNode) descriptor(location string) (*deps.Descriptor, error) {
	if err := errors.ValidatePackageName(n.Name); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDescriptor, err, "package node has an invalid name")
	}

	hard, err := anchorDeps(n.Descriptor.Dependencies, location)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDescriptor, err, "package %q: bad dependency list", n.Name)
	}
	optional, err := anchorDeps(n.Descriptor.Optional, location)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDescriptor, err, "package %q: bad optional dependency list", n.Name)
	}

	var assets []string
	for _, a := range n.Descriptor.Assets {
		if a.Src == "" {
			continue
		}
		if err := errors.ValidateAssetName(a.Src); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDescriptor, err, "package %q: bad asset", n.Name)
		}
		assets = append(assets, a.Src)
	}

	d := &deps.Descriptor{
		Name:          n.Name,
		Repository:    location,
		Version:       n.Descriptor.Version,
		FriendlyName:  n.Descriptor.FriendlyName,
		Description:   n.Descriptor.Description,
		Changelog:     n.Descriptor.Changelog,
		Documentation: n.Descriptor.Documentation,
		License:       n.Descriptor.License,
		Hard:          hard,
		Optional:      optional,
		Assets:        assets,
	}
	if n.Descriptor.Options != nil {
		if err := n.Descriptor.Options.Validate(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDescriptor, err, "package %q: bad install options", n.Name)
		}
		d.Options = *n.Descriptor.Options
	}
	return d, nil
}

func anchorDeps(raw []string, location string) ([]deps.Dep, error) {
	list, err := deps.ParseDeps(raw)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Repository == "" {
			list[i].Repository = location
		}
	}
	return list, nil
}

// Bundle is one package's installable content: the resolved descriptor plus
// the executable payload extracted from its repository document.
type Bundle struct {
	Descriptor *deps.Descriptor
	Content    string
}
