// Package identity computes a capsule's identity: the (name, version)
// pair the App-Cache Manager and Path Assembler key everything on.
package identity

import (
	"strings"

	"github.com/banksean/capsule/internal/capsuleerr"
	"github.com/banksean/capsule/internal/dependency"
)

// Identity is a resolved capsule name and optional version.
type Identity struct {
	Name    string
	Version string
}

// AppID renders the identity the way the App-Cache Manager names a
// per-app directory: "name" alone, or "name-version" when a version is
// present.
func (id Identity) AppID() string {
	if id.Version == "" {
		return id.Name
	}
	return id.Name + "-" + id.Version
}

// Artifact is the (group, artifact, version) triple an Application
// attribute can name when it points at a resolvable artifact rather
// than an in-archive class.
type Artifact struct {
	Group    string
	Artifact string
	Version  string
}

// Inputs carries every source consulted by the priority order in
// §3: an explicit Application-Name/Version pair, an Application
// artifact coordinate, the archive's embedded dependency manifest, and
// the application main class as a last resort.
type Inputs struct {
	ApplicationName    string
	ApplicationVersion string

	Application *Artifact

	Embedded dependency.EmbeddedManifest

	ApplicationClass string

	// IsPureWrapper is true when this capsule only launches a
	// non-capsule target: an Application naming a local file that is
	// not itself a capsule, with no Application-Class, Application-Name
	// or embedded dependency identity of its own; such capsules don't
	// require an identity.
	IsPureWrapper bool
}

// Resolve computes identity in priority order: explicit
// Application-Name(+Version); else Application artifact coordinates;
// else the embedded dependency manifest's group/artifact/version; else
// the application main class. Raises BadSpec if none apply and the
// capsule is not a pure wrapper.
func Resolve(in Inputs) (Identity, error) {
	if in.ApplicationName != "" {
		return Identity{Name: in.ApplicationName, Version: in.ApplicationVersion}, nil
	}
	if in.Application != nil && in.Application.Artifact != "" {
		return Identity{Name: in.Application.Artifact, Version: in.Application.Version}, nil
	}
	if in.Embedded.HasIdentity() {
		return Identity{Name: in.Embedded.ArtifactID, Version: in.Embedded.Version}, nil
	}
	if in.ApplicationClass != "" {
		return Identity{Name: shortClassName(in.ApplicationClass)}, nil
	}
	if in.IsPureWrapper {
		return Identity{}, nil
	}
	return Identity{}, capsuleerr.New(capsuleerr.BadSpec, "capsule has no Application-Name, Application artifact, embedded dependency manifest, or Application-Class to derive an identity from")
}

// shortClassName drops the package qualifier, e.g. "com.acme.Foo" -> "Foo".
func shortClassName(fqcn string) string {
	if i := strings.LastIndexByte(fqcn, '.'); i >= 0 {
		return fqcn[i+1:]
	}
	return fqcn
}
