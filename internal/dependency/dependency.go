// Package dependency implements the abstract Dependency Interface: the
// contract a caplet chain uses to turn declared coordinates into local
// file paths, independent of which concrete resolver backend is wired
// in underneath.
package dependency

import (
	"context"

	"github.com/banksean/capsule/internal/capsuleerr"
)

// State is the three-state slot spec.md's Open Question settles on:
// unset (no resolver configured), Injected (caller supplied one), or
// Resolved (a default resolver has been lazily constructed). This single shape expresses both the with-setRepos and
// with-resolveRoot variants the source's two manager interfaces split
// across: Configure plays the role of setRepos, and ResolveRoot (below)
// always exists but is a no-op for resolvers with nothing to root.
type State int

const (
	Unset State = iota
	Injected
	Resolved
)

// Coordinate is a single requested dependency, either Maven-style
// "group:artifact:version[:classifier]" triple or an opaque local
// filename/glob (see LooksLikeLocalPath) handled by LocalResolver.
type Coordinate struct {
	Raw string
}

// Resolved is one fetched artifact: its coordinate and the local path
// it now lives at.
type Resolved struct {
	Coordinate Coordinate
	Path       string
}

// Resolver is the abstract contract to an external artifact resolver.
// Concrete backends (e.g. an OCI registry client) implement this; the
// caplet chain and Path Assembler depend only on this interface.
type Resolver interface {
	// Configure sets the repository list and snapshot policy. Safe to
	// call multiple times; later calls replace earlier configuration.
	Configure(repos []string, allowSnapshots bool)

	// Resolve fetches each coordinate to a local path, in the order
	// requested. It must return exactly len(coords) entries or an error;
	// a resolver that can't account for every requested coordinate
	// raises ResolveFailed rather than returning a partial list.
	Resolve(ctx context.Context, coords []Coordinate) ([]Resolved, error)

	// ResolveRoot resolves a single coordinate naming a root artifact
	// (used for Application-as-artifact resolution), returning its
	// local path and its own embedded classpath manifest entries, if any.
	ResolveRoot(ctx context.Context, coord Coordinate) (path string, classpathEntries []string, err error)
}

// Interface is the Dependency Interface as owned by the Control Plane:
// it carries the three-state resolver slot and the declared repository
// configuration pending a resolver being available to receive it.
type Interface struct {
	state    State
	resolver Resolver
	repos    []string
	snapshot bool
}

// New returns an Interface with no resolver configured.
func New() *Interface { return &Interface{state: Unset} }

// Inject supplies a caller-provided resolver (e.g. for tests, or a
// resolver chosen by a caplet). Marks the slot Injected.
func (i *Interface) Inject(r Resolver) {
	i.resolver = r
	i.state = Injected
	if i.resolver != nil {
		i.resolver.Configure(i.repos, i.snapshot)
	}
}

// EnsureResolver lazily constructs the default resolver via factory if
// none is configured yet, marking the slot Resolved. Idempotent.
func (i *Interface) EnsureResolver(factory func() Resolver) Resolver {
	if i.resolver != nil {
		return i.resolver
	}
	i.resolver = factory()
	i.state = Resolved
	i.resolver.Configure(i.repos, i.snapshot)
	return i.resolver
}

// Configure records the repository list and snapshot policy, applying
// it immediately if a resolver is already present.
func (i *Interface) Configure(repos []string, allowSnapshots bool) {
	i.repos = repos
	i.snapshot = allowSnapshots
	if i.resolver != nil {
		i.resolver.Configure(repos, allowSnapshots)
	}
}

// State reports the current three-state value of the resolver slot.
func (i *Interface) State() State { return i.state }

// Resolve resolves coords through the configured resolver. Raises
// BadSpec if coords is non-empty and no resolver is configured.
func (i *Interface) Resolve(ctx context.Context, coords []Coordinate) ([]Resolved, error) {
	if len(coords) == 0 {
		return nil, nil
	}
	if i.resolver == nil {
		return nil, capsuleerr.New(capsuleerr.BadSpec, "dependencies declared but no resolver is configured")
	}
	out, err := i.resolver.Resolve(ctx, coords)
	if err != nil {
		return nil, capsuleerr.Wrap(capsuleerr.ResolveFailed, err, "resolving %d dependencies", len(coords))
	}
	if len(out) != len(coords) {
		return nil, capsuleerr.New(capsuleerr.ResolveFailed, "resolver returned %d entries for %d requested coordinates", len(out), len(coords))
	}
	return out, nil
}

// ResolveRoot resolves a single root artifact coordinate.
func (i *Interface) ResolveRoot(ctx context.Context, coord Coordinate) (string, []string, error) {
	if i.resolver == nil {
		return "", nil, capsuleerr.New(capsuleerr.BadSpec, "Application names an artifact but no resolver is configured")
	}
	path, cp, err := i.resolver.ResolveRoot(ctx, coord)
	if err != nil {
		return "", nil, capsuleerr.Wrap(capsuleerr.ResolveFailed, err, "resolving root artifact %q", coord.Raw)
	}
	return path, cp, nil
}
