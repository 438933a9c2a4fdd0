package dependency

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentResolves bounds how many coordinates CompositeResolver
// fetches at once; independent artifact downloads parallelize well, but
// an unbounded fan-out would hammer the configured repositories.
const maxConcurrentResolves = 8

// CompositeResolver tries the local-filename heuristic first for each
// coordinate, falling back to the registry-backed resolver for anything
// that looks like a real Maven-style coordinate. This is the default
// resolver EnsureResolver constructs when the caller injects none.
type CompositeResolver struct {
	Local    *LocalResolver
	Registry *RegistryResolver
}

func NewCompositeResolver(baseDir, cacheDir string) *CompositeResolver {
	return &CompositeResolver{
		Local:    &LocalResolver{BaseDir: baseDir},
		Registry: NewRegistryResolver(cacheDir),
	}
}

func (c *CompositeResolver) Configure(repos []string, allowSnapshots bool) {
	c.Registry.Configure(repos, allowSnapshots)
}

func (c *CompositeResolver) pick(raw string) Resolver {
	if LooksLikeLocalPath(raw) {
		return c.Local
	}
	return c.Registry
}

// Resolve fetches every coordinate concurrently, bounded by
// maxConcurrentResolves, and returns results in request order
// regardless of completion order: coordinates are independent once
// picked, so there's no reason the slowest one should serialize behind
// the fastest.
func (c *CompositeResolver) Resolve(ctx context.Context, coords []Coordinate) ([]Resolved, error) {
	results := make([][]Resolved, len(coords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentResolves)
	for i, coord := range coords {
		i, coord := i, coord
		g.Go(func() error {
			r, err := c.pick(coord.Raw).Resolve(gctx, []Coordinate{coord})
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Resolved, 0, len(coords))
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

func (c *CompositeResolver) ResolveRoot(ctx context.Context, coord Coordinate) (string, []string, error) {
	return c.pick(coord.Raw).ResolveRoot(ctx, coord)
}

var _ Resolver = (*CompositeResolver)(nil)
