package caplet

import (
	"context"
	"log/slog"
)

// Factory builds one non-root caplet Link, given the chain so far so the
// new caplet can reach its predecessor's contributions if it needs to
// compute something at construction time rather than dispatch time.
type Factory func(chainSoFar *Chain) *Link

// Registry maps a caplet name (as it appears in a manifest's Caplets
// attribute) to the Factory that builds it. Since Go has no equivalent
// of loading a caplet's bytecode out of the archive at runtime, a
// caplet instance here is a named, statically compiled Link-producing
// function registered ahead of time, not dynamically resolved class.
type Registry map[string]Factory

// Load builds the full chain: root first, then each name in order
// (spec.md §4.5's loading order), using registry to produce each
// successor's Link. A name with no registered factory is loaded as an
// inert passthrough link (no operation overrides) — this is the
// conservative behavior for a caplet coordinate the Dependency
// Interface resolved to a local jar which this reimplementation has no
// way to execute.
func Load(ctx context.Context, root *Link, names []string, registry Registry) *Chain {
	c := &Chain{Links: []*Link{root}}
	for _, name := range names {
		factory, ok := registry[name]
		if !ok {
			slog.WarnContext(ctx, "caplet.Load: no registered factory, loading as passthrough", "name", name)
			c.Links = append(c.Links, &Link{Name: name})
			continue
		}
		link := factory(c)
		if link.Name == "" {
			link.Name = name
		}
		c.Links = append(c.Links, link)
	}
	return c
}
