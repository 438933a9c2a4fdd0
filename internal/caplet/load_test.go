package caplet

import (
	"context"
	"testing"
)

func TestLoadBuildsRootPlusRegisteredCaplets(t *testing.T) {
	root := &Link{Name: "root"}
	registry := Registry{
		"LogCaplet": func(chainSoFar *Chain) *Link {
			return &Link{Name: "LogCaplet"}
		},
	}
	c := Load(context.Background(), root, []string{"LogCaplet"}, registry)
	if len(c.Links) != 2 {
		t.Fatalf("got %d links, want 2", len(c.Links))
	}
	if c.Root().Name != "root" || c.Tail().Name != "LogCaplet" {
		t.Fatalf("got root=%q tail=%q", c.Root().Name, c.Tail().Name)
	}
}

func TestLoadFallsBackToPassthroughForUnregisteredCaplet(t *testing.T) {
	root := &Link{Name: "root"}
	c := Load(context.Background(), root, []string{"com.example:unknown-caplet:1.0"}, Registry{})
	if len(c.Links) != 2 {
		t.Fatalf("got %d links, want 2", len(c.Links))
	}
	tail := c.Tail()
	if tail.Name != "com.example:unknown-caplet:1.0" {
		t.Fatalf("got name %q", tail.Name)
	}
	if tail.BuildClassPath != nil {
		t.Fatalf("expected passthrough link to have no overrides")
	}
}
