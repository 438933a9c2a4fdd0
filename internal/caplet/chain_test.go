package caplet

import (
	"reflect"
	"testing"
)

func rootLink() *Link {
	return &Link{
		Name: "root",
		BuildClassPath: func(next Continuation[[]string]) ([]string, error) {
			return []string{"root.jar"}, nil
		},
		Expand: func(s string) OpFunc[string] {
			return func(next Continuation[string]) (string, error) { return "root:" + s, nil }
		},
	}
}

func TestDispatchFallsThroughToRootWhenNoOverride(t *testing.T) {
	chain := &Chain{Links: []*Link{rootLink()}}
	got, err := chain.DispatchBuildClassPath()
	if err != nil {
		t.Fatalf("DispatchBuildClassPath: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"root.jar"}) {
		t.Fatalf("got %v", got)
	}
}

func TestDispatchPrefersTailMostOverride(t *testing.T) {
	successor := &Link{
		Name: "successor",
		BuildClassPath: func(next Continuation[[]string]) ([]string, error) {
			base, err := next()
			if err != nil {
				return nil, err
			}
			return append(base, "successor.jar"), nil
		},
	}
	chain := &Chain{Links: []*Link{rootLink(), successor}}
	got, err := chain.DispatchBuildClassPath()
	if err != nil {
		t.Fatalf("DispatchBuildClassPath: %v", err)
	}
	want := []string{"root.jar", "successor.jar"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDispatchSuperReachesNextLinkUp(t *testing.T) {
	// A chain of three: root, mid (overrides, calls super), tail (overrides,
	// calls super). Entry is tail; tail calls super to reach mid; mid calls
	// super to reach root.
	mid := &Link{BuildClassPath: func(next Continuation[[]string]) ([]string, error) {
		base, _ := next()
		return append(base, "mid.jar"), nil
	}}
	tail := &Link{BuildClassPath: func(next Continuation[[]string]) ([]string, error) {
		base, _ := next()
		return append(base, "tail.jar"), nil
	}}
	chain := &Chain{Links: []*Link{rootLink(), mid, tail}}
	got, err := chain.DispatchBuildClassPath()
	if err != nil {
		t.Fatalf("DispatchBuildClassPath: %v", err)
	}
	want := []string{"root.jar", "mid.jar", "tail.jar"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDispatchWithArgumentThreadsInput(t *testing.T) {
	chain := &Chain{Links: []*Link{rootLink()}}
	got, err := chain.DispatchExpand("x")
	if err != nil {
		t.Fatalf("DispatchExpand: %v", err)
	}
	if got != "root:x" {
		t.Fatalf("got %q", got)
	}
}

func TestDispatchMissingRootOpErrors(t *testing.T) {
	chain := &Chain{Links: []*Link{{Name: "root"}}}
	if _, err := chain.DispatchBuildClassPath(); err == nil {
		t.Fatalf("expected error when root has no base implementation")
	}
}

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := NewOrderedMap()
	m.Set("b", "1")
	m.Set("a", "2")
	m.Set("b", "3")
	if !reflect.DeepEqual(m.Keys(), []string{"b", "a"}) {
		t.Fatalf("keys = %v", m.Keys())
	}
	v, _ := m.Get("b")
	if v != "3" {
		t.Fatalf("expected update in place, got %q", v)
	}
}
