package control

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/banksean/capsule/internal/dependency"
	"github.com/banksean/capsule/internal/manifest"
	"github.com/banksean/capsule/internal/platform"
	"github.com/banksean/capsule/version"
)

// RunAction executes one of the Control Plane's non-launch actions
// (spec.md §4.9, §6) against an already-opened Plane and writes its
// output to w. The caller exits 0 afterward without launching.
func (p *Plane) RunAction(ctx context.Context, action Action, w io.Writer) error {
	switch action {
	case ActionVersion:
		return p.printVersion(w)
	case ActionModes:
		return p.printModes(w)
	case ActionJVMs:
		return p.printJVMs(w)
	case ActionTree:
		return p.printDependencyTree(ctx, w)
	case ActionResolve:
		_, err := p.resolveOnly(ctx)
		return err
	}
	return fmt.Errorf("control: unknown action %q", action)
}

func (p *Plane) printVersion(w io.Writer) error {
	v := version.Get()
	fmt.Fprintf(w, "capsule %s (%s)\n", v.GitCommit, v.BuildTime)
	fmt.Fprintf(w, "application: %s %s\n", p.RC.Identity.Name, p.RC.Identity.Version)
	return nil
}

// printModes lists the mode names declared across the manifest's
// sections, deduplicated and sorted, one per line. The manifest's main
// section (Mode == "") never names a mode, so it's skipped.
func (p *Plane) printModes(w io.Writer) error {
	seen := map[string]bool{}
	for _, s := range p.RC.Manifest.Sections {
		if s.Mode == "" {
			continue
		}
		seen[s.Mode] = true
	}
	modes := make([]string, 0, len(seen))
	for m := range seen {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	for _, m := range modes {
		fmt.Fprintln(w, m)
	}
	return nil
}

func (p *Plane) printJVMs(w io.Writer) error {
	rc := p.RC
	runtimes := append([]platform.Runtime{rc.CurrentRuntime}, rc.InstalledProbe()...)
	seen := map[string]bool{}
	for _, r := range runtimes {
		if r.Home == "" || seen[r.Home] {
			continue
		}
		seen[r.Home] = true
		kind := "JRE"
		if r.IsJDK {
			kind = "JDK"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Version.String(), kind, r.Home)
	}
	return nil
}

// printDependencyTree resolves the manifest's declared Dependencies and
// prints each coordinate with its resolved path, and any transitive
// coordinate names a resolver's ResolveRoot reported, nested one level
// deeper: the Dependency Interface doesn't build a full recursive graph
// (spec.md's Non-goals exclude a build-system-grade resolver), so this
// is as deep as the tree goes.
func (p *Plane) printDependencyTree(ctx context.Context, w io.Writer) error {
	rc := p.RC
	raw, _ := rc.attr("Dependencies")
	names := manifest.ParseList(raw)
	if len(names) == 0 {
		fmt.Fprintln(w, "(no declared dependencies)")
		return nil
	}
	for _, n := range names {
		path, transitive, err := rc.Dep.ResolveRoot(ctx, dependency.Coordinate{Raw: n})
		if err != nil {
			fmt.Fprintf(w, "%s\tFAILED: %v\n", n, err)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\n", n, path)
		for _, t := range transitive {
			fmt.Fprintf(w, "  %s\n", t)
		}
	}
	return nil
}

// resolveOnly forces every declared dependency coordinate through the
// configured resolver without launching, surfacing the first failure.
// It backs the --resolve action.
func (p *Plane) resolveOnly(ctx context.Context) ([]dependency.Resolved, error) {
	rc := p.RC
	raw, _ := rc.attr("Dependencies")
	names := manifest.ParseList(raw)
	coords := make([]dependency.Coordinate, len(names))
	for i, n := range names {
		coords[i] = dependency.Coordinate{Raw: n}
	}
	return rc.Dep.Resolve(ctx, coords)
}
