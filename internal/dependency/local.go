package dependency

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/banksean/capsule/internal/capsuleerr"
)

// LooksLikeLocalPath reports whether raw names a local filename or glob
// rather than a Maven-style "group:artifact:version" coordinate: the
// heuristic is "contains a path separator, or doesn't contain exactly
// two ':' separators". The filesystem is not consulted.
func LooksLikeLocalPath(raw string) bool {
	if strings.ContainsAny(raw, `/\`) {
		return true
	}
	if strings.Count(raw, ":") != 2 {
		return true
	}
	return false
}

// ParseMavenTriple splits a "group:artifact:version[:classifier]"
// coordinate into its components.
func ParseMavenTriple(raw string) (group, artifact, version, classifier string, ok bool) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 {
		return "", "", "", "", false
	}
	group, artifact, version = parts[0], parts[1], parts[2]
	if len(parts) > 3 {
		classifier = parts[3]
	}
	return group, artifact, version, classifier, true
}

// LocalResolver resolves coordinates that are actually local filenames
// or globs relative to baseDir, without contacting any repository.
// CompositeResolver uses it for coordinates that look like bare
// filenames rather than Maven coordinates.
type LocalResolver struct {
	BaseDir string
}

func (r *LocalResolver) Configure([]string, bool) {}

func (r *LocalResolver) Resolve(ctx context.Context, coords []Coordinate) ([]Resolved, error) {
	out := make([]Resolved, 0, len(coords))
	for _, c := range coords {
		matches, err := filepath.Glob(filepath.Join(r.BaseDir, c.Raw))
		if err != nil || len(matches) == 0 {
			if _, statErr := os.Stat(filepath.Join(r.BaseDir, c.Raw)); statErr == nil {
				matches = []string{filepath.Join(r.BaseDir, c.Raw)}
			} else {
				return nil, capsuleerr.New(capsuleerr.ResolveFailed, "no local match for %q under %s", c.Raw, r.BaseDir)
			}
		}
		for _, m := range matches {
			out = append(out, Resolved{Coordinate: c, Path: m})
		}
	}
	return out, nil
}

func (r *LocalResolver) ResolveRoot(ctx context.Context, coord Coordinate) (string, []string, error) {
	resolved, err := r.Resolve(ctx, []Coordinate{coord})
	if err != nil || len(resolved) == 0 {
		return "", nil, err
	}
	return resolved[0].Path, nil, nil
}
