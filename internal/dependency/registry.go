package dependency

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"

	"github.com/banksean/capsule/internal/capsuleerr"
)

// RegistryResolver is the concrete Dependency Interface backend for
// artifact coordinates expressed as OCI image references. A Maven-style
// "group:artifact:version" coordinate is translated to a tag-qualified
// OCI reference of the form "<registry>/<group-with-slashes>/<artifact>:<version>"
// before being fetched, so a single resolver backend serves both the
// OCI-native and Maven-ish coordinate shapes named in manifests.
type RegistryResolver struct {
	CacheDir string
	repos    []string
	snapshot bool
}

func NewRegistryResolver(cacheDir string) *RegistryResolver {
	return &RegistryResolver{CacheDir: cacheDir}
}

func (r *RegistryResolver) Configure(repos []string, allowSnapshots bool) {
	r.repos = repos
	r.snapshot = allowSnapshots
}

func (r *RegistryResolver) Resolve(ctx context.Context, coords []Coordinate) ([]Resolved, error) {
	out := make([]Resolved, 0, len(coords))
	for _, c := range coords {
		path, _, err := r.ResolveRoot(ctx, c)
		if err != nil {
			return nil, err
		}
		out = append(out, Resolved{Coordinate: c, Path: path})
	}
	return out, nil
}

func (r *RegistryResolver) ResolveRoot(ctx context.Context, coord Coordinate) (string, []string, error) {
	ref, err := r.coordToRef(coord.Raw)
	if err != nil {
		return "", nil, err
	}

	slog.DebugContext(ctx, "dependency.RegistryResolver.ResolveRoot", "ref", ref.Name())
	img, err := remote.Image(ref, remote.WithContext(ctx))
	if err != nil {
		return "", nil, fmt.Errorf("fetching %s: %w", ref.Name(), err)
	}
	layers, err := img.Layers()
	if err != nil {
		return "", nil, fmt.Errorf("reading layers of %s: %w", ref.Name(), err)
	}
	if len(layers) == 0 {
		return "", nil, fmt.Errorf("%s has no layers", ref.Name())
	}

	destDir := filepath.Join(r.CacheDir, "deps", sanitizeRefPath(ref.Name()))
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", nil, err
	}

	// The artifact's payload is conventionally its single topmost layer,
	// written out as a jar named after the artifact component.
	topLayer := layers[len(layers)-1]
	rc, err := topLayer.Uncompressed()
	if err != nil {
		return "", nil, fmt.Errorf("reading layer content of %s: %w", ref.Name(), err)
	}
	defer rc.Close()

	artifactName := coord.Raw
	if group, artifact, version, _, ok := ParseMavenTriple(coord.Raw); ok {
		artifactName = fmt.Sprintf("%s-%s-%s.jar", lastPathComponent(group), artifact, version)
	}
	destPath := filepath.Join(destDir, sanitizeRefPath(artifactName))

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return "", nil, err
	}
	defer out.Close()
	if _, err := io.Copy(out, rc); err != nil {
		return "", nil, err
	}

	return destPath, nil, nil
}

func (r *RegistryResolver) coordToRef(raw string) (name.Reference, error) {
	if group, artifact, version, _, ok := ParseMavenTriple(raw); ok {
		repo := r.defaultRegistry()
		path := fmt.Sprintf("%s/%s/%s", repo, strings.ReplaceAll(group, ".", "/"), artifact)
		full := fmt.Sprintf("%s:%s", path, sanitizeTag(version))
		return name.ParseReference(full)
	}
	ref, err := name.ParseReference(raw)
	if err != nil {
		return nil, newBadCoordinate(raw)
	}
	return ref, nil
}

func (r *RegistryResolver) defaultRegistry() string {
	if len(r.repos) > 0 {
		return r.repos[0]
	}
	return "index.docker.io/library"
}

func sanitizeTag(v string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, v)
}

func sanitizeRefPath(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

func lastPathComponent(s string) string {
	parts := strings.Split(s, ".")
	return parts[len(parts)-1]
}

var _ Resolver = (*RegistryResolver)(nil)

// newBadCoordinate is used by RegistryResolver.coordToRef when a
// coordinate that is not a Maven triple also fails to parse as an OCI
// reference.
func newBadCoordinate(raw string) error {
	return capsuleerr.New(capsuleerr.BadSpec, "unresolvable dependency coordinate %q", raw)
}
