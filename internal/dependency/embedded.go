package dependency

import (
	"bufio"
	"strings"
)

// EmbeddedManifest is the group/artifact/version/dependency-list found
// in an archive's own embedded dependency descriptor (e.g. a bundled
// pom.properties-style file), used as the Dependencies fallback when no
// explicit list is declared, and as a capsule-identity fallback.
type EmbeddedManifest struct {
	GroupID      string
	ArtifactID   string
	Version      string
	Dependencies []Coordinate
}

// ParseEmbeddedManifest parses a simple "key=value" properties format:
// groupId, artifactId, version, and a whitespace-separated
// "dependencies" entry of Maven-triple coordinates.
func ParseEmbeddedManifest(raw string) EmbeddedManifest {
	m := EmbeddedManifest{}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		switch key {
		case "groupId":
			m.GroupID = val
		case "artifactId":
			m.ArtifactID = val
		case "version":
			m.Version = val
		case "dependencies":
			for _, d := range strings.Fields(val) {
				m.Dependencies = append(m.Dependencies, Coordinate{Raw: d})
			}
		}
	}
	return m
}

// HasIdentity reports whether the embedded manifest carries enough
// information to serve as a capsule-identity fallback.
func (m EmbeddedManifest) HasIdentity() bool {
	return m.ArtifactID != ""
}
