// Package runtimeselect implements the runtime-selection algorithm:
// choosing a Java home from the current runtime or a set of installed
// candidates under the manifest's version constraints.
package runtimeselect

import (
	"sort"
	"strings"

	"github.com/banksean/capsule/internal/capsuleerr"
	"github.com/banksean/capsule/internal/platform"
)

// Constraints is the manifest-declared (or mode-section) set of runtime
// requirements.
type Constraints struct {
	MinJavaVersion  string         // Min-Java-Version
	JavaVersion     string         // Java-Version (major.minor match)
	MinUpdateByMM   map[string]int // Min-Update-Version, keyed by "major.minor"
	JDKRequired     bool
}

// Satisfies reports whether r meets every declared constraint.
func (c Constraints) Satisfies(r platform.Runtime) bool {
	if c.MinJavaVersion != "" {
		min, err := platform.ParseVersion(c.MinJavaVersion)
		if err != nil || !r.Version.AtLeast(min) {
			return false
		}
	}
	if c.JavaVersion != "" {
		want, err := platform.ParseVersion(c.JavaVersion)
		if err != nil {
			return false
		}
		if r.Version.Major != want.Major || r.Version.Minor != want.Minor {
			return false
		}
	}
	if min, ok := c.MinUpdateByMM[r.Version.MajorMinor()]; ok && r.Version.Update < min {
		return false
	}
	if c.JDKRequired && !r.IsJDK {
		return false
	}
	return true
}

func (c Constraints) String() string {
	var parts []string
	if c.MinJavaVersion != "" {
		parts = append(parts, "Min-Java-Version="+c.MinJavaVersion)
	}
	if c.JavaVersion != "" {
		parts = append(parts, "Java-Version="+c.JavaVersion)
	}
	if c.JDKRequired {
		parts = append(parts, "JDK-Required=true")
	}
	return strings.Join(parts, ", ")
}

// Select resolves a runtime home per spec.md §4.7: an explicit
// capsule.java.home override wins outright; otherwise the current
// runtime is used if it satisfies the constraints; otherwise the
// highest-versioned installed candidate satisfying them is used.
func Select(javaHomeOverride string, current platform.Runtime, installed []platform.Runtime, c Constraints) (platform.Runtime, error) {
	if javaHomeOverride != "" {
		return platform.Runtime{Home: javaHomeOverride}, nil
	}
	if c.Satisfies(current) {
		return current, nil
	}

	var survivors []platform.Runtime
	for _, r := range installed {
		if c.Satisfies(r) {
			survivors = append(survivors, r)
		}
	}
	if len(survivors) == 0 {
		return platform.Runtime{}, capsuleerr.New(capsuleerr.NoSuitableJVM, "no installed runtime satisfies constraints (%s)", c.String())
	}
	sort.Slice(survivors, func(i, j int) bool {
		return survivors[i].Version.Compare(survivors[j].Version) > 0
	})
	return survivors[0], nil
}

// JavaExecutable resolves the java executable to invoke: the
// capsule.java.cmd override if set, else <home>/bin/java[.exe],
// preferring javaw on Windows when no console is attached.
func JavaExecutable(javaCmdOverride string, r platform.Runtime, hasConsole bool) string {
	if javaCmdOverride != "" {
		return javaCmdOverride
	}
	return r.JavaExecutable(!hasConsole)
}
