// Package platform probes the host for installed Java runtimes and
// exposes version parsing and constraint matching over them.
package platform

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed Java runtime version: major.minor.patch, an
// optional update number, and a prerelease flag (Compare sorts
// prerelease builds below their release).
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Update     int
	Prerelease bool
	Raw        string
}

// ParseVersion parses both the legacy "1.8.0_312" form and the modern
// "17.0.9", "21-ea", "11.0.2+9" forms used by `java -version`.
func ParseVersion(raw string) (Version, error) {
	v := Version{Raw: raw}
	s := strings.TrimSpace(raw)
	if s == "" {
		return v, fmt.Errorf("empty version string")
	}

	if strings.HasPrefix(s, "1.") {
		// Legacy form: 1.MAJOR.MINOR[_UPDATE]
		rest := s[2:]
		parts := strings.SplitN(rest, "_", 2)
		dotted := strings.Split(parts[0], ".")
		var err error
		if v.Major, err = atoi(dotted, 0); err != nil {
			return v, err
		}
		if v.Minor, err = atoi(dotted, 1); err != nil {
			v.Minor = 0
		}
		if len(parts) == 2 {
			updStr := parts[1]
			if idx := strings.IndexAny(updStr, "-+"); idx >= 0 {
				updStr = updStr[:idx]
			}
			v.Update, _ = strconv.Atoi(updStr)
		}
		v.Prerelease = strings.Contains(s, "-ea") || strings.Contains(s, "-internal")
		return v, nil
	}

	// Modern form: MAJOR[.MINOR[.PATCH]][-ea][+BUILD]
	main := s
	if idx := strings.IndexAny(main, "-+"); idx >= 0 {
		if strings.Contains(main[idx:], "ea") {
			v.Prerelease = true
		}
		main = main[:idx]
	}
	dotted := strings.Split(main, ".")
	var err error
	if v.Major, err = atoi(dotted, 0); err != nil {
		return v, err
	}
	if v.Minor, err = atoi(dotted, 1); err != nil {
		v.Minor = 0
	}
	if v.Patch, err = atoi(dotted, 2); err != nil {
		v.Patch = 0
	}
	return v, nil
}

func atoi(parts []string, idx int) (int, error) {
	if idx >= len(parts) {
		return 0, fmt.Errorf("index %d out of range in %v", idx, parts)
	}
	return strconv.Atoi(parts[idx])
}

// MajorMinor returns the dotted "MAJOR.MINOR" tag used for Java-Version
// section and constraint matching (e.g. "1.8", "11", "17").
func (v Version) MajorMinor() string {
	if v.Major <= 8 {
		return fmt.Sprintf("1.%d", v.Major)
	}
	return strconv.Itoa(v.Major)
}

// Compare returns -1, 0, or 1 comparing v to other by
// (major, minor, patch, update), with prerelease versions sorting
// below their corresponding release.
func (v Version) Compare(other Version) int {
	for _, pair := range [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
		{v.Update, other.Update},
	} {
		if pair[0] != pair[1] {
			if pair[0] < pair[1] {
				return -1
			}
			return 1
		}
	}
	if v.Prerelease != other.Prerelease {
		if v.Prerelease {
			return -1
		}
		return 1
	}
	return 0
}

// AtLeast reports whether v >= min.
func (v Version) AtLeast(min Version) bool { return v.Compare(min) >= 0 }

func (v Version) String() string { return v.Raw }
