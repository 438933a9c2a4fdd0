// Package pathasm implements the Path Assembler: classpath,
// bootclasspath, native library path, agent, system-property,
// environment, and argument assembly, plus the ${VAR}/$VAR/$n/$*
// expansion syntax those all build on.
package pathasm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/banksean/capsule/internal/capsuleerr"
)

// Context carries the identity and location values expansion and
// assembly need: the archive path, capsule identity, cache directory
// (empty if not extracted), and the live process properties.
type Context struct {
	ArchivePath string
	AppName     string
	AppVersion  string
	CacheDir    string // empty if not extracted
	JavaHome    string
	Properties  map[string]string // system properties visible to expansion
	CallerArgs  []string
}

// CapsuleJar, CapsuleApp, CapsuleDir compute the three identity/location
// strings that round-trip as both environment variables and -D
// properties per spec.md §8.
func (c Context) CapsuleJar() string { return c.ArchivePath }

func (c Context) CapsuleApp() string {
	if c.AppVersion != "" {
		return c.AppName + "-" + c.AppVersion
	}
	return c.AppName
}

func (c Context) CapsuleDir() (string, error) {
	if c.CacheDir == "" {
		return "", capsuleerr.New(capsuleerr.NotExtracted, "$CAPSULE_DIR referenced without an extracted cache")
	}
	return c.CacheDir, nil
}

var varRE = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.]*)\}|\$([A-Za-z_][A-Za-z0-9_.]*)|\$(\*)|\$([0-9]+)`)

// Expand substitutes ${VAR}, $VAR, $0 (archive path), $n (n-th caller
// arg, 1-based), and $* (all caller args, space-joined) within s.
func (c Context) Expand(s string) (string, error) {
	var outerErr error
	result := varRE.ReplaceAllStringFunc(s, func(match string) string {
		if outerErr != nil {
			return match
		}
		sub := varRE.FindStringSubmatch(match)
		name := sub[1]
		if name == "" {
			name = sub[2]
		}
		switch {
		case name != "":
			v, err := c.lookupVar(name)
			if err != nil {
				outerErr = err
				return match
			}
			return v
		case sub[3] == "*":
			return strings.Join(c.CallerArgs, " ")
		case sub[4] != "":
			n, _ := strconv.Atoi(sub[4])
			if n == 0 {
				return c.ArchivePath
			}
			if n-1 < 0 || n-1 >= len(c.CallerArgs) {
				return ""
			}
			return c.CallerArgs[n-1]
		}
		return match
	})
	if outerErr != nil {
		return "", outerErr
	}
	return result, nil
}

func (c Context) lookupVar(name string) (string, error) {
	switch name {
	case "CAPSULE_JAR":
		return c.CapsuleJar(), nil
	case "CAPSULE_APP":
		return c.CapsuleApp(), nil
	case "CAPSULE_DIR":
		return c.CapsuleDir()
	case "JAVA_HOME":
		return c.JavaHome, nil
	}
	if v, ok := c.Properties[name]; ok {
		return v, nil
	}
	return "", fmt.Errorf("unrecognized expansion variable %q", name)
}
