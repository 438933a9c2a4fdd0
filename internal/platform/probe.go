package platform

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

// OSFamily identifies the host operating system family used for
// platform-tagged manifest sections.
type OSFamily string

const (
	Linux   OSFamily = "Linux"
	MacOS   OSFamily = "MacOS"
	Windows OSFamily = "Windows"
)

// CurrentOS returns the running host's OS family.
func CurrentOS() OSFamily {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "windows":
		return Windows
	default:
		return Linux
	}
}

// NativeLibrarySuffix returns the platform's shared-library file extension.
func NativeLibrarySuffix(os OSFamily) string {
	switch os {
	case MacOS:
		return ".dylib"
	case Windows:
		return ".dll"
	default:
		return ".so"
	}
}

// Runtime describes one installed Java runtime discovered on the host.
type Runtime struct {
	Home    string
	Version Version
	IsJDK   bool
}

// JavaExecutable returns the path to this runtime's `java` (or `javaw`
// on Windows, when preferWindowless is set and no console is attached).
func (r Runtime) JavaExecutable(preferWindowless bool) string {
	name := "java"
	if CurrentOS() == Windows {
		if preferWindowless {
			name = "javaw"
		}
		name += ".exe"
	}
	return filepath.Join(r.Home, "bin", name)
}

// Prober probes the host for installed runtimes, grounded on the
// exec.CommandContext + slog wrapping pattern used elsewhere in this
// codebase for invoking external tools.
type Prober struct {
	// ExecVersion runs "<javaHome>/bin/java -version" and returns its
	// combined stderr+stdout text. Overridable for tests.
	ExecVersion func(ctx context.Context, javaHome string) (string, error)
}

// NewProber returns a Prober backed by a real `java -version` exec.
func NewProber() *Prober {
	return &Prober{ExecVersion: runJavaVersion}
}

func runJavaVersion(ctx context.Context, javaHome string) (string, error) {
	exe := filepath.Join(javaHome, "bin", "java")
	if CurrentOS() == Windows {
		exe += ".exe"
	}
	cmd := exec.CommandContext(ctx, exe, "-version")
	slog.DebugContext(ctx, "platform.Prober.ExecVersion", "cmd", strings.Join(cmd.Args, " "))
	out, err := cmd.CombinedOutput()
	return string(out), err
}

var versionLineRE = regexp.MustCompile(`(?:java|openjdk) version "([^"]+)"`)

// ParseVersionOutput extracts the version string from `java -version`'s
// output, which writes to stderr in the form:
//
//	openjdk version "17.0.9" 2023-10-17
func ParseVersionOutput(output string) (Version, error) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if m := versionLineRE.FindStringSubmatch(scanner.Text()); m != nil {
			return ParseVersion(m[1])
		}
	}
	return Version{}, &noVersionLineError{output: output}
}

type noVersionLineError struct{ output string }

func (e *noVersionLineError) Error() string {
	return "no version line found in: " + strings.TrimSpace(e.output)
}

// IsJDK reports whether javaHome looks like a full JDK (has a javac
// executable) rather than a JRE-only installation.
func IsJDK(javaHome string) bool {
	exe := "javac"
	if CurrentOS() == Windows {
		exe += ".exe"
	}
	_, err := os.Stat(filepath.Join(javaHome, "bin", exe))
	return err == nil
}

// Probe resolves the full Runtime descriptor for a candidate Java home
// by executing `java -version` against it.
func (p *Prober) Probe(ctx context.Context, javaHome string) (Runtime, error) {
	out, err := p.ExecVersion(ctx, javaHome)
	if err != nil && out == "" {
		return Runtime{}, err
	}
	v, perr := ParseVersionOutput(out)
	if perr != nil {
		return Runtime{}, perr
	}
	return Runtime{Home: javaHome, Version: v, IsJDK: IsJDK(javaHome)}, nil
}

// candidateDirNameRE matches the conventional sibling-directory names used
// by JDK/JRE distributions: jdk17, jdk-17, jre1.8.0_312, 17.0.9,
// java-17-openjdk-amd64, jdk-17-oracle.
var candidateDirNameRE = regexp.MustCompile(`(?i)^(jdk|jre)[-]?[0-9].*$|^java-[0-9]+(\.[0-9]+)*-openjdk.*$|^jdk-[0-9]+(\.[0-9]+)*-oracle$|^[0-9]+(\.[0-9]+)*(_[0-9]+)?$`)

// DiscoverInstalled enumerates installed runtimes by scanning the
// conventional sibling directories of the current runtime's home, plus
// (on Windows) the Program Files JDK install roots.
func (p *Prober) DiscoverInstalled(ctx context.Context, currentHome string) []Runtime {
	var roots []string
	if currentHome != "" {
		roots = append(roots, filepath.Dir(currentHome))
	}
	if CurrentOS() == Windows {
		for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
			if v := os.Getenv(env); v != "" {
				roots = append(roots, filepath.Join(v, "Java"))
			}
		}
	} else {
		roots = append(roots, "/usr/lib/jvm", "/Library/Java/JavaVirtualMachines")
	}

	seen := map[string]bool{}
	var out []Runtime
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			name := e.Name()
			home := filepath.Join(root, name)
			if CurrentOS() == MacOS {
				if alt := filepath.Join(home, "Contents", "Home"); dirExists(alt) {
					home = alt
				}
			}
			if seen[home] {
				continue
			}
			if !candidateDirNameRE.MatchString(name) && !dirExists(filepath.Join(home, "bin", "java")) {
				continue
			}
			r, err := p.Probe(ctx, home)
			if err != nil {
				continue
			}
			seen[home] = true
			out = append(out, r)
		}
	}
	return out
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
