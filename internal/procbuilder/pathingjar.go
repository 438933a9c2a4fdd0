package procbuilder

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/banksean/capsule/internal/naming"
)

// commandLineLimit is the approximate hard limit (in characters) beyond
// which Windows refuses to exec a command line.
const commandLineLimit = 32500

func pathListSeparator() string {
	if runtime.GOOS == "windows" {
		return ";"
	}
	return ":"
}

// maybeSynthesizePathingJar checks the tentative command length; if it
// would exceed commandLineLimit on Windows, it writes an empty "pathing
// jar" whose manifest Class-Path attribute lists classPath as paths
// relative to the jar's own directory, and replaces *classPath with the
// single jar path. in.PathingJarPath receives the temp path so the
// caller can register it for cleanup.
func maybeSynthesizePathingJar(classPath *[]string, in *Inputs) error {
	if runtime.GOOS != "windows" {
		return nil
	}
	approx := estimateCommandLength(*classPath, in)
	if approx <= commandLineLimit {
		return nil
	}

	jarPath, err := writePathingJar(*classPath)
	if err != nil {
		return err
	}
	*classPath = []string{jarPath}
	in.PathingJarPath = jarPath
	return nil
}

func estimateCommandLength(classPath []string, in *Inputs) int {
	n := len(in.JavaExecutable)
	for _, s := range in.JVMArgs {
		n += len(s) + 1
	}
	for _, s := range in.SystemProps {
		n += len(s) + 1
	}
	for _, s := range in.BootClassPath {
		n += len(s) + 1
	}
	for _, s := range in.JavaAgents {
		n += len(s) + 1
	}
	if len(classPath) > 0 {
		n += len("-classpath ") + len(strings.Join(classPath, pathListSeparator())) + 1
	}
	n += len(in.MainClass) + 1
	for _, s := range in.AppArgs {
		n += len(s) + 1
	}
	return n
}

// writePathingJar creates an empty zip archive in the system temp
// directory whose manifest declares a single Class-Path attribute
// listing entries as paths relative to the jar's own directory.
func writePathingJar(classPath []string) (string, error) {
	dir, err := os.MkdirTemp("", fmt.Sprintf("capsule-pathing-%s-*", naming.PathingJarName()))
	if err != nil {
		return "", err
	}
	jarPath := filepath.Join(dir, "pathing.jar")

	f, err := os.Create(jarPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	rel := make([]string, 0, len(classPath))
	for _, p := range classPath {
		r, err := filepath.Rel(dir, p)
		if err != nil {
			r = p
		}
		rel = append(rel, filepath.ToSlash(r))
	}

	w, err := zw.Create(manifestEntryPath)
	if err != nil {
		return "", err
	}
	manifest := "Manifest-Version: 1.0\r\nClass-Path: " + strings.Join(rel, " ") + "\r\n\r\n"
	if _, err := w.Write([]byte(manifest)); err != nil {
		return "", err
	}
	if err := zw.Close(); err != nil {
		return "", err
	}
	return jarPath, nil
}

const manifestEntryPath = "META-INF/MANIFEST.MF"

// CleanupPathingJar removes the temp directory holding a synthesized
// pathing jar, if one was created.
func CleanupPathingJar(jarPath string) error {
	if jarPath == "" {
		return nil
	}
	return os.RemoveAll(filepath.Dir(jarPath))
}
