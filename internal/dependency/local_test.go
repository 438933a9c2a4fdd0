package dependency

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalResolverResolvesExistingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "foo.jar"), []byte("x"), 0o640); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	r := &LocalResolver{BaseDir: dir}
	out, err := r.Resolve(context.Background(), []Coordinate{{Raw: "foo.jar"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 1 || out[0].Path != filepath.Join(dir, "foo.jar") {
		t.Fatalf("got %+v", out)
	}
}

func TestLocalResolverGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jar", "b.jar"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o640); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	r := &LocalResolver{BaseDir: dir}
	out, err := r.Resolve(context.Background(), []Coordinate{{Raw: "*.jar"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d matches, want 2", len(out))
	}
}

func TestLocalResolverMissingFileFails(t *testing.T) {
	dir := t.TempDir()
	r := &LocalResolver{BaseDir: dir}
	if _, err := r.Resolve(context.Background(), []Coordinate{{Raw: "missing.jar"}}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
