package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestParseVersionOutputOpenJDK(t *testing.T) {
	out := "openjdk version \"17.0.9\" 2023-10-17\nOpenJDK Runtime Environment\nOpenJDK 64-Bit Server VM\n"
	v, err := ParseVersionOutput(out)
	if err != nil {
		t.Fatalf("ParseVersionOutput: %v", err)
	}
	if v.Major != 17 {
		t.Fatalf("got %+v", v)
	}
}

func TestParseVersionOutputLegacyOracle(t *testing.T) {
	out := "java version \"1.8.0_312\"\nJava(TM) SE Runtime Environment\n"
	v, err := ParseVersionOutput(out)
	if err != nil {
		t.Fatalf("ParseVersionOutput: %v", err)
	}
	if v.Major != 8 || v.Update != 312 {
		t.Fatalf("got %+v", v)
	}
}

func TestParseVersionOutputNoMatch(t *testing.T) {
	if _, err := ParseVersionOutput("command not found"); err == nil {
		t.Fatalf("expected error")
	}
}

func fakeHome(t *testing.T, name string, withJavac bool) string {
	t.Helper()
	home := filepath.Join(t.TempDir(), name)
	if err := os.MkdirAll(filepath.Join(home, "bin"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(home, "bin", "java"), []byte{}, 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if withJavac {
		if err := os.WriteFile(filepath.Join(home, "bin", "javac"), []byte{}, 0o755); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	return home
}

func TestProbeUsesInjectedExec(t *testing.T) {
	home := fakeHome(t, "jdk-17", true)
	p := &Prober{ExecVersion: func(ctx context.Context, javaHome string) (string, error) {
		return "openjdk version \"17.0.9\" 2023-10-17\n", nil
	}}
	r, err := p.Probe(context.Background(), home)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !r.IsJDK || r.Version.Major != 17 {
		t.Fatalf("got %+v", r)
	}
}

func TestDiscoverInstalledScansSiblings(t *testing.T) {
	root := t.TempDir()
	jdk17 := filepath.Join(root, "jdk-17")
	jdk11 := filepath.Join(root, "jdk-11")
	for _, h := range []string{jdk17, jdk11} {
		if err := os.MkdirAll(filepath.Join(h, "bin"), 0o755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(filepath.Join(h, "bin", "java"), []byte{}, 0o755); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	current := filepath.Join(root, "jdk-17")
	p := &Prober{ExecVersion: func(ctx context.Context, javaHome string) (string, error) {
		if javaHome == jdk17 {
			return "openjdk version \"17.0.9\" 2023-10-17\n", nil
		}
		return "openjdk version \"11.0.21\" 2023-10-17\n", nil
	}}
	runtimes := p.DiscoverInstalled(context.Background(), current)
	if len(runtimes) != 2 {
		t.Fatalf("got %d runtimes, want 2: %+v", len(runtimes), runtimes)
	}
}
