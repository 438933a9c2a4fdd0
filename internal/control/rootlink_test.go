package control

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/banksean/capsule/internal/dependency"
	"github.com/banksean/capsule/internal/manifest"
)

func newTestRootContext(t *testing.T, raw string) *RootContext {
	t.Helper()
	m, err := manifest.Parse(raw, isPlatformTag)
	if err != nil {
		t.Fatalf("manifest.Parse: %v", err)
	}
	archivePath := filepath.Join(t.TempDir(), "app.jar")
	return &RootContext{
		Ctx:      context.Background(),
		Archive:  &manifest.Archive{Path: archivePath, Manifest: m},
		Manifest: m,
		Identity: AppIdentity{Name: "exampleapp", Version: "1.0"},
		Dep:      dependency.New(),
	}
}

func TestBuildEnvironmentVariablesPlainAndForced(t *testing.T) {
	rc := newTestRootContext(t, "Main-Class: Capsule\n"+
		"Environment-Variables: FOO=bar PATH:=/override/bin\n")
	env, err := rc.buildEnvironmentVariables(map[string]string{"PATH": "/usr/bin", "UNRELATED": "1"})
	if err != nil {
		t.Fatalf("buildEnvironmentVariables: %v", err)
	}
	if env["FOO"] != "bar" {
		t.Fatalf("FOO = %q, want bar", env["FOO"])
	}
	if env["PATH"] != "/override/bin" {
		t.Fatalf("PATH = %q, want forced override", env["PATH"])
	}
	if env["CAPSULE_APP"] == "" {
		t.Fatalf("expected CAPSULE_APP to be computed")
	}
}

func TestBuildSystemPropertiesIncludesComputedKeys(t *testing.T) {
	rc := newTestRootContext(t, "Main-Class: Capsule\nSystem-Properties: my.prop=1\n")
	props, err := rc.buildSystemProperties()
	if err != nil {
		t.Fatalf("buildSystemProperties: %v", err)
	}
	if props["my.prop"] != "1" {
		t.Fatalf("my.prop = %q, want 1", props["my.prop"])
	}
	if props["capsule.app"] == "" || props["capsule.jar"] == "" {
		t.Fatalf("expected capsule.app/capsule.jar to be computed, got %+v", props)
	}
}

func TestBuildJavaAgentsResolvesLocalPath(t *testing.T) {
	rc := newTestRootContext(t, "Main-Class: Capsule\nJava-Agents: agent.jar=opt1,opt2\n")
	agents, err := rc.buildJavaAgents()
	if err != nil {
		t.Fatalf("buildJavaAgents: %v", err)
	}
	keys := agents.Keys()
	if len(keys) != 1 {
		t.Fatalf("got %d agents, want 1", len(keys))
	}
	if filepath.Base(keys[0]) != "agent.jar" {
		t.Fatalf("agent path = %q, want to end in agent.jar", keys[0])
	}
	opts, _ := agents.Get(keys[0])
	if opts != "opt1,opt2" {
		t.Fatalf("agent opts = %q, want opt1,opt2", opts)
	}
}

func TestBuildClassPathRejectsArtifactAppClassPathEntry(t *testing.T) {
	rc := newTestRootContext(t, "Main-Class: Capsule\nApp-Class-Path: com.example:lib:1.0\n")
	if _, err := rc.buildClassPath(); err == nil {
		t.Fatalf("expected an error for an artifact-shaped App-Class-Path entry")
	}
}
