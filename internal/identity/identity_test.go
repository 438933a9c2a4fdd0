package identity

import (
	"testing"

	"github.com/banksean/capsule/internal/capsuleerr"
	"github.com/banksean/capsule/internal/dependency"
)

func TestResolvePrefersApplicationName(t *testing.T) {
	id, err := Resolve(Inputs{
		ApplicationName:    "demo",
		ApplicationVersion: "1.0",
		Application:        &Artifact{Artifact: "other", Version: "9.9"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.Name != "demo" || id.Version != "1.0" {
		t.Fatalf("got %+v", id)
	}
	if id.AppID() != "demo-1.0" {
		t.Fatalf("got AppID %q", id.AppID())
	}
}

func TestResolveFallsBackToApplicationArtifact(t *testing.T) {
	id, err := Resolve(Inputs{Application: &Artifact{Artifact: "widget", Version: "2.0"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.Name != "widget" || id.Version != "2.0" {
		t.Fatalf("got %+v", id)
	}
}

func TestResolveFallsBackToEmbeddedManifest(t *testing.T) {
	id, err := Resolve(Inputs{Embedded: dependency.EmbeddedManifest{ArtifactID: "embedded-app", Version: "3.0"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.Name != "embedded-app" || id.Version != "3.0" {
		t.Fatalf("got %+v", id)
	}
}

func TestResolveFallsBackToMainClass(t *testing.T) {
	id, err := Resolve(Inputs{ApplicationClass: "com.acme.Foo"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.Name != "Foo" || id.Version != "" {
		t.Fatalf("got %+v", id)
	}
}

func TestResolvePureWrapperNeedsNoIdentity(t *testing.T) {
	id, err := Resolve(Inputs{IsPureWrapper: true})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id.Name != "" {
		t.Fatalf("expected empty identity, got %+v", id)
	}
}

func TestResolveRaisesBadSpecWithNoSource(t *testing.T) {
	_, err := Resolve(Inputs{})
	if !capsuleerr.Is(err, capsuleerr.BadSpec) {
		t.Fatalf("expected BadSpec, got %v", err)
	}
}

func TestCheckWrapLoopDetectsRevisit(t *testing.T) {
	err := CheckWrapLoop([]string{"/a.jar", "/b.jar", "/a.jar"})
	if !capsuleerr.Is(err, capsuleerr.WrapLoop) {
		t.Fatalf("expected WrapLoop, got %v", err)
	}
}

func TestCheckWrapLoopAllowsAcyclicChain(t *testing.T) {
	if err := CheckWrapLoop([]string{"/a.jar", "/b.jar", "/c.jar"}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
