package control

import (
	"reflect"
	"testing"
)

func TestSelectedActionPrecedence(t *testing.T) {
	c := CLI{Version: true, Modes: true}
	if got := c.SelectedAction(); got != ActionVersion {
		t.Fatalf("got %v, want ActionVersion", got)
	}
}

func TestSelectedActionNoneWhenNoFlags(t *testing.T) {
	if got := (CLI{}).SelectedAction(); got != ActionNone {
		t.Fatalf("got %v, want ActionNone", got)
	}
}

func TestFromCLISplitsJVMArgs(t *testing.T) {
	opts := FromCLI(CLI{JVMArgs: "-Xfoo500 -Xbar:120"})
	want := []string{"-Xfoo500", "-Xbar:120"}
	if !reflect.DeepEqual(opts.ExtraJVMArgs, want) {
		t.Fatalf("got %v, want %v", opts.ExtraJVMArgs, want)
	}
}

func TestPropertyNameAndDashedFlagNameRoundTrip(t *testing.T) {
	if got := PropertyName("java-home"); got != "capsule.java.home" {
		t.Fatalf("got %q", got)
	}
	if got := DashedFlagName("capsule.java.home"); got != "java-home" {
		t.Fatalf("got %q", got)
	}
}
