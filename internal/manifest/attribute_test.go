package manifest

import (
	"reflect"
	"testing"

	"github.com/banksean/capsule/internal/capsuleerr"
)

func mustParse(t *testing.T, raw string) *Manifest {
	t.Helper()
	m, err := Parse(raw, isPlatformTag)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

func TestLookupPrefersModePlatformOverMode(t *testing.T) {
	raw := "Main-Class: com.example.Main\nJVM-Args: -Dmain=1\n\n" +
		"Name: debug\nJVM-Args: -Dmode=1\n\n" +
		"Name: debug-Linux\nJVM-Args: -Dmodeplatform=1\n"
	m := mustParse(t, raw)
	v, ok := Lookup(m, "JVM-Args", Platform{Mode: "debug", Tags: []string{"Linux"}})
	if !ok || v != "-Dmodeplatform=1" {
		t.Fatalf("Lookup = %q, %v", v, ok)
	}
}

func TestLookupFallsBackToMode(t *testing.T) {
	raw := "Main-Class: com.example.Main\n\nName: debug\nJVM-Args: -Dmode=1\n"
	m := mustParse(t, raw)
	v, ok := Lookup(m, "JVM-Args", Platform{Mode: "debug", Tags: []string{"Linux"}})
	if !ok || v != "-Dmode=1" {
		t.Fatalf("Lookup = %q, %v", v, ok)
	}
}

func TestLookupFallsBackToMain(t *testing.T) {
	raw := "Main-Class: com.example.Main\nJVM-Args: -Dmain=1\n\nName: debug\nOther: x\n"
	m := mustParse(t, raw)
	v, ok := Lookup(m, "JVM-Args", Platform{Mode: "debug", Tags: []string{"Linux"}})
	if !ok || v != "-Dmain=1" {
		t.Fatalf("Lookup = %q, %v", v, ok)
	}
}

func TestLookupNonModalAlwaysMain(t *testing.T) {
	raw := "Main-Class: com.example.Main\nApplication-Name: demo\n\nName: debug\nOther: x\n"
	m := mustParse(t, raw)
	v, ok := Lookup(m, "Application-Name", Platform{Mode: "debug"})
	if !ok || v != "demo" {
		t.Fatalf("Lookup = %q, %v", v, ok)
	}
}

func TestParseBool(t *testing.T) {
	cases := map[string]bool{"true": true, "True": true, "false": false, "": false}
	for in, want := range cases {
		got, err := ParseBool(in)
		if err != nil {
			t.Fatalf("ParseBool(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseBool(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseBool("yes"); !capsuleerr.Is(err, capsuleerr.MalformedAttrib) {
		t.Fatalf("expected MalformedAttribute, got %v", err)
	}
}

func TestParseListAndMap(t *testing.T) {
	if got, want := ParseList(" a  b c "), []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseList = %v, want %v", got, want)
	}
	def := "true"
	m, order, err := ParseMap("a=1 b c=3", &def)
	if err != nil {
		t.Fatalf("ParseMap: %v", err)
	}
	if m["a"] != "1" || m["b"] != "true" || m["c"] != "3" {
		t.Fatalf("ParseMap = %v", m)
	}
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Fatalf("order = %v", order)
	}
	if _, _, err := ParseMap("bare", nil); !capsuleerr.Is(err, capsuleerr.MalformedAttrib) {
		t.Fatalf("expected MalformedAttribute, got %v", err)
	}
}

func TestLookupListChainConcatenatesHeadToTail(t *testing.T) {
	got := LookupListChain([]string{"a b", "b c", "d"})
	want := []string{"a", "b", "b", "c", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("LookupListChain = %v, want %v", got, want)
	}
}

func TestLookupMapChainHeadWins(t *testing.T) {
	merged, order, err := LookupMapChain([]string{"a=1 b=2", "b=99 c=3"}, nil)
	if err != nil {
		t.Fatalf("LookupMapChain: %v", err)
	}
	if merged["a"] != "1" || merged["b"] != "2" || merged["c"] != "3" {
		t.Fatalf("merged = %v", merged)
	}
	if !reflect.DeepEqual(order, []string{"a", "b", "c"}) {
		t.Fatalf("order = %v", order)
	}
}
