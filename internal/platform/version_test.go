package platform

import "testing"

func TestParseVersionLegacy(t *testing.T) {
	v, err := ParseVersion("1.8.0_312")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v.Major != 8 || v.Minor != 0 || v.Update != 312 {
		t.Fatalf("got %+v", v)
	}
	if v.MajorMinor() != "1.8" {
		t.Fatalf("MajorMinor = %q", v.MajorMinor())
	}
}

func TestParseVersionModern(t *testing.T) {
	v, err := ParseVersion("17.0.9")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if v.Major != 17 || v.Minor != 0 || v.Patch != 9 {
		t.Fatalf("got %+v", v)
	}
	if v.MajorMinor() != "17" {
		t.Fatalf("MajorMinor = %q", v.MajorMinor())
	}
}

func TestParseVersionEarlyAccess(t *testing.T) {
	v, err := ParseVersion("21-ea")
	if err != nil {
		t.Fatalf("ParseVersion: %v", err)
	}
	if !v.Prerelease {
		t.Fatalf("expected prerelease")
	}
}

func TestCompareOrdersMajorMinorPatchUpdate(t *testing.T) {
	a, _ := ParseVersion("11.0.2")
	b, _ := ParseVersion("11.0.9")
	if a.Compare(b) >= 0 {
		t.Fatalf("expected a < b")
	}
	if !b.AtLeast(a) {
		t.Fatalf("expected b >= a")
	}
}

func TestComparePrereleaseSortsBelowRelease(t *testing.T) {
	rel, _ := ParseVersion("21")
	ea, _ := ParseVersion("21-ea")
	if ea.Compare(rel) >= 0 {
		t.Fatalf("expected ea < rel")
	}
}
