package platform

import "testing"

func TestNativeLibrarySuffix(t *testing.T) {
	cases := map[OSFamily]string{Linux: ".so", MacOS: ".dylib", Windows: ".dll"}
	for os, want := range cases {
		if got := NativeLibrarySuffix(os); got != want {
			t.Fatalf("NativeLibrarySuffix(%s) = %q, want %q", os, got, want)
		}
	}
}

func TestIsJDKDetection(t *testing.T) {
	withJavac := fakeHome(t, "jdk", true)
	withoutJavac := fakeHome(t, "jre", false)
	if !IsJDK(withJavac) {
		t.Fatalf("expected JDK detection")
	}
	if IsJDK(withoutJavac) {
		t.Fatalf("expected non-JDK")
	}
}
