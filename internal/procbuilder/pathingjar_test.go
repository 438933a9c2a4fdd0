package procbuilder

import "testing"

func TestCanonicalJVMArgKeyColonSeparated(t *testing.T) {
	if canonicalJVMArgKey("-Xbar:120") != canonicalJVMArgKey("-Xbar:5") {
		t.Fatalf("expected shared canonical key for colon-separated -Xbar flags")
	}
}

func TestEstimateCommandLengthGrowsWithClassPath(t *testing.T) {
	small := estimateCommandLength([]string{"/a.jar"}, &Inputs{JavaExecutable: "java", MainClass: "M"})
	large := estimateCommandLength([]string{"/a.jar", "/very/long/path/to/another/dependency/jar/file.jar"}, &Inputs{JavaExecutable: "java", MainClass: "M"})
	if large <= small {
		t.Fatalf("expected larger classpath to estimate a longer command, got small=%d large=%d", small, large)
	}
}

func TestCleanupPathingJarNoopOnEmptyPath(t *testing.T) {
	if err := CleanupPathingJar(""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
