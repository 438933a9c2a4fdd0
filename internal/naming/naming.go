// Package naming generates the disposable, human- and trace-friendly
// names the pipeline needs for things that have no identity of their
// own: temp directories for a synthesized pathing jar, and per-run
// correlation names for logs and trace spans.
package naming

import (
	"time"

	"github.com/goombaio/namegenerator"
	"github.com/google/uuid"
)

// RunID returns a UUID suitable for a single launch-pipeline run's trace
// and log correlation, following the same github.com/google/uuid usage
// the CLI commands use for sandbox/session identifiers.
func RunID() string {
	return uuid.NewString()
}

// PathingJarName returns a short, memorable name for a synthesized
// pathing-jar temp directory, seeded from the current time so repeated
// calls within the same process don't collide. It is not part of any
// identity computation; it exists only to make a throwaway temp path
// legible in logs and in `ps` output.
func PathingJarName() string {
	gen := namegenerator.NewNameGenerator(time.Now().UTC().UnixNano())
	return gen.Generate()
}
