package identity

import "github.com/banksean/capsule/internal/capsuleerr"

// CheckWrapLoop walks a wrapper capsule's target chain (each entry the
// archive path a wrapper capsule names as its launch target) and raises
// WrapLoop if any archive path repeats, meaning a wrapper transitively
// targets itself.
func CheckWrapLoop(chain []string) error {
	seen := make(map[string]bool, len(chain))
	for _, path := range chain {
		if seen[path] {
			return capsuleerr.New(capsuleerr.WrapLoop, "wrapper capsule target chain revisits %q", path)
		}
		seen[path] = true
	}
	return nil
}
