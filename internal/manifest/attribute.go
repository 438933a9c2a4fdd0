package manifest

import (
	"strconv"
	"strings"

	"github.com/banksean/capsule/internal/capsuleerr"
)

// Platform describes the concrete resolution context attribute lookups
// are performed against: the active mode (if any) and the host platform
// tags (OS family plus Java major-version tag) used to pick sections.
type Platform struct {
	Mode string
	Tags []string // e.g. []string{"Linux", "Java-17"}
}

func (p Platform) isTag(name string) bool {
	for _, t := range p.Tags {
		if t == name {
			return true
		}
	}
	return name == "Linux" || name == "MacOS" || name == "Windows" || strings.HasPrefix(name, "Java-")
}

// Lookup resolves a single named attribute against a Manifest using the
// preference order mode-platform, then mode, then bare platform, then
// main (the mode steps are skipped when no mode is active). Non-modal attributes (see nonModalKeys) always
// resolve from the main section.
func Lookup(m *Manifest, name string, p Platform) (string, bool) {
	if nonModalKeys[name] {
		return m.Main.Get(name)
	}
	if p.Mode != "" {
		for _, plat := range p.Tags {
			if v, ok := findSection(m, p.Mode, plat).Get(name); ok {
				return v, true
			}
		}
		if v, ok := findSection(m, p.Mode, "").Get(name); ok {
			return v, true
		}
	}
	for _, plat := range p.Tags {
		if v, ok := findSection(m, "", plat).Get(name); ok {
			return v, true
		}
	}
	return m.Main.Get(name)
}

func findSection(m *Manifest, mode, platform string) *Section {
	for _, s := range m.Sections {
		if s.Mode == mode && s.Platform == platform {
			return s
		}
	}
	return nil
}

// ModeExists reports whether mode names a declared section.
func ModeExists(m *Manifest, mode string) bool {
	if mode == "" {
		return true
	}
	for _, s := range m.Sections {
		if s.Mode == mode {
			return true
		}
	}
	return false
}

// ParseBool parses the `true`/`false` (case-insensitive) wire form.
func ParseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		return true, nil
	case "false", "":
		return false, nil
	default:
		return false, capsuleerr.New(capsuleerr.MalformedAttrib, "not a boolean: %q", raw)
	}
}

// ParseLong parses a whitespace-trimmed integer attribute.
func ParseLong(raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, capsuleerr.Wrap(capsuleerr.MalformedAttrib, err, "not a long: %q", raw)
	}
	return v, nil
}

// ParseDouble parses a whitespace-trimmed floating point attribute.
func ParseDouble(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, capsuleerr.Wrap(capsuleerr.MalformedAttrib, err, "not a double: %q", raw)
	}
	return v, nil
}

// ParseList splits on whitespace, trims each element, and drops empties.
func ParseList(raw string) []string {
	fields := strings.Fields(raw)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ParseMap splits on whitespace into "key=value" or bare-key elements.
// A bare key takes defaultValue; if defaultValue is nil, a bare key is a
// MalformedAttribute.
func ParseMap(raw string, defaultValue *string) (map[string]string, []string, error) {
	out := map[string]string{}
	var order []string
	for _, item := range ParseList(raw) {
		idx := strings.Index(item, "=")
		if idx < 0 {
			if defaultValue == nil {
				return nil, nil, capsuleerr.New(capsuleerr.MalformedAttrib, "valueless map entry %q has no default", item)
			}
			out[item] = *defaultValue
			order = append(order, item)
			continue
		}
		k, v := item[:idx], item[idx+1:]
		out[k] = v
		order = append(order, k)
	}
	return out, order, nil
}

// LookupListChain resolves a list-typed attribute across a caplet chain:
// spec.md §4.2 requires concatenation from head to tail (root caplet's
// own contribution first, then each successor's appended in order).
// ownValues holds each link's locally declared raw value, outermost
// (root) first.
func LookupListChain(ownValues []string) []string {
	var out []string
	for _, v := range ownValues {
		out = append(out, ParseList(v)...)
	}
	return out
}

// LookupMapChain merges map-typed attributes across a chain: earlier
// (head/root) entries take precedence over later (tail) duplicates.
func LookupMapChain(ownValues []string, defaultValue *string) (map[string]string, []string, error) {
	merged := map[string]string{}
	var order []string
	for _, v := range ownValues {
		m, ord, err := ParseMap(v, defaultValue)
		if err != nil {
			return nil, nil, err
		}
		for _, k := range ord {
			if _, exists := merged[k]; !exists {
				merged[k] = m[k]
				order = append(order, k)
			}
		}
	}
	return merged, order, nil
}
