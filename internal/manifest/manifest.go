// Package manifest implements the capsule archive reader and the
// mode-and-platform-aware attribute model that sits on top of it.
package manifest

import (
	"bufio"
	"strings"

	"github.com/banksean/capsule/internal/capsuleerr"
)

// nonModalKeys must appear only in the main section.
var nonModalKeys = map[string]bool{
	"Application-Name":    true,
	"Application-Version": true,
	"Application":         true,
	"Main-Class":          true,
}

// Section is a single attribute block from a manifest: either the main
// section (Mode == "" && Platform == "") or a named mode/platform overlay.
type Section struct {
	Mode     string
	Platform string
	Attrs    map[string]string
}

// IsMain reports whether this is the manifest's single main section.
func (s *Section) IsMain() bool { return s.Mode == "" && s.Platform == "" }

// Manifest is the parsed key/value attribute store of a capsule archive:
// exactly one main section plus zero or more mode/platform sections.
type Manifest struct {
	Main     *Section
	Sections []*Section
}

// sectionName legality: any token not containing '/' and not ending in
// ".class" is a legal mode name.
func legalModeName(name string) bool {
	if name == "" {
		return false
	}
	if strings.Contains(name, "/") {
		return false
	}
	if strings.HasSuffix(name, ".class") {
		return false
	}
	return true
}

// splitSectionName splits a raw section header of the form "Mode",
// "Platform", or "Mode-Platform" into its mode and platform components.
// Platform tags are recognized OS families and Java-N version tags; a
// section name that doesn't match either shape is treated as a bare mode.
func splitSectionName(name string, isPlatformTag func(string) bool) (mode, platform string) {
	if isPlatformTag(name) {
		return "", name
	}
	for idx := strings.LastIndex(name, "-"); idx > 0; idx = strings.LastIndex(name[:idx], "-") {
		candidate := name[idx+1:]
		if isPlatformTag(candidate) {
			return name[:idx], candidate
		}
	}
	return name, ""
}

// Parse parses the textual, section-oriented manifest format: a main
// block of "Key: Value" lines, followed by blank-line-separated named
// sections each introduced by a "Name: <section-name>" line.
func Parse(raw string, isPlatformTag func(string) bool) (*Manifest, error) {
	blocks := splitBlocks(raw)
	if len(blocks) == 0 {
		return nil, capsuleerr.New(capsuleerr.NotACapsule, "manifest has no content")
	}

	m := &Manifest{}
	for i, block := range blocks {
		attrs, name := parseBlock(block)
		if i == 0 {
			m.Main = &Section{Attrs: attrs}
			continue
		}
		if name == "" {
			// A block with no Name: header after the first is malformed;
			// fold it into the main section rather than reject the archive.
			for k, v := range attrs {
				m.Main.Attrs[k] = v
			}
			continue
		}
		if !legalModeName(strings.SplitN(name, "-", 2)[0]) && !isPlatformTag(name) {
			return nil, capsuleerr.New(capsuleerr.BadSpec, "illegal section name %q", name)
		}
		mode, platform := splitSectionName(name, isPlatformTag)
		for k := range attrs {
			if nonModalKeys[k] {
				return nil, capsuleerr.New(capsuleerr.BadSpec, "non-modal attribute %q in section %q", k, name)
			}
		}
		m.Sections = append(m.Sections, &Section{Mode: mode, Platform: platform, Attrs: attrs})
	}

	if m.Main == nil {
		return nil, capsuleerr.New(capsuleerr.NotACapsule, "manifest has no main section")
	}
	if _, ok := m.Main.Attrs["Main-Class"]; !ok {
		return nil, capsuleerr.New(capsuleerr.NotACapsule, "manifest has no Main-Class")
	}
	return m, nil
}

func splitBlocks(raw string) []string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	var blocks []string
	var cur strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(normalized))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			if cur.Len() > 0 {
				blocks = append(blocks, cur.String())
				cur.Reset()
			}
			continue
		}
		cur.WriteString(line)
		cur.WriteByte('\n')
	}
	if cur.Len() > 0 {
		blocks = append(blocks, cur.String())
	}
	return blocks
}

func parseBlock(block string) (attrs map[string]string, name string) {
	attrs = map[string]string{}
	lines := strings.Split(block, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		// Continuation lines start with a single leading space, per the
		// wire format's folding convention.
		for i+1 < len(lines) && strings.HasPrefix(lines[i+1], " ") {
			i++
			val += strings.TrimPrefix(lines[i], " ")
		}
		if key == "Name" {
			name = val
			continue
		}
		attrs[key] = val
	}
	return attrs, name
}

// Get returns the raw string value of name from this section only, and
// whether it was present.
func (s *Section) Get(name string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.Attrs[name]
	return v, ok
}
