package pathasm

// Props is an insertion-ordered key/value set, used for system
// properties and environment variables where argv/child-environment
// order must stay deterministic across runs.
type Props struct {
	keys   []string
	values map[string]string
}

func NewProps() *Props { return &Props{values: map[string]string{}} }

// Set assigns k=v, appending k to the order only the first time it's seen.
func (p *Props) Set(k, v string) {
	if p.values == nil {
		p.values = map[string]string{}
	}
	if _, exists := p.values[k]; !exists {
		p.keys = append(p.keys, k)
	}
	p.values[k] = v
}

func (p *Props) Get(k string) (string, bool) {
	v, ok := p.values[k]
	return v, ok
}

func (p *Props) Keys() []string { return p.keys }

func (p *Props) AsMap() map[string]string {
	out := make(map[string]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// SystemPropertiesInputs carries the declared and computed property
// sources that combine into the final system-property set.
type SystemPropertiesInputs struct {
	Declared map[string]string // from System-Properties, in manifest declaration order
	DeclaredOrder []string
	Computed map[string]string // java.library.path, capsule.app/dir/jar, security.*, in computed order
	ComputedOrder []string
	CLIOverrides map[string]string // -Dname=value and bare -Dname
	CLIOrder []string
}

// BuildSystemProperties combines declared, computed, and CLI-supplied
// properties: declared first (in manifest order), then computed entries
// not already declared, with CLI overrides taking precedence over both
// by value while preserving first-occurrence order (scenario 3).
func BuildSystemProperties(in SystemPropertiesInputs, expand func(string) (string, error)) (*Props, error) {
	out := NewProps()
	for _, k := range in.DeclaredOrder {
		v, err := expand(in.Declared[k])
		if err != nil {
			return nil, err
		}
		out.Set(k, v)
	}
	for _, k := range in.ComputedOrder {
		if _, exists := out.Get(k); exists {
			continue
		}
		out.Set(k, in.Computed[k])
	}
	for _, k := range in.CLIOrder {
		out.Set(k, in.CLIOverrides[k])
	}
	return out, nil
}

// EnvironmentInputs carries the inherited environment and the
// Environment-Variables declarations plus computed additions.
type EnvironmentInputs struct {
	Inherited map[string]string
	// Declared entries, in declaration order; ForceOverwrite[i] is true
	// for a "NAME:=value" entry.
	DeclaredNames   []string
	DeclaredValues  []string
	ForceOverwrite  []bool
	Computed        map[string]string // CAPSULE_APP, CAPSULE_DIR, CAPSULE_JAR, and for scripts CLASSPATH/JAVA_HOME
	ComputedOrder   []string
}

// BuildEnvironmentVariables starts from the inherited environment, then
// applies Environment-Variables (NAME=value preserves an existing
// value; NAME:=value forces overwrite), then adds the computed entries.
func BuildEnvironmentVariables(in EnvironmentInputs) *Props {
	out := NewProps()
	for k, v := range in.Inherited {
		out.Set(k, v)
	}
	for i, name := range in.DeclaredNames {
		_, exists := out.Get(name)
		if exists && !in.ForceOverwrite[i] {
			continue
		}
		out.Set(name, in.DeclaredValues[i])
	}
	for _, k := range in.ComputedOrder {
		out.Set(k, in.Computed[k])
	}
	return out
}
