package pathasm

import "strings"

// BuildArgs expands each declared Args entry against expand (which
// resolves $n/$* references into callerArgs), then appends any caller
// args not already consumed by a $* expansion.
func BuildArgs(declared []string, callerArgs []string, expand func(string) (string, error)) ([]string, error) {
	consumedAll := false
	out := make([]string, 0, len(declared)+len(callerArgs))
	for _, d := range declared {
		if strings.Contains(d, "$*") {
			consumedAll = true
		}
		v, err := expand(d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if !consumedAll {
		out = append(out, callerArgs...)
	}
	return out, nil
}

// Agent is one Java-Agents entry: a resolved path plus its raw options
// string (empty if none).
type Agent struct {
	Path    string
	Options string
}

// BuildJavaAgentOptions renders -javaagent:<path>[=<options>] strings in
// declaration order.
func BuildJavaAgentOptions(agents []Agent) []string {
	out := make([]string, 0, len(agents))
	for _, a := range agents {
		if a.Options != "" {
			out = append(out, "-javaagent:"+a.Path+"="+a.Options)
		} else {
			out = append(out, "-javaagent:"+a.Path)
		}
	}
	return out
}
