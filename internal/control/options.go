// Package control implements the Control Plane: top-level option
// processing, action dispatch, and the prepareForLaunch orchestration
// that wires the Archive Reader, Caplet Chain, App-Cache Manager,
// Dependency Interface, Path Assembler, Runtime Selector, and Process
// Builder together into a single launch.
package control

import "strings"

// CLI is the kong command-line schema, following cmd/sand/main.go's
// flat-struct-plus-kong.Parse style. Each flag's kong name tag is a
// dashed command-line name; FromCLI copies the parsed flags into the
// Options value the rest of the pipeline consults.
type CLI struct {
	Archive string   `arg:"" optional:"" help:"path to the capsule archive to launch"`
	// passthrough stops kong from interpreting trailing "-Dname=value"
	// and "-X..." tokens as unknown flags: they're the caller's system
	// property and JVM-arg overrides (spec.md §4.6), split back out of
	// this slice by the Control Plane before the app's own args reach
	// the launched application.
	Args []string `arg:"" optional:"" passthrough:"" help:"capsule-style -D/-X overrides followed by arguments passed through to the launched application"`

	Version      bool   `name:"version" help:"print capsule and application version information and exit"`
	Modes        bool   `name:"modes" help:"list the modes declared in the capsule manifest and exit"`
	Tree         bool   `name:"tree" help:"print the resolved dependency tree and exit"`
	Resolve      bool   `name:"resolve" help:"resolve dependencies and exit, without launching"`
	JVMs         bool   `name:"jvms" help:"list detected Java runtimes and exit"`
	Mode         string `name:"mode" help:"select a declared manifest mode"`
	Reset        bool   `name:"reset" help:"force the app-cache to re-extract"`
	Log          string `name:"log" default:"quiet" enum:"none,quiet,verbose,debug" help:"log level: none, quiet, verbose, debug"`
	JavaHome     string `name:"java-home" help:"override the selected Java home"`
	JavaCmd      string `name:"java-cmd" help:"override the java executable to invoke"`
	Local        string `name:"local" help:"override the local dependency repository"`
	JVMArgs      string `name:"jvm-args" help:"extra JVM arguments, appended after the manifest's JVM-Args"`
	Trampoline   bool   `name:"trampoline" help:"print the assembled command line instead of spawning it"`
	NoDepManager bool   `name:"no_dep_manager" help:"disable the dependency resolver"`

	LogFile string `name:"log-file" help:"path to the rotated log file (leave unset for a temp file)"`
}

// Action is one of the Control Plane's non-launch actions (spec.md §4.9,
// §6): each prints something and the process exits without launching.
type Action string

const (
	ActionNone    Action = ""
	ActionVersion Action = "version"
	ActionModes   Action = "modes"
	ActionTree    Action = "tree"
	ActionResolve Action = "resolve"
	ActionJVMs    Action = "jvms"
)

// SelectedAction resolves which single action (if any) the CLI flags
// requested. Precedence matches the order spec.md §6 lists the flags in.
func (c CLI) SelectedAction() Action {
	switch {
	case c.Version:
		return ActionVersion
	case c.Modes:
		return ActionModes
	case c.Tree:
		return ActionTree
	case c.Resolve:
		return ActionResolve
	case c.JVMs:
		return ActionJVMs
	}
	return ActionNone
}

// Options is the internal property settings the rest of the pipeline
// consumes, converted once from the parsed CLI flags.
type Options struct {
	Mode         string
	Reset        bool
	LogLevel     string
	JavaHome     string
	JavaCmd      string
	LocalRepo    string
	ExtraJVMArgs []string
	Trampoline   bool
	NoDepManager bool
	LogFile      string
}

// FromCLI converts parsed CLI flags into Options.
func FromCLI(c CLI) Options {
	return Options{
		Mode:         c.Mode,
		Reset:        c.Reset,
		LogLevel:     c.Log,
		JavaHome:     c.JavaHome,
		JavaCmd:      c.JavaCmd,
		LocalRepo:    c.Local,
		ExtraJVMArgs: splitArgs(c.JVMArgs),
		Trampoline:   c.Trampoline,
		NoDepManager: c.NoDepManager,
		LogFile:      c.LogFile,
	}
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Fields(s)
}

// PropertyName renders a dashed CLI flag name (as kong sees it, e.g.
// "java-home") as its dotted internal property name (e.g.
// "capsule.java.home"), per spec.md §6's naming rule run in reverse:
// each "-"-joined word becomes "."-joined, prefixed with "capsule.".
func PropertyName(dashedFlag string) string {
	return "capsule." + strings.ReplaceAll(dashedFlag, "-", ".")
}

// DashedFlagName renders a dotted internal property name (e.g.
// "capsule.java.home") as its dashed CLI flag name ("java-home"):
// strip the "capsule." prefix, then join remaining dot-separated words
// with "-".
func DashedFlagName(property string) string {
	trimmed := strings.TrimPrefix(property, "capsule.")
	return strings.ReplaceAll(trimmed, ".", "-")
}
