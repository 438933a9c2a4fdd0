package control

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banksean/capsule/internal/appcache"
	"github.com/banksean/capsule/internal/caplet"
	"github.com/banksean/capsule/internal/capsuleerr"
	"github.com/banksean/capsule/internal/dependency"
	"github.com/banksean/capsule/internal/identity"
	"github.com/banksean/capsule/internal/manifest"
	"github.com/banksean/capsule/internal/platform"
	"github.com/banksean/capsule/internal/procbuilder"
	"github.com/banksean/capsule/internal/runtimeselect"
	"go.opentelemetry.io/otel/attribute"
)

// Plane is the Control Plane: it owns the caplet chain, the app-cache
// handle, and the dependency interface for one launch, and drives them
// through prepareForLaunch (spec.md §4.9) to a finished procbuilder.Spec.
type Plane struct {
	Options  Options
	Registry caplet.Registry

	Archive  *manifest.Archive
	Chain    *caplet.Chain
	RC       *RootContext
}

// OpenForLaunch opens archivePath, builds the caplet chain, and
// resolves capsule identity, ready for PrepareForLaunch.
func OpenForLaunch(ctx context.Context, archivePath string, opts Options, registry caplet.Registry) (*Plane, error) {
	return openForLaunch(ctx, archivePath, opts, registry, nil)
}

// openForLaunch is OpenForLaunch's recursive worker: wrapChain accumulates
// the archive paths visited so far when following a pure-wrapper
// capsule's local-file Application target into that target's own
// manifest, so identity.CheckWrapLoop can catch a wrapper that
// transitively targets itself (spec.md §7's WrapLoop scenario).
func openForLaunch(ctx context.Context, archivePath string, opts Options, registry caplet.Registry, wrapChain []string) (*Plane, error) {
	ctx, span := startSpan(ctx, "control.OpenForLaunch", attribute.String("capsule.archive", archivePath))
	defer span.End()

	wrapChain = append(wrapChain, archivePath)
	if err := identity.CheckWrapLoop(wrapChain); err != nil {
		return nil, err
	}

	archive, err := manifest.Open(archivePath, isPlatformTag)
	if err != nil {
		return nil, err
	}

	currentHome := os.Getenv("JAVA_HOME")
	if currentHome == "" {
		if exe, err := os.Executable(); err == nil {
			currentHome = filepath.Dir(filepath.Dir(exe))
		}
	}
	prober := platform.NewProber()
	currentRuntime, _ := prober.Probe(ctx, currentHome)

	dep := dependency.New()
	if !opts.NoDepManager {
		baseDir := filepath.Dir(archivePath)
		dep.EnsureResolver(func() dependency.Resolver {
			cacheRoot, _ := appcache.Root()
			return dependency.NewCompositeResolver(baseDir, filepath.Join(cacheRoot, "deps"))
		})
		if opts.LocalRepo != "" {
			dep.Configure([]string{opts.LocalRepo}, false)
		}
	}

	tags := platformTags(currentRuntime)
	rc := &RootContext{
		Ctx:      ctx,
		Archive:  archive,
		Manifest: archive.Manifest,
		Dep:      dep,
		Options:  opts,
		CurrentRuntime: currentRuntime,
		InstalledProbe: func() []platform.Runtime {
			return prober.DiscoverInstalled(ctx, currentHome)
		},
		CLISystemProps: map[string]string{},
		// Platform.Mode is provisional here, used only to read the
		// Caplets attribute itself (spec.md §3: a manifest almost never
		// mode-gates its own Caplets list). DispatchChooseMode below is
		// the real, overridable mode resolution; its result replaces
		// this once the chain exists to dispatch it through.
		Platform: manifest.Platform{Mode: opts.Mode, Tags: tags},
	}

	root := BuildRootLink(rc)
	names := manifest.ParseList(rc.attrDefault("Caplets", ""))
	chain := caplet.Load(ctx, root, names, registry)
	rc.Chain = chain

	mode, err := chain.DispatchChooseMode()
	if err != nil {
		return nil, err
	}
	if mode != "" && !manifest.ModeExists(rc.Manifest, mode) {
		return nil, capsuleerr.New(capsuleerr.BadSpec, "undeclared mode %q", mode)
	}
	rc.Platform = manifest.Platform{Mode: mode, Tags: tags}

	appClass, _ := rc.attr("Application-Class")
	appAttr, _ := rc.attr("Application")
	appName, _ := archive.Manifest.Main.Get("Application-Name")
	appVersion, _ := archive.Manifest.Main.Get("Application-Version")

	if appAttr != "" && dependency.LooksLikeLocalPath(appAttr) {
		targetPath := appAttr
		if !filepath.IsAbs(targetPath) {
			targetPath = filepath.Join(filepath.Dir(archivePath), targetPath)
		}
		if _, probeErr := manifest.Open(targetPath, isPlatformTag); probeErr == nil {
			// The wrapper's Application target is itself a capsule:
			// recurse into it so its own identity/caplet chain governs
			// the launch, extending wrapChain so a cycle back to an
			// archive already on the chain raises WrapLoop instead of
			// recursing forever. A target that fails to open as a
			// capsule (capsuleerr.NotACapsule) is a plain executable or
			// archive, not another wrapper link, so it's left for the
			// existing pure-wrapper identity handling below.
			return openForLaunch(ctx, targetPath, opts, registry, wrapChain)
		}
	}

	var artifact *identity.Artifact
	if appAttr != "" && !dependency.LooksLikeLocalPath(appAttr) {
		if group, art, version, _, ok := dependency.ParseMavenTriple(appAttr); ok {
			artifact = &identity.Artifact{Group: group, Artifact: art, Version: version}
		}
	}

	rc.AppClass = appClass
	rc.AppAttr = appAttr
	rc.AppName = appName
	rc.AppVersion = appVersion
	rc.AppArtifact = artifact
	rc.IsPureWrapper = appClass == "" && appName == "" && appAttr != "" && dependency.LooksLikeLocalPath(appAttr) && !rc.embeddedManifest().HasIdentity()

	// buildAppId() is a caplet-overridable operation (spec.md §4.5, §3:
	// "Capsule identity ... Computed once after caplet loading"); the
	// root's default implementation in BuildRootLink performs the same
	// identity.Resolve this used to call directly, so a successor
	// caplet overriding BuildAppID now actually governs rc.Identity.
	appID, err := chain.DispatchBuildAppID()
	if err != nil {
		return nil, err
	}
	rc.Identity = AppIdentity{Name: appID.Name, Version: appID.Version}

	return &Plane{Options: opts, Registry: registry, Archive: archive, Chain: chain, RC: rc}, nil
}

// splitCallerArgs consumes the leading run of "-Dname[=value]" and
// "-X..." tokens off callerArgs (spec.md §4.6's command-line override
// syntax), feeding system-property overrides into
// rc.CLISystemProps/CLIOrder, a verbatim "-Xbootclasspath:" value into
// rc.CLIBootClassPathOverride, and every other "-X..." flag into
// rc.CLIJVMArgs. It stops at the first token that is neither, and
// returns that token onward as the application's own argument list.
func splitCallerArgs(rc *RootContext, callerArgs []string) []string {
	i := 0
	for i < len(callerArgs) {
		arg := callerArgs[i]
		switch {
		case strings.HasPrefix(arg, "-D"):
			name, value := arg[2:], ""
			if eq := strings.IndexByte(name, '='); eq >= 0 {
				name, value = name[:eq], name[eq+1:]
			}
			if name == "" {
				return callerArgs[i:]
			}
			if _, exists := rc.CLISystemProps[name]; !exists {
				rc.CLIOrder = append(rc.CLIOrder, name)
			}
			rc.CLISystemProps[name] = value
		case strings.HasPrefix(arg, "-Xbootclasspath:"):
			rc.CLIBootClassPathOverride = strings.TrimPrefix(arg, "-Xbootclasspath:")
		case strings.HasPrefix(arg, "-X"):
			rc.CLIJVMArgs = append(rc.CLIJVMArgs, arg)
		default:
			return callerArgs[i:]
		}
		i++
	}
	return callerArgs[i:]
}

func isPlatformTag(name string) bool {
	if name == "Linux" || name == "MacOS" || name == "Windows" {
		return true
	}
	return strings.HasPrefix(name, "Java-")
}

// platformTags builds the platform tag list: the host OS family plus a
// Java major-version tag, most specific first so Lookup's per-tag loop
// tries "ModeX-Windows" before falling through. Mode validation (BadSpec
// for an undeclared mode, scenario 5) happens separately once
// DispatchChooseMode has resolved the actual mode to validate.
func platformTags(currentRuntime platform.Runtime) []string {
	tags := []string{string(platform.CurrentOS())}
	if currentRuntime.Version.Major != 0 {
		tags = append(tags, fmt.Sprintf("Java-%d", currentRuntime.Version.Major))
	}
	return tags
}

// PrepareForLaunch runs the full pipeline from spec.md §4.9: chooses the
// mode (already resolved at open time), ensures the app-cache is ready,
// finalizes identity-derived cache state, and dispatches every Path
// Assembler / Runtime Selector operation across the chain to produce a
// procbuilder.Spec ready for Process Builder materialization.
func (p *Plane) PrepareForLaunch(ctx context.Context, callerArgs []string) (procbuilder.Spec, error) {
	ctx, span := startSpan(ctx, "control.PrepareForLaunch")
	defer span.End()
	rc := p.RC

	callerArgs = splitCallerArgs(rc, callerArgs)

	needsCache, err := p.Chain.DispatchNeedsAppCache()
	if err != nil {
		return procbuilder.Spec{}, err
	}
	if needsCache {
		cacheCtx, cacheSpan := startSpan(ctx, "control.ensureAppCache")
		defer cacheSpan.End()
		ctx = cacheCtx

		root, err := appcache.Root()
		if err != nil {
			return procbuilder.Spec{}, err
		}
		cacheDir, err := appcache.AppDir(root, rc.Identity.Name, rc.Identity.Version, rc.Archive.Path)
		if err != nil {
			return procbuilder.Spec{}, err
		}
		cache, err := appcache.New(cacheDir)
		if err != nil {
			return procbuilder.Spec{}, err
		}
		rc.CacheDir = cacheDir

		archiveModTime, err := rc.Archive.ModTime()
		if err != nil {
			return procbuilder.Spec{}, err
		}
		rc.ArchiveModTime = archiveModTime
		// DispatchTestAppCacheUpToDate is the overridable observation point
		// from spec.md §4.5; appcache.Cache.EnsureExtracted below re-derives
		// and double-checks freshness itself under the lock, so its result
		// here only matters to a caplet that overrides it for side effects.
		if _, err := p.Chain.DispatchTestAppCacheUpToDate(); err != nil {
			return procbuilder.Spec{}, err
		}
		ownClassEntry, _ := rc.Archive.MainClass()
		filter := appcache.DefaultFilter(classEntryPath(ownClassEntry))
		var entries []appcache.Entry
		for _, e := range rc.Archive.Entries() {
			e := e
			entries = append(entries, appcache.Entry{
				Name:  e.Name,
				IsDir: e.IsDir,
				OpenRdr: func() (io.ReadCloser, error) {
					return rc.Archive.OpenEntry(e)
				},
			})
		}
		if err := cache.EnsureExtracted(ctx, needsCache, archiveModTime, rc.Options.Reset, entries, filter); err != nil {
			return procbuilder.Spec{}, err
		}
		rc.Extracted = true
		if err := p.Chain.DispatchExtractCapsule(); err != nil {
			return procbuilder.Spec{}, err
		}
		if err := p.Chain.DispatchMarkCache(); err != nil {
			return procbuilder.Spec{}, err
		}
	}

	javaHomeOverride := rc.Options.JavaHome
	if javaHomeOverride == "" {
		javaHomeOverride, err = p.Chain.DispatchChooseJavaHome()
		if err != nil {
			return procbuilder.Spec{}, err
		}
	}
	constraints, err := p.buildConstraints()
	if err != nil {
		return procbuilder.Spec{}, err
	}
	chosen, err := runtimeselect.Select(javaHomeOverride, rc.CurrentRuntime, rc.InstalledProbe(), constraints)
	if err != nil {
		return procbuilder.Spec{}, err
	}
	rc.ChosenRuntime = chosen

	javaExe, err := p.Chain.DispatchGetJavaExecutable()
	if err != nil {
		return procbuilder.Spec{}, err
	}

	classPath, err := p.Chain.DispatchBuildClassPath()
	if err != nil {
		return procbuilder.Spec{}, err
	}
	bootAbs, err := p.Chain.DispatchBuildBootClassPath()
	if err != nil {
		return procbuilder.Spec{}, err
	}
	bootP, err := p.Chain.DispatchBuildBootClassPathP()
	if err != nil {
		return procbuilder.Spec{}, err
	}
	bootA, err := p.Chain.DispatchBuildBootClassPathA()
	if err != nil {
		return procbuilder.Spec{}, err
	}
	bootOptions := renderBootClassPathOptions(bootP, bootAbs, bootA)

	sysProps, err := p.Chain.DispatchBuildSystemProperties()
	if err != nil {
		return procbuilder.Spec{}, err
	}
	sysPropOptions := renderSystemProperties(sysProps)

	jvmArgs, err := p.Chain.DispatchBuildJVMArgs()
	if err != nil {
		return procbuilder.Spec{}, err
	}

	agents, err := p.Chain.DispatchBuildJavaAgents()
	if err != nil {
		return procbuilder.Spec{}, err
	}
	agentOptions := renderJavaAgents(agents)

	env, err := p.Chain.DispatchBuildEnvironmentVariables(environAsMap())
	if err != nil {
		return procbuilder.Spec{}, err
	}

	appArgs, err := p.Chain.DispatchBuildArgs(callerArgs)
	if err != nil {
		return procbuilder.Spec{}, err
	}

	appClass, _ := rc.attr("Application-Class")

	in := procbuilder.Inputs{
		JavaExecutable:  javaExe,
		JVMArgs:         jvmArgs,
		SystemProps:     sysPropOptions,
		BootClassPath:   bootOptions,
		JavaAgents:      agentOptions,
		ClassPath:       classPath,
		MainClass:       appClass,
		AppArgs:         appArgs,
		Env:             env,
		Dir:             filepath.Dir(rc.Archive.Path),
		Trampoline:      rc.Options.Trampoline,
		HasEnvAttribute: hasEnvironmentVariablesAttr(rc),
	}
	if unixScript, ok := rc.attr("Unix-Script"); ok && platform.CurrentOS() != platform.Windows {
		in.ScriptPath = unixScript
		in.ScriptArgs = appArgs
	} else if winScript, ok := rc.attr("Windows-Script"); ok && platform.CurrentOS() == platform.Windows {
		in.ScriptPath = winScript
		in.ScriptArgs = appArgs
	}

	return procbuilder.Build(in)
}

func hasEnvironmentVariablesAttr(rc *RootContext) bool {
	_, ok := rc.attr("Environment-Variables")
	return ok
}

func classEntryPath(mainClass string) string {
	if mainClass == "" {
		return ""
	}
	return strings.ReplaceAll(mainClass, ".", "/") + ".class"
}

func (p *Plane) buildConstraints() (runtimeselect.Constraints, error) {
	rc := p.RC
	c := runtimeselect.Constraints{
		MinJavaVersion: rc.attrDefault("Min-Java-Version", ""),
		JavaVersion:    rc.attrDefault("Java-Version", ""),
	}
	if jdk, ok := rc.attr("JDK-Required"); ok {
		b, err := manifest.ParseBool(jdk)
		if err != nil {
			return c, err
		}
		c.JDKRequired = b
	}
	if raw, ok := rc.attr("Min-Update-Version"); ok {
		entries, order, err := manifest.ParseMap(raw, nil)
		if err != nil {
			return c, err
		}
		c.MinUpdateByMM = map[string]int{}
		for _, k := range order {
			n, err := manifest.ParseLong(entries[k])
			if err != nil {
				return c, err
			}
			c.MinUpdateByMM[k] = int(n)
		}
	}
	return c, nil
}

func renderBootClassPathOptions(prepend, abs, appendEntries []string) []string {
	var out []string
	if len(prepend) > 0 {
		out = append(out, "-Xbootclasspath/p:"+strings.Join(prepend, string(filepath.ListSeparator)))
	}
	if len(abs) > 0 {
		out = append(out, "-Xbootclasspath:"+strings.Join(abs, string(filepath.ListSeparator)))
	}
	if len(appendEntries) > 0 {
		out = append(out, "-Xbootclasspath/a:"+strings.Join(appendEntries, string(filepath.ListSeparator)))
	}
	return out
}

// renderSystemProperties renders a caplet chain's map-typed result as
// -D options in sorted key order. The chain dispatch protocol carries
// system properties as a plain map (see caplet.Link), so the
// declaration-order guarantee pathasm.BuildSystemProperties honors
// internally is already lost by the time a caplet override hands back
// its own map; sorting here at least keeps argv output deterministic
// across runs.
func renderSystemProperties(props map[string]string) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if props[k] == "" {
			out = append(out, "-D"+k)
			continue
		}
		out = append(out, "-D"+k+"="+props[k])
	}
	return out
}

func renderJavaAgents(agents *caplet.OrderedMap) []string {
	if agents == nil {
		return nil
	}
	var list []struct{ Path, Options string }
	for _, k := range agents.Keys() {
		v, _ := agents.Get(k)
		list = append(list, struct{ Path, Options string }{k, v})
	}
	out := make([]string, 0, len(list))
	for _, a := range list {
		if a.Options != "" {
			out = append(out, "-javaagent:"+a.Path+"="+a.Options)
		} else {
			out = append(out, "-javaagent:"+a.Path)
		}
	}
	return out
}

func environAsMap() map[string]string {
	out := map[string]string{}
	for _, kv := range os.Environ() {
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			out[kv[:idx]] = kv[idx+1:]
		}
	}
	return out
}

// Cleanup runs the chain's cleanup op and removes any synthesized
// pathing jar. Idempotent; errors are logged by the caller, never fatal.
func (p *Plane) Cleanup(spec procbuilder.Spec) error {
	if spec.PathingJarPath != "" {
		if err := procbuilder.CleanupPathingJar(spec.PathingJarPath); err != nil {
			return err
		}
	}
	return p.Chain.DispatchCleanup()
}
