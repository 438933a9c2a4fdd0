package control

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/banksean/capsule/internal/appcache"
	"github.com/banksean/capsule/internal/capsuleerr"
	"github.com/banksean/capsule/internal/caplet"
	"github.com/banksean/capsule/internal/dependency"
	"github.com/banksean/capsule/internal/identity"
	"github.com/banksean/capsule/internal/manifest"
	"github.com/banksean/capsule/internal/pathasm"
	"github.com/banksean/capsule/internal/platform"
	"github.com/banksean/capsule/internal/runtimeselect"
)

// RootContext carries every piece of already-opened or already-chosen
// state the root caplet's concrete operation implementations close
// over. It is mutated as the pipeline progresses (cache directory and
// extracted flag become known only after needsAppCache/extractCapsule
// run), so every op reads it at call time rather than capturing copies.
type RootContext struct {
	Ctx context.Context

	Archive  *manifest.Archive
	Manifest *manifest.Manifest
	Platform manifest.Platform // resolved Mode + OS/Java platform tags

	Identity       AppIdentity
	CacheDir       string // set once computed; empty until then
	ArchiveModTime int64  // set once computed, before TestAppCacheUpToDate dispatches
	Extracted      bool

	// AppClass/AppAttr/AppName/AppVersion/AppArtifact/IsPureWrapper are
	// the raw identity-relevant manifest reads, set once by
	// openForLaunch after the platform mode is final, for the root
	// caplet's BuildAppID default implementation to resolve identity
	// from (spec.md §3: identity is computed once after caplet loading,
	// through the overridable buildAppId() operation).
	AppClass      string
	AppAttr       string
	AppName       string
	AppVersion    string
	AppArtifact   *identity.Artifact
	IsPureWrapper bool

	Dep *dependency.Interface

	// Chain is the loaded caplet chain this RootContext's own Link
	// belongs to, set once by openForLaunch right after caplet.Load. The
	// root's concrete operation implementations below dispatch sibling
	// operations (dependencies, native library path, path
	// stringification, expansion) through it rather than calling each
	// other's rc method directly, so a successor caplet's override of
	// one of those sibling operations actually takes effect.
	Chain *caplet.Chain

	CurrentRuntime  platform.Runtime
	InstalledProbe  func() []platform.Runtime // lazy: DiscoverInstalled is expensive
	Options         Options

	CLISystemProps map[string]string
	CLIOrder       []string
	// CLIJVMArgs holds leading caller -X arguments (other than a
	// -Xbootclasspath: override, which goes through
	// CLIBootClassPathOverride instead); BuildJVMArgs appends them
	// after capsule.jvm.args so dedupJVMArgs's later-wins rule lets them
	// override the manifest's JVM-Args (spec.md §4.6 scenario 4).
	CLIJVMArgs []string
	// CLIBootClassPathOverride is a caller -Xbootclasspath: value, used
	// verbatim in place of the manifest's Boot-Class-Path (spec.md
	// §4.6).
	CLIBootClassPathOverride string

	ChosenRuntime platform.Runtime
	JavaExecutablePath string

	// CallerArgs holds the application argument tail (after
	// splitCallerArgs has stripped any leading -D/-X overrides), set by
	// BuildArgs before it expands Args so pathasmContext's $n/$* support
	// reads the same value whether Expand is invoked directly or
	// dispatched back through the chain.
	CallerArgs []string
}

// AppIdentity is the (name, version) pair openForLaunch records from
// the chain's buildAppId() dispatch. The root caplet's default
// implementation resolves it via internal/identity and returns that
// package's BadSpec error when no identity source applies.
type AppIdentity struct {
	Name    string
	Version string
}

func (rc *RootContext) attr(name string) (string, bool) {
	return manifest.Lookup(rc.Manifest, name, rc.Platform)
}

func (rc *RootContext) attrDefault(name, def string) string {
	v, ok := rc.attr(name)
	if !ok {
		return def
	}
	return v
}

func (rc *RootContext) pathasmContext() pathasm.Context {
	return pathasm.Context{
		ArchivePath: rc.Archive.Path,
		AppName:     rc.Identity.Name,
		AppVersion:  rc.Identity.Version,
		CacheDir:    rc.CacheDir,
		JavaHome:    rc.ChosenRuntime.Home,
		Properties:  rc.CLISystemProps,
		CallerArgs:  rc.CallerArgs,
	}
}

// expand runs $VAR expansion through the chain's Expand dispatch when a
// chain is wired (letting a successor caplet's override take effect),
// falling back to the root's own implementation when called without one
// (e.g. from a unit test exercising a bare RootContext).
func (rc *RootContext) expand(s string) (string, error) {
	if rc.Chain != nil {
		return rc.Chain.DispatchExpand(s)
	}
	return rc.pathasmContext().Expand(s)
}

// dispatchDependencies is GetDependencies' call-site wrapper: see expand.
func (rc *RootContext) dispatchDependencies() ([]string, error) {
	if rc.Chain != nil {
		return rc.Chain.DispatchGetDependencies()
	}
	return rc.resolveDependencies()
}

// dispatchNativeDependencies is GetNativeDependencies' call-site wrapper:
// see expand.
func (rc *RootContext) dispatchNativeDependencies() ([]string, error) {
	if rc.Chain != nil {
		return rc.Chain.DispatchGetNativeDependencies()
	}
	return rc.resolveNativeDependencies()
}

// dispatchNativeLibraryPath is BuildNativeLibraryPath's call-site
// wrapper: see expand.
func (rc *RootContext) dispatchNativeLibraryPath() ([]string, error) {
	if rc.Chain != nil {
		return rc.Chain.DispatchBuildNativeLibraryPath()
	}
	return rc.buildNativeLibraryPath()
}

// dispatchPlatformNativeLibraryPath is GetPlatformNativeLibraryPath's
// call-site wrapper: see expand.
func (rc *RootContext) dispatchPlatformNativeLibraryPath() ([]string, error) {
	if rc.Chain != nil {
		return rc.Chain.DispatchGetPlatformNativeLibraryPath()
	}
	return rc.GetPlatformNativeLibraryPathValue()
}

// processOutgoingPaths runs each path through the chain's
// ProcessOutgoingPath dispatch (spec.md §4.5's path-stringification
// extension point), in order. With no chain wired, paths pass through
// unchanged — the same behavior the root's own no-op override gives.
func (rc *RootContext) processOutgoingPaths(paths []string) ([]string, error) {
	if rc.Chain == nil || len(paths) == 0 {
		return paths, nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		processed, err := rc.Chain.DispatchProcessOutgoingPath(p)
		if err != nil {
			return nil, err
		}
		out[i] = processed
	}
	return out, nil
}

// BuildRootLink constructs the root caplet's Link: the concrete default
// implementation of every overridable operation, wired to the
// App-Cache Manager, Dependency Interface, Path Assembler, and Runtime
// Selector. Every successor caplet in the chain overrides a subset of
// these; dispatch (internal/caplet) falls through to this Link when a
// successor doesn't.
func BuildRootLink(rc *RootContext) *caplet.Link {
	return &caplet.Link{
		Name: "root",

		ChooseMode: func(next caplet.Continuation[string]) (string, error) {
			return rc.Options.Mode, nil
		},

		BuildAppID: func(next caplet.Continuation[caplet.AppID]) (caplet.AppID, error) {
			id, err := identity.Resolve(identity.Inputs{
				ApplicationName:    rc.AppName,
				ApplicationVersion: rc.AppVersion,
				Application:        rc.AppArtifact,
				Embedded:           rc.embeddedManifest(),
				ApplicationClass:   rc.AppClass,
				IsPureWrapper:      rc.IsPureWrapper,
			})
			if err != nil {
				return caplet.AppID{}, err
			}
			return caplet.AppID{Name: id.Name, Version: id.Version}, nil
		},

		NeedsAppCache: func(next caplet.Continuation[bool]) (bool, error) {
			if rc.IsPureWrapper {
				return false, nil
			}
			extractCapsule, err := manifest.ParseBool(rc.attrDefault("Extract-Capsule", "true"))
			if err != nil {
				return false, err
			}
			if extractCapsule {
				return true, nil
			}
			if rc.hasRenamedNativeDeps() {
				return true, nil
			}
			return rc.isScriptTarget(), nil
		},

		TestAppCacheUpToDate: func(next caplet.Continuation[bool]) (bool, error) {
			if rc.CacheDir == "" {
				return false, nil
			}
			c := &appcache.Cache{Dir: rc.CacheDir}
			return c.IsFresh(rc.ArchiveModTime, rc.Options.Reset), nil
		},

		ExtractCapsule: func(next caplet.Continuation[struct{}]) (struct{}, error) {
			return struct{}{}, nil
		},

		MarkCache: func(next caplet.Continuation[struct{}]) (struct{}, error) {
			return struct{}{}, nil
		},

		BuildClassPath: func(next caplet.Continuation[[]string]) ([]string, error) {
			return rc.buildClassPath()
		},

		BuildBootClassPath: func(next caplet.Continuation[[]string]) ([]string, error) {
			in, err := rc.bootClassPathInputs()
			if err != nil {
				return nil, err
			}
			return rc.processOutgoingPaths(pathasm.BuildBootClassPath(in))
		},
		BuildBootClassPathP: func(next caplet.Continuation[[]string]) ([]string, error) {
			in, err := rc.bootClassPathInputs()
			if err != nil {
				return nil, err
			}
			return rc.processOutgoingPaths(pathasm.BuildBootClassPathP(in))
		},
		BuildBootClassPathA: func(next caplet.Continuation[[]string]) ([]string, error) {
			in, err := rc.bootClassPathInputs()
			if err != nil {
				return nil, err
			}
			return rc.processOutgoingPaths(pathasm.BuildBootClassPathA(in))
		},

		BuildNativeLibraryPath: func(next caplet.Continuation[[]string]) ([]string, error) {
			return rc.buildNativeLibraryPath()
		},

		GetPlatformNativeLibraryPath: func(next caplet.Continuation[[]string]) ([]string, error) {
			return rc.GetPlatformNativeLibraryPathValue()
		},

		BuildSystemProperties: func(next caplet.Continuation[map[string]string]) (map[string]string, error) {
			return rc.buildSystemProperties()
		},

		BuildEnvironmentVariablesFromCurrent: func(current map[string]string) caplet.OpFunc[map[string]string] {
			return func(next caplet.Continuation[map[string]string]) (map[string]string, error) {
				return rc.buildEnvironmentVariables(current)
			}
		},

		BuildJVMArgs: func(next caplet.Continuation[[]string]) ([]string, error) {
			declared := manifest.ParseList(rc.attrDefault("JVM-Args", ""))
			args := append(append([]string{}, declared...), rc.Options.ExtraJVMArgs...)
			args = append(args, rc.CLIJVMArgs...)
			return args, nil
		},

		GetNativeDependencies: func(next caplet.Continuation[[]string]) ([]string, error) {
			return rc.resolveNativeDependencies()
		},

		GetDependencies: func(next caplet.Continuation[[]string]) ([]string, error) {
			return rc.resolveDependencies()
		},

		BuildJavaAgents: func(next caplet.Continuation[*caplet.OrderedMap]) (*caplet.OrderedMap, error) {
			return rc.buildJavaAgents()
		},

		ChooseJavaHome: func(next caplet.Continuation[string]) (string, error) {
			return rc.Options.JavaHome, nil
		},

		GetJavaExecutable: func(next caplet.Continuation[string]) (string, error) {
			return runtimeselect.JavaExecutable(rc.Options.JavaCmd, rc.ChosenRuntime, true), nil
		},

		BuildArgs: func(callerArgs []string) caplet.OpFunc[[]string] {
			return func(next caplet.Continuation[[]string]) ([]string, error) {
				declared := manifest.ParseList(rc.attrDefault("Args", ""))
				rc.CallerArgs = callerArgs
				return pathasm.BuildArgs(declared, callerArgs, rc.expand)
			}
		},

		ProcessOutgoingPath: func(path string) caplet.OpFunc[string] {
			return func(next caplet.Continuation[string]) (string, error) {
				return path, nil
			}
		},

		Expand: func(s string) caplet.OpFunc[string] {
			return func(next caplet.Continuation[string]) (string, error) {
				return rc.pathasmContext().Expand(s)
			}
		},

		Cleanup: func(next caplet.Continuation[struct{}]) (struct{}, error) {
			return struct{}{}, nil
		},
	}
}

func (rc *RootContext) isScriptTarget() bool {
	_, unix := rc.attr("Unix-Script")
	_, win := rc.attr("Windows-Script")
	return unix || win
}

func (rc *RootContext) hasRenamedNativeDeps() bool {
	for _, key := range nativeDepsKeysForHost() {
		raw, ok := rc.attr(key)
		if !ok {
			continue
		}
		_, order, err := manifest.ParseMap(raw, strPtrEmpty())
		if err != nil {
			continue
		}
		if len(order) > 0 {
			return true
		}
	}
	return false
}

func strPtrEmpty() *string { s := ""; return &s }

func nativeDepsKeysForHost() []string {
	switch platform.CurrentOS() {
	case platform.Windows:
		return []string{"Native-Dependencies-Win"}
	case platform.MacOS:
		return []string{"Native-Dependencies-Mac"}
	default:
		return []string{"Native-Dependencies-Linux"}
	}
}

func (rc *RootContext) buildClassPath() ([]string, error) {
	includeArchive := true
	if v, ok := rc.attr("Capsule-In-Class-Path"); ok {
		b, err := manifest.ParseBool(v)
		if err != nil {
			return nil, err
		}
		includeArchive = b
	}

	var appPaths []string
	if app, ok := rc.attr("Application"); ok && app != "" {
		if dependency.LooksLikeLocalPath(app) {
			appPaths = append(appPaths, filepath.Join(filepath.Dir(rc.Archive.Path), app))
		} else {
			path, cpEntries, err := rc.Dep.ResolveRoot(rc.Ctx, dependency.Coordinate{Raw: app})
			if err != nil {
				return nil, err
			}
			appPaths = append(appPaths, path)
			appPaths = append(appPaths, cpEntries...)
		}
	}

	var appClassPath []string
	for _, entry := range manifest.ParseList(rc.attrDefault("App-Class-Path", "")) {
		if !dependency.LooksLikeLocalPath(entry) {
			return nil, capsuleerr.New(capsuleerr.BadSpec, "App-Class-Path entry %q names an artifact, which is forbidden here", entry)
		}
		matches, err := filepath.Glob(filepath.Join(filepath.Dir(rc.Archive.Path), entry))
		if err != nil || len(matches) == 0 {
			appClassPath = append(appClassPath, filepath.Join(filepath.Dir(rc.Archive.Path), entry))
			continue
		}
		appClassPath = append(appClassPath, matches...)
	}

	deps, err := rc.dispatchDependencies()
	if err != nil {
		return nil, err
	}

	in := pathasm.ClassPathInputs{
		IncludeArchive:    includeArchive,
		ArchivePath:       rc.Archive.Path,
		ApplicationPaths:  appPaths,
		AppClassPath:      appClassPath,
		Extracted:         rc.Extracted,
		CacheDir:          rc.CacheDir,
		CacheTopLevelJars: rc.cacheTopLevelJars(),
		Dependencies:      deps,
	}
	return rc.processOutgoingPaths(pathasm.BuildClassPath(in))
}

func (rc *RootContext) cacheTopLevelJars() []string {
	if rc.CacheDir == "" {
		return nil
	}
	matches, _ := filepath.Glob(filepath.Join(rc.CacheDir, "*.jar"))
	return matches
}

func (rc *RootContext) bootClassPathInputs() (pathasm.BootClassPathInputs, error) {
	resolveEntries := func(attrName string) ([]string, error) {
		var out []string
		for _, entry := range manifest.ParseList(rc.attrDefault(attrName, "")) {
			if dependency.LooksLikeLocalPath(entry) {
				if rc.CacheDir != "" && !filepath.IsAbs(entry) {
					if matches, _ := filepath.Glob(filepath.Join(rc.CacheDir, entry)); len(matches) > 0 {
						out = append(out, matches...)
						continue
					}
				}
				out = append(out, entry)
				continue
			}
			resolved, err := rc.Dep.Resolve(rc.Ctx, []dependency.Coordinate{{Raw: entry}})
			if err != nil {
				return nil, err
			}
			for _, r := range resolved {
				out = append(out, r.Path)
			}
		}
		return out, nil
	}

	abs, err := resolveEntries("Boot-Class-Path")
	if err != nil {
		return pathasm.BootClassPathInputs{}, err
	}
	prepend, err := resolveEntries("Boot-Class-Path-P")
	if err != nil {
		return pathasm.BootClassPathInputs{}, err
	}
	append_, err := resolveEntries("Boot-Class-Path-A")
	if err != nil {
		return pathasm.BootClassPathInputs{}, err
	}
	return pathasm.BootClassPathInputs{
		Absolute: abs,
		Override: rc.CLIBootClassPathOverride,
		Prepend:  prepend,
		Append:   append_,
	}, nil
}

func (rc *RootContext) buildNativeLibraryPath() ([]string, error) {
	platformDefault, err := rc.dispatchPlatformNativeLibraryPath()
	if err != nil {
		return nil, err
	}
	prepend := manifest.ParseList(rc.attrDefault("Library-Path-P", ""))
	appendEntries := manifest.ParseList(rc.attrDefault("Library-Path-A", ""))

	if err := rc.copyNativeDependencies(); err != nil {
		return nil, err
	}

	in := pathasm.NativeLibraryPathInputs{
		PlatformDefault: platformDefault,
		Prepend:         rc.rootCacheJoin(prepend),
		Append:          rc.rootCacheJoin(appendEntries),
		CacheDir:        rc.CacheDir,
	}
	return rc.processOutgoingPaths(pathasm.BuildNativeLibraryPath(in))
}

// GetPlatformNativeLibraryPathValue is the root's own contribution for
// GetPlatformNativeLibraryPath: the root link's implementation of that
// operation, and the fallback dispatchPlatformNativeLibraryPath uses
// when no chain is wired. The root's buildNativeLibraryPath reaches it
// through the chain, so a successor's override takes effect there.
func (rc *RootContext) GetPlatformNativeLibraryPathValue() ([]string, error) {
	if v, ok := rc.CLISystemProps["java.library.path"]; ok && v != "" {
		return manifest.ParseList(v), nil
	}
	return nil, nil
}

// rootCacheJoin rewrites cache-relative entries to their absolute path
// under the app-cache, leaving already-absolute entries untouched.
func (rc *RootContext) rootCacheJoin(entries []string) []string {
	if rc.CacheDir == "" {
		return entries
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if filepath.IsAbs(e) {
			out = append(out, e)
			continue
		}
		out = append(out, filepath.Join(rc.CacheDir, e))
	}
	return out
}

func (rc *RootContext) copyNativeDependencies() error {
	if rc.CacheDir == "" {
		return nil
	}
	// The set of source names to copy comes from the (overridable)
	// GetNativeDependencies dispatch; the rename targets still come from
	// the raw manifest attribute, since that mapping isn't part of the
	// GetNativeDependencies contract (spec.md §4.5's query-only op).
	names, err := rc.dispatchNativeDependencies()
	if err != nil {
		return err
	}
	renameTo := map[string]string{}
	for _, key := range nativeDepsKeysForHost() {
		raw, ok := rc.attr(key)
		if !ok {
			continue
		}
		entries, _, err := manifest.ParseMap(raw, strPtrEmpty())
		if err != nil {
			return err
		}
		for src, dst := range entries {
			renameTo[src] = dst
		}
	}
	for _, src := range names {
		dst := renameTo[src]
		if dst == "" {
			continue
		}
		if err := appcache.CopyNativeDependency(rc.CacheDir, src, dst); err != nil {
			return err
		}
	}
	return nil
}

func (rc *RootContext) resolveNativeDependencies() ([]string, error) {
	var out []string
	for _, key := range nativeDepsKeysForHost() {
		raw, ok := rc.attr(key)
		if !ok {
			continue
		}
		_, order, err := manifest.ParseMap(raw, strPtrEmpty())
		if err != nil {
			return nil, err
		}
		out = append(out, order...)
	}
	return out, nil
}

func (rc *RootContext) resolveDependencies() ([]string, error) {
	declared := manifest.ParseList(rc.attrDefault("Dependencies", ""))
	var coords []dependency.Coordinate
	if len(declared) > 0 {
		for _, d := range declared {
			coords = append(coords, dependency.Coordinate{Raw: d})
		}
	} else if embedded := rc.embeddedManifest(); embedded.HasIdentity() {
		coords = embedded.Dependencies
	}
	if len(coords) == 0 {
		return nil, nil
	}
	resolved, err := rc.Dep.Resolve(rc.Ctx, coords)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, r.Path)
	}
	return out, nil
}

func (rc *RootContext) embeddedManifest() dependency.EmbeddedManifest {
	for _, e := range rc.Archive.Entries() {
		if e.Name != embeddedDependencyManifestEntry {
			continue
		}
		rdr, err := rc.Archive.OpenEntry(e)
		if err != nil {
			return dependency.EmbeddedManifest{}
		}
		defer rdr.Close()
		var b strings.Builder
		buf := make([]byte, 4096)
		for {
			n, err := rdr.Read(buf)
			if n > 0 {
				b.Write(buf[:n])
			}
			if err != nil {
				break
			}
		}
		return dependency.ParseEmbeddedManifest(b.String())
	}
	return dependency.EmbeddedManifest{}
}

const embeddedDependencyManifestEntry = "META-INF/capsule-dependencies.properties"

func (rc *RootContext) buildJavaAgents() (*caplet.OrderedMap, error) {
	raw := rc.attrDefault("Java-Agents", "")
	defaultVal := ""
	entries, order, err := manifest.ParseMap(raw, &defaultVal)
	if err != nil {
		return nil, err
	}
	out := caplet.NewOrderedMap()
	for _, key := range order {
		resolvedPath := key
		if !dependency.LooksLikeLocalPath(key) {
			resolved, err := rc.Dep.Resolve(rc.Ctx, []dependency.Coordinate{{Raw: key}})
			if err != nil {
				return nil, err
			}
			if len(resolved) > 0 {
				resolvedPath = resolved[0].Path
			}
		} else if !filepath.IsAbs(resolvedPath) {
			resolvedPath = filepath.Join(filepath.Dir(rc.Archive.Path), resolvedPath)
		}
		out.Set(resolvedPath, entries[key])
	}
	return out, nil
}

func (rc *RootContext) buildSystemProperties() (map[string]string, error) {
	declared, declOrder, err := manifest.ParseMap(rc.attrDefault("System-Properties", ""), strPtrEmpty())
	if err != nil {
		return nil, err
	}

	pctx := rc.pathasmContext()
	computed := map[string]string{
		"capsule.app": pctx.CapsuleApp(),
		"capsule.jar": pctx.CapsuleJar(),
	}
	compOrder := []string{"capsule.app", "capsule.jar"}
	if nativePath, err := rc.dispatchNativeLibraryPath(); err == nil && len(nativePath) > 0 {
		computed["java.library.path"] = strings.Join(nativePath, string(filepath.ListSeparator))
		compOrder = append(compOrder, "java.library.path")
	}
	if rc.CacheDir != "" {
		computed["capsule.dir"] = rc.CacheDir
		compOrder = append(compOrder, "capsule.dir")
	}
	if sm, ok := rc.attr("Security-Manager"); ok {
		computed["java.security.manager"] = sm
		compOrder = append(compOrder, "java.security.manager")
	}
	if sp, ok := rc.attr("Security-Policy"); ok {
		computed["java.security.policy"] = sp
		compOrder = append(compOrder, "java.security.policy")
	}

	in := pathasm.SystemPropertiesInputs{
		Declared:      declared,
		DeclaredOrder: declOrder,
		Computed:      computed,
		ComputedOrder: compOrder,
		CLIOverrides:  rc.CLISystemProps,
		CLIOrder:      rc.CLIOrder,
	}
	props, err := pathasm.BuildSystemProperties(in, rc.expand)
	if err != nil {
		return nil, err
	}
	return props.AsMap(), nil
}

func (rc *RootContext) buildEnvironmentVariables(current map[string]string) (map[string]string, error) {
	raw := rc.attrDefault("Environment-Variables", "")
	var names, values []string
	var force []bool
	for _, item := range manifest.ParseList(raw) {
		force1 := strings.Contains(item, ":=")
		sep := "="
		if force1 {
			sep = ":="
		}
		idx := strings.Index(item, sep)
		if idx < 0 {
			continue
		}
		names = append(names, item[:idx])
		values = append(values, item[idx+len(sep):])
		force = append(force, force1)
	}

	pctx := rc.pathasmContext()
	computed := map[string]string{
		"CAPSULE_APP": pctx.CapsuleApp(),
		"CAPSULE_JAR": pctx.CapsuleJar(),
	}
	order := []string{"CAPSULE_APP", "CAPSULE_JAR"}
	if rc.CacheDir != "" {
		computed["CAPSULE_DIR"] = rc.CacheDir
		order = append(order, "CAPSULE_DIR")
	}
	if rc.isScriptTarget() {
		cp, err := rc.buildClassPath()
		if err != nil {
			return nil, err
		}
		computed["CLASSPATH"] = strings.Join(cp, string(filepath.ListSeparator))
		computed["JAVA_HOME"] = rc.ChosenRuntime.Home
		order = append(order, "CLASSPATH", "JAVA_HOME")
	}

	in := pathasm.EnvironmentInputs{
		Inherited:      current,
		DeclaredNames:  names,
		DeclaredValues: values,
		ForceOverwrite: force,
		Computed:       computed,
		ComputedOrder:  order,
	}
	return pathasm.BuildEnvironmentVariables(in).AsMap(), nil
}
