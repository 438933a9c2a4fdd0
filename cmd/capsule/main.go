// Command capsule extracts and launches a self-contained Java
// application archive, following the embedded manifest's Caplets,
// dependency, and JVM-selection attributes.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	kongcompletion "github.com/jotaen/kong-completion"
	"github.com/posener/complete"

	"github.com/banksean/capsule/internal/capsuleerr"
	"github.com/banksean/capsule/internal/caplet"
	"github.com/banksean/capsule/internal/control"
	"github.com/banksean/capsule/internal/logging"
)

const description = `Launch a self-contained Java capsule archive.

Extracts the archive's application content to a per-app cache, resolves
its declared dependencies and target Java runtime, and starts the JVM
with the assembled classpath and arguments.`

func main() {
	var cli control.CLI

	parser := kong.Must(&cli,
		kong.Name("capsule"),
		kong.Description(description),
		kong.Configuration(kongyaml.Loader, "~/.capsule.yaml"),
		kong.UsageOnError(),
	)
	kongcompletion.Register(parser, kongcompletion.WithPredictor("archive", complete.PredictFiles("*")))

	kctx, err := parser.Parse(os.Args[1:])
	kctx.FatalIfErrorf(err)

	logFile, err := logging.Init(logging.Config{
		Level:   logging.Level(cli.Log),
		LogFile: cli.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "capsule: initializing logging: %v\n", err)
		os.Exit(1)
	}
	slog.Debug("capsule: logging to", "file", logFile, "runID", control.RunID)

	code, err := run(context.Background(), cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "capsule: %v\n", err)
		if cli.Log == string(logging.LevelDebug) || cli.Log == string(logging.LevelVerbose) {
			if e, ok := err.(*capsuleerr.Error); ok {
				fmt.Fprintf(os.Stderr, "  kind: %s\n  cause: %v\n", e.Kind, e.Unwrap())
			}
		}
		os.Exit(1)
	}
	os.Exit(code)
}

// run performs everything after flag parsing: it opens the archive,
// dispatches a non-launch action if one was requested, or runs the full
// prepareForLaunch/Launch pipeline and returns the child's exit code.
func run(ctx context.Context, cli control.CLI) (int, error) {
	if cli.Archive == "" {
		return 1, fmt.Errorf("an archive path is required")
	}

	shutdownTracing, err := control.InitTracing(ctx)
	if err != nil {
		return 1, fmt.Errorf("initializing tracing: %w", err)
	}
	defer shutdownTracing(ctx)

	opts := control.FromCLI(cli)
	registry := caplet.Registry{}

	plane, err := control.OpenForLaunch(ctx, cli.Archive, opts, registry)
	if err != nil {
		return 1, err
	}

	if action := cli.SelectedAction(); action != control.ActionNone {
		if err := plane.RunAction(ctx, action, os.Stdout); err != nil {
			return 1, err
		}
		return 0, nil
	}

	spec, err := plane.PrepareForLaunch(ctx, cli.Args)
	if err != nil {
		return 1, err
	}
	defer func() {
		if err := plane.Cleanup(spec); err != nil {
			slog.Warn("capsule: cleanup failed", "error", err)
		}
	}()

	launcher := &control.Launcher{CheckTerminal: true}
	return launcher.Launch(ctx, spec)
}
