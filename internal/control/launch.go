package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/banksean/capsule/internal/procbuilder"
	"go.opentelemetry.io/otel/attribute"
)

// Launcher spawns a procbuilder.Spec's child process, registers an
// idempotent shutdown hook that destroys the child if this process
// exits first, and waits for it, returning the child's own exit code
// verbatim per spec.md §4.9/§7's failure semantics.
type Launcher struct {
	// CheckTerminal gates the pty workaround: when stdin is not a
	// terminal (or this is false), normal direct passthrough is used.
	// Set true only on platforms with the known IO-inheritance bug.
	CheckTerminal bool
}

// Launch starts spec's process, waits for it to exit, and returns its
// exit code. A non-zero return with a nil error means the child itself
// exited non-zero; a non-nil error means preparation/spawn failed.
func (l *Launcher) Launch(ctx context.Context, spec procbuilder.Spec) (int, error) {
	ctx, span := startSpan(ctx, "control.Launch", attribute.Bool("capsule.trampoline", spec.Trampoline))
	defer span.End()

	if spec.Trampoline {
		fmt.Println(spec.Command)
		return 0, nil
	}

	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = envMapToSlice(spec.Env)

	wait, err := l.start(ctx, cmd)
	if err != nil {
		return 0, fmt.Errorf("starting child process: %w", err)
	}

	hook := newShutdownHook(ctx, cmd)
	defer hook.disarm()

	if err := wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode(), nil
		}
		return 1, err
	}
	return 0, nil
}

// start begins cmd, choosing direct stdio passthrough or the
// pseudo-terminal workaround, grounded on the same choice
// ContainerSvc.Exec makes for the platform's known IO-inheritance bug.
func (l *Launcher) start(ctx context.Context, cmd *exec.Cmd) (func() error, error) {
	stdinFile, isFile := os.Stdin.(*os.File)
	useTerminalWorkaround := l.CheckTerminal && isFile && term.IsTerminal(int(stdinFile.Fd()))

	if !useTerminalWorkaround {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return nil, err
		}
		return cmd.Wait, nil
	}

	slog.DebugContext(ctx, "control.Launcher: using pseudo-terminal workaround")
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}

	var copyWG sync.WaitGroup
	copyWG.Add(2)
	go func() { defer copyWG.Done(); io.Copy(ptmx, os.Stdin) }()
	go func() { defer copyWG.Done(); io.Copy(os.Stdout, ptmx) }()

	return func() error {
		err := cmd.Wait()
		ptmx.Close()
		copyWG.Wait()
		return err
	}, nil
}

// shutdownHook destroys cmd's process if this process receives
// SIGINT/SIGTERM (or its context is cancelled) before the child exits
// on its own. disarm is idempotent and safe to call after a normal
// exit; it never panics or blocks.
type shutdownHook struct {
	once   sync.Once
	sigCh  chan os.Signal
	doneCh chan struct{}
}

func newShutdownHook(ctx context.Context, cmd *exec.Cmd) *shutdownHook {
	h := &shutdownHook{
		sigCh:  make(chan os.Signal, 1),
		doneCh: make(chan struct{}),
	}
	signal.Notify(h.sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-h.sigCh:
		case <-ctx.Done():
		case <-h.doneCh:
			return
		}
		h.destroy(cmd)
	}()
	return h
}

func (h *shutdownHook) destroy(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	// Best-effort: the shutdown hook must never surface an error.
	_ = cmd.Process.Kill()
}

func (h *shutdownHook) disarm() {
	h.once.Do(func() {
		signal.Stop(h.sigCh)
		close(h.doneCh)
	})
}

func envMapToSlice(env map[string]string) []string {
	if env == nil {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
