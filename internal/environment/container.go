package environment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/cpuguy83/go-docker"
	"github.com/cpuguy83/go-docker/container"

	"github.com/shran-labs/shran/internal/ctxlog"
)

// ContainerOptions configures the build container for a run.
type ContainerOptions struct {
	// Image is the container image the stages run in. The engine never pulls
	// or builds it; image lifecycle is delegated to the operator.
	Image string

	// Workspace is the source tree, mounted read-write at the same path
	// inside the container.
	Workspace string

	// ReadOnlyMounts are host paths (library override artifacts) mounted
	// read-only at the same path inside the container.
	ReadOnlyMounts []string
}

// ContainerProvider executes stage commands inside a single managed build
// container. The container is created at pipeline start, each stage is an
// exec into it, and Close removes it.
type ContainerProvider struct {
	client *docker.Client
	ctr    *container.Container
}

// NewContainer creates and starts the build container.
func NewContainer(ctx context.Context, opts ContainerOptions) (*ContainerProvider, error) {
	if opts.Image == "" {
		return nil, errors.New("container image is required")
	}

	logger := ctxlog.FromContext(ctx)
	client := docker.NewClient()

	binds := []string{fmt.Sprintf("%s:%s:rw", opts.Workspace, opts.Workspace)}
	for _, m := range opts.ReadOnlyMounts {
		binds = append(binds, fmt.Sprintf("%s:%s:ro", m, m))
	}

	ctr, err := client.ContainerService().Create(ctx, opts.Image, func(cfg *container.CreateConfig) {
		// The container idles; every stage runs as an exec so output and
		// exit codes stay per-stage.
		cfg.Spec.Config.Entrypoint = []string{"sleep"}
		cfg.Spec.Config.Cmd = []string{"infinity"}
		cfg.Spec.Config.WorkingDir = opts.Workspace
		cfg.Spec.HostConfig.Binds = binds
	})
	if err != nil {
		return nil, fmt.Errorf("creating build container from %q: %w", opts.Image, err)
	}

	if err := ctr.Start(ctx); err != nil {
		rmErr := client.ContainerService().Remove(context.WithoutCancel(ctx), ctr.ID(), container.WithRemoveForce)
		return nil, errors.Join(fmt.Errorf("starting build container: %w", err), rmErr)
	}

	logger.Debug("Build container started.", "image", opts.Image, "id", ctr.ID())
	return &ContainerProvider{client: client, ctr: ctr}, nil
}

// Execute runs one stage command as an exec inside the build container and
// waits for its exit code.
func (p *ContainerProvider) Execute(ctx context.Context, cmd Command) (Outcome, error) {
	if len(cmd.Argv) == 0 {
		return Outcome{ExitCode: -1}, errors.New("empty command")
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Executing command in container.", "argv", cmd.Argv, "id", p.ctr.ID())

	// Working directory and extra env are applied through a shell wrapper so
	// the exec contract stays identical to the local provider's.
	script := buildShellScript(cmd)

	ep, err := p.ctr.Exec(ctx, container.WithExecCmd("/bin/sh", "-c", script), func(cfg *container.ExecConfig) {
		// The exec API wants closers; the sink owns the writers' lifecycle,
		// so hand over no-op-close wrappers.
		if cmd.Stdout != nil {
			cfg.Stdout = nopWriteCloser{cmd.Stdout}
		}
		if cmd.Stderr != nil {
			cfg.Stderr = nopWriteCloser{cmd.Stderr}
		}
	})
	if err != nil {
		return Outcome{ExitCode: -1}, fmt.Errorf("creating exec in container: %w", err)
	}
	if err := ep.Start(ctx); err != nil {
		return Outcome{ExitCode: -1}, fmt.Errorf("starting exec in container: %w", err)
	}

	for {
		inspect, err := ep.Inspect(ctx)
		if err != nil {
			return Outcome{ExitCode: -1}, fmt.Errorf("inspecting exec in container: %w", err)
		}
		if !inspect.Running {
			// ExitCode stays nil until the daemon records the exit.
			if inspect.ExitCode == nil {
				return Outcome{ExitCode: -1}, fmt.Errorf("exec in container finished without an exit code")
			}
			return Outcome{ExitCode: *inspect.ExitCode}, nil
		}
		select {
		case <-ctx.Done():
			return Outcome{ExitCode: -1}, ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

// Close force-removes the build container.
func (p *ContainerProvider) Close(ctx context.Context) error {
	return p.client.ContainerService().Remove(ctx, p.ctr.ID(), container.WithRemoveForce)
}

// buildShellScript renders a Command as a POSIX shell line: cd into the
// working directory, export the env vars, then exec the argv.
func buildShellScript(cmd Command) string {
	var b strings.Builder
	if cmd.Dir != "" {
		fmt.Fprintf(&b, "cd %s && ", shellQuote(cmd.Dir))
	}
	keys := make([]string, 0, len(cmd.Env))
	for k := range cmd.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "export %s=%s && ", k, shellQuote(cmd.Env[k]))
	}
	b.WriteString("exec")
	for _, a := range cmd.Argv {
		b.WriteByte(' ')
		b.WriteString(shellQuote(a))
	}
	return b.String()
}

// nopWriteCloser adapts a sink writer to the exec API's WriteCloser without
// surrendering ownership of the underlying stream.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$&|;<>()*?[]#~%!{}`") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
