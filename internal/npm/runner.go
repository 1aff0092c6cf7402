package npm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultBinary is the npm executable looked up on PATH.
const DefaultBinary = "npm"

// ErrTimeout is returned when an npm invocation exceeds its deadline.
var ErrTimeout = errors.New("npm command timed out")

// Runner executes npm subcommands. Implementations block until the command
// exits or ctx is done.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs a real npm binary via os/exec.
type ExecRunner struct {
	// Binary is the executable name or path. Empty means DefaultBinary.
	Binary string
	// Dir is the working directory for the child process.
	Dir string
}

// NewExecRunner returns an ExecRunner for binary (DefaultBinary if empty).
func NewExecRunner(binary string) *ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ExecRunner{Binary: binary}
}

// Run executes the binary with args and returns its stdout.
// A non-zero exit returns an error that includes the captured stderr.
func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	binary := r.Binary
	if binary == "" {
		binary = DefaultBinary
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = r.Dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return output, fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), ErrTimeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(string(output))
		}
		return output, fmt.Errorf("%s %s failed: %w (output: %s)", binary, strings.Join(args, " "), err, msg)
	}
	return output, nil
}

// Pack runs `npm pack <name>@<version> --pack-destination <dest>` with the
// given timeout. A zero timeout means no limit beyond ctx.
func Pack(ctx context.Context, r Runner, pkg Package, dest string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	_, err := r.Run(ctx, PackArgs(pkg, dest)...)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("npm pack %s: %w", pkg.Key(), ErrTimeout)
	}
	return err
}

// PackArgs builds the argument list for Pack.
func PackArgs(pkg Package, dest string) []string {
	return []string{"pack", pkg.Key(), "--pack-destination", dest}
}

// Publish runs `npm publish <archive> --registry=<url> --provenance=false`.
func Publish(ctx context.Context, r Runner, archivePath, registry string) error {
	_, err := r.Run(ctx, PublishArgs(archivePath, registry)...)
	return err
}

// PublishArgs builds the argument list for Publish.
func PublishArgs(archivePath, registry string) []string {
	return []string{"publish", archivePath, "--registry=" + registry, "--provenance=false"}
}

// IsPublished reports whether pkg's exact version is visible on registry.
// Any failure of the underlying `npm view` (not found, network, auth) is
// reported as false; the two cases cannot be told apart from npm's output.
func IsPublished(ctx context.Context, r Runner, pkg Package, registry string) bool {
	output, err := r.Run(ctx, ViewArgs(pkg, registry)...)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(output)) != ""
}

// ViewArgs builds the argument list for IsPublished.
func ViewArgs(pkg Package, registry string) []string {
	return []string{"view", pkg.Key(), "version", "--registry=" + registry}
}

// Version returns the output of `npm --version`.
func Version(ctx context.Context, r Runner) (string, error) {
	output, err := r.Run(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("failed to execute npm --version: %w", err)
	}

	v := strings.TrimSpace(string(output))
	if v == "" {
		return "", fmt.Errorf("empty npm --version output")
	}
	return strings.Fields(v)[0], nil
}
