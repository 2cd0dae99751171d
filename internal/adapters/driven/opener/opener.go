// Package opener hands files to the operating system's default application.
package opener

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/custodia-labs/sercha-desk/internal/core/ports/driven"
)

// Ensure Opener implements the interface.
var _ driven.FileOpener = (*Opener)(nil)

// Opener launches the platform's default handler for a path.
type Opener struct {
	goos  string
	start func(ctx context.Context, name string, args ...string) error
}

// New creates an opener for the running platform.
func New() *Opener {
	return &Opener{goos: runtime.GOOS, start: startDetached}
}

// Open opens path with the default application. The handler is started and
// not waited for.
func (o *Opener) Open(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	name, args, err := command(o.goos, path)
	if err != nil {
		return err
	}
	if err := o.start(ctx, name, args...); err != nil {
		return fmt.Errorf("launch %s: %w", name, err)
	}
	return nil
}

// command returns the handler invocation for a platform.
func command(goos, path string) (string, []string, error) {
	switch goos {
	case "darwin":
		return "open", []string{path}, nil
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{path}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}, nil
	default:
		return "", nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

func startDetached(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
