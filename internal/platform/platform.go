// Package platform launches the host's file manager and browser.
package platform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrPathNotFound is returned when the path to reveal does not exist.
var ErrPathNotFound = errors.New("path not found")

// ErrEmptyPath is returned when no path was given.
var ErrEmptyPath = errors.New("path is empty")

// RevealInFileManager opens the OS file manager at path, selecting it where
// the platform supports selection. It returns once the file manager has been
// launched.
func RevealInFileManager(ctx context.Context, path string) error {
	if path == "" {
		return ErrEmptyPath
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrPathNotFound, abs)
		}
		return fmt.Errorf("failed to stat %q: %w", abs, err)
	}

	name, args := revealCommand(runtime.GOOS, abs, info.IsDir())
	return start(ctx, name, args...)
}

// OpenBrowser opens url in the default browser.
func OpenBrowser(ctx context.Context, url string) error {
	name, args := openCommand(runtime.GOOS, url)
	return start(ctx, name, args...)
}

// revealCommand builds the launcher invocation for goos. Linux file managers
// have no portable "select" flag, so the containing directory is opened.
func revealCommand(goos, path string, isDir bool) (string, []string) {
	switch goos {
	case "windows":
		return "explorer", []string{"/select," + path}
	case "darwin":
		return "open", []string{"-R", path}
	default:
		dir := path
		if !isDir {
			dir = filepath.Dir(path)
		}
		return "xdg-open", []string{dir}
	}
}

func openCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	default:
		return "xdg-open", []string{url}
	}
}

// start launches the command without waiting for it; file managers and
// browsers frequently outlive the request that opened them.
func start(ctx context.Context, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := exec.Command(name, args...) //nolint:gosec // fixed launcher, argument is a resolved path
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", name, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
