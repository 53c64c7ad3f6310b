package probe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// Executable checks that a binary can be found on PATH or at the given path.
func Executable(bin string) CheckFunc {
	return func(ctx context.Context) error {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found: %w", bin, err)
		}
		return nil
	}
}

// Readable checks that a file exists and can be opened.
func Readable(path string) CheckFunc {
	return func(ctx context.Context) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		return f.Close()
	}
}

// FreeSpace checks that the volume holding path has at least minBytes available.
// The directory is created when missing.
func FreeSpace(path string, minBytes uint64) CheckFunc {
	return func(ctx context.Context) error {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
		usage, err := disk.UsageWithContext(ctx, dir)
		if err != nil {
			return fmt.Errorf("disk usage of %s: %w", dir, err)
		}
		if usage.Free < minBytes {
			return fmt.Errorf("only %d MiB free on %s, need %d MiB", usage.Free>>20, dir, minBytes>>20)
		}
		return nil
	}
}

// Func adapts a plain function, for checks that ignore the context.
func Func(fn func() error) CheckFunc {
	return func(context.Context) error { return fn() }
}
