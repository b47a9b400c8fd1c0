package fs

import (
	"log/slog"
	"os"

	"github.com/spf13/afero"
)

// DryRunFileSystem keeps reports in memory instead of writing them to disk.
// Uses CopyOnWriteFs so existing files are visible but never modified.
type DryRunFileSystem struct {
	afero.Fs
}

// OpenFile writes go to the memory layer.
func (d *DryRunFileSystem) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		slog.Info("dry-run: report kept in memory", "path", name)
	}
	return d.Fs.OpenFile(name, flag, perm)
}

// Create delegates to the CoW filesystem.
func (d *DryRunFileSystem) Create(name string) (afero.File, error) {
	slog.Info("dry-run: report kept in memory", "path", name)
	return d.Fs.Create(name)
}

// Remove is a no-op in dry-run mode.
// CoW doesn't support removing files that only exist in the base layer.
func (d *DryRunFileSystem) Remove(name string) error {
	return nil
}

// ResolveConflict handles an existing report file in dry-run mode.
func (d *DryRunFileSystem) ResolveConflict(mode ConflictMode, destPath string) (string, error) {
	return resolveConflict(d.Fs, mode, destPath)
}
