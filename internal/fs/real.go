package fs

import (
	"log/slog"
	"os"

	"github.com/spf13/afero"
)

// RealFileSystem writes reports to disk.
type RealFileSystem struct {
	afero.Fs
}

// OpenFile opens the file, logging writes.
func (r *RealFileSystem) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		slog.Debug("opening for write", "path", name)
	}
	return r.Fs.OpenFile(name, flag, perm)
}

// Create creates or truncates the file.
func (r *RealFileSystem) Create(name string) (afero.File, error) {
	slog.Debug("creating", "path", name)
	return r.Fs.Create(name)
}

// ResolveConflict handles an existing report file.
func (r *RealFileSystem) ResolveConflict(mode ConflictMode, destPath string) (string, error) {
	return resolveConflict(r.Fs, mode, destPath)
}
