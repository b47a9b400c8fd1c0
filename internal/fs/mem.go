package fs

import (
	"github.com/spf13/afero"
)

// MemFileSystem wraps an in-memory or caller-supplied afero.Fs.
// Unlike DryRunFileSystem, it performs no logging.
type MemFileSystem struct {
	afero.Fs
}

// ResolveConflict handles an existing report file.
func (m *MemFileSystem) ResolveConflict(mode ConflictMode, destPath string) (string, error) {
	return resolveConflict(m.Fs, mode, destPath)
}

