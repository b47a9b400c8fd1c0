package fs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ConflictMode defines what to do when a report file already exists.
type ConflictMode string

const (
	ConflictOverwrite        ConflictMode = "overwrite"          // Replace the existing file
	ConflictRenameWithSuffix ConflictMode = "rename_with_suffix" // Write to report_2.xlsx instead
	ConflictError            ConflictMode = "error"              // Fail the write
)

// Valid reports whether m is a known conflict mode. Empty means overwrite.
func (m ConflictMode) Valid() bool {
	switch m {
	case "", ConflictOverwrite, ConflictRenameWithSuffix, ConflictError:
		return true
	}
	return false
}

// FileSystem extends afero.Fs with report-output operations.
type FileSystem interface {
	afero.Fs

	// ResolveConflict decides where a report destined for destPath is written.
	// For most modes the returned path equals destPath, but for
	// RenameWithSuffix it may differ (e.g., report_2.xlsx).
	ResolveConflict(mode ConflictMode, destPath string) (string, error)
}

// NewReal creates a FileSystem that writes to disk.
func NewReal() FileSystem {
	return &RealFileSystem{
		Fs: afero.NewOsFs(),
	}
}

// NewDryRun creates a FileSystem that reads from disk but keeps every write in memory.
// Uses CopyOnWriteFs so a report written during the run can be read back.
func NewDryRun() FileSystem {
	base := afero.NewReadOnlyFs(afero.NewOsFs())
	layer := afero.NewMemMapFs()
	cow := afero.NewCopyOnWriteFs(base, layer)
	return &DryRunFileSystem{Fs: cow}
}

// NewMem creates an in-memory FileSystem for testing.
func NewMem() FileSystem {
	return &MemFileSystem{Fs: afero.NewMemMapFs()}
}

// Wrap adapts a plain afero.Fs.
func Wrap(afs afero.Fs) FileSystem {
	if f, ok := afs.(FileSystem); ok {
		return f
	}
	return &MemFileSystem{Fs: afs}
}

// resolveConflict is shared by every FileSystem implementation.
func resolveConflict(afs afero.Fs, mode ConflictMode, destPath string) (string, error) {
	if _, err := afs.Stat(destPath); os.IsNotExist(err) {
		return destPath, nil
	}

	switch mode {
	case "", ConflictOverwrite:
		slog.Debug("overwriting existing report", "path", destPath)
		return destPath, nil

	case ConflictRenameWithSuffix:
		newPath := findAvailableSuffixedPath(afs, destPath)
		slog.Debug("renaming to avoid conflict", "dest", destPath, "path", newPath)
		return newPath, nil

	case ConflictError:
		return "", fmt.Errorf("%s: %w", destPath, os.ErrExist)

	default:
		return "", fmt.Errorf("unknown conflict mode: %s", mode)
	}
}

// findAvailableSuffixedPath finds the next available path with a numeric suffix.
func findAvailableSuffixedPath(afs afero.Fs, destPath string) string {
	for i := 2; ; i++ {
		candidate := GenerateSuffixedPath(destPath, i)
		if _, err := afs.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// GenerateSuffixedPath generates a path with a numeric suffix.
// For example: report.txt with suffix 2 becomes report_2.txt
// For multi-extension files: goea.tar.gz becomes goea_2.tar.gz
func GenerateSuffixedPath(path string, suffix int) string {
	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	base, ext := splitFilenameAndExtensions(filename)

	newFilename := fmt.Sprintf("%s_%d%s", base, suffix, ext)
	return filepath.Join(dir, newFilename)
}

// splitFilenameAndExtensions splits a filename into base and extensions.
// Unlike filepath.Ext, this treats compound extensions as one unit.
// Examples:
//   - "report.txt" → ("report", ".txt")
//   - "archive.tar.gz" → ("archive", ".tar.gz")
//   - "report" → ("report", "")
//   - ".hidden" → (".hidden", "")
//   - ".hidden.txt" → (".hidden", ".txt")
func splitFilenameAndExtensions(filename string) (base, ext string) {
	if strings.HasPrefix(filename, ".") {
		rest := filename[1:]
		idx := strings.Index(rest, ".")
		if idx == -1 {
			return filename, ""
		}
		return filename[:idx+1], filename[idx+1:]
	}

	idx := strings.Index(filename, ".")
	if idx == -1 {
		return filename, ""
	}
	return filename[:idx], filename[idx:]
}
