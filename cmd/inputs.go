package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// expandInputs resolves grouping file arguments. Arguments with glob
// metacharacters are matched against afs; others are used as given.
// Each file appears once, in argument order.
func expandInputs(afs afero.Fs, args []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(arg)
			continue
		}

		matches, err := globFiles(afs, arg)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no grouping files match %q", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func globFiles(afs afero.Fs, pattern string) ([]string, error) {
	base, pat := doublestar.SplitPattern(filepath.ToSlash(pattern))
	base = filepath.FromSlash(base)
	if !filepath.IsAbs(base) {
		abs, err := filepath.Abs(base)
		if err != nil {
			return nil, err
		}
		base = abs
	}

	iofs := afero.NewIOFS(afero.NewBasePathFs(afs, base))
	matches, err := doublestar.Glob(iofs, pat, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(base, filepath.FromSlash(m)))
	}
	return out, nil
}
