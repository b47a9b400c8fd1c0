package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"

	"github.com/prettymuchbryce/gogrouper/internal/pathutil"
)

// DefaultOutputName names reports after their grouping file.
const DefaultOutputName = "${name}.${format}"

// variablePattern matches ${var} patterns.
var variablePattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// OutputName is a report file name template. It can contain ${name}
// (grouping file name without extension), ${dir} (grouping file directory),
// ${format} (xlsx or txt) and strftime tokens like %Y, %m, %d.
type OutputName string

// Expand fills in the variables for the grouping file src and the given
// report format, then formats strftime tokens using now.
func (t OutputName) Expand(src, format string, now time.Time) string {
	srcExpanded := pathutil.ExpandTilde(src)
	base := filepath.Base(srcExpanded)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	// Time first so variable values containing % are left alone.
	timed := timefmt.Format(now, string(t))
	return replaceVariables(timed, map[string]string{
		"name":   name,
		"dir":    filepath.Dir(srcExpanded),
		"format": format,
	})
}

// Path expands t and places the result in outDir. Absolute expansions and
// an empty outDir are returned unchanged.
func (t OutputName) Path(outDir, src, format string, now time.Time) string {
	out := pathutil.ExpandTilde(t.Expand(src, format, now))
	if outDir == "" || filepath.IsAbs(out) {
		return out
	}
	return filepath.Join(pathutil.ExpandTilde(outDir), out)
}

func replaceVariables(template string, vars map[string]string) string {
	return variablePattern.ReplaceAllStringFunc(template, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := vars[varName]; ok {
			return val
		}
		return match // leave unchanged if not found
	})
}
