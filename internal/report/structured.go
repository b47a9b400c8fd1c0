// Package report previews groupings on the terminal as a tree.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/xlab/treeprint"

	"github.com/prettymuchbryce/gogrouper/internal/record"
	"github.com/prettymuchbryce/gogrouper/internal/summary"
)

// Styles for the tree preview
var (
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")) // Cyan
	headerStyle  = lipgloss.NewStyle().Bold(true)
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // Gray
)

const (
	userIcon  = "✓"
	otherIcon = "·"
)

// Preview renders groupings as a tree: sections, then header GOs, then the
// GO ids beneath each header.
type Preview struct {
	w   io.Writer
	usr map[string]struct{}
}

// NewPreviewWithWriter creates a Preview writing to a custom writer.
func NewPreviewWithWriter(w io.Writer, usr map[string]struct{}) *Preview {
	return &Preview{w: w, usr: usr}
}

// Render prints res under a root labelled title.
func (p *Preview) Render(title string, res record.Result) error {
	if err := record.CheckShape(res); err != nil {
		return err
	}
	tree := treeprint.NewWithRoot(headerStyle.Render(title))

	switch r := res.(type) {
	case *record.Flat:
		p.addRecords(tree, r.Records)
		fmt.Fprint(p.w, tree.String())
		fmt.Fprintf(p.w, "%s\n", detailStyle.Render(fmt.Sprintf("  %d GO IDs", len(r.Records))))

	case *record.Sections:
		for _, sec := range r.Sections {
			branch := tree.AddBranch(sectionStyle.Render("SECTION: " + sec.Name))
			p.addRecords(branch, sec.Records)
		}
		fmt.Fprint(p.w, tree.String())
		sum := summary.Summarize(r.Sections, p.usr)
		fmt.Fprintf(p.w, "%s\n", detailStyle.Render(fmt.Sprintf("  %d sections, %d usr GOs grouped, %d usr GOs ungrpd",
			sum.Sections, sum.Grouped, sum.Ungrouped)))
	}
	return nil
}

// addRecords nests each leaf under the header that precedes it.
func (p *Preview) addRecords(branch treeprint.Tree, recs []record.Record) {
	var current treeprint.Tree
	for _, rec := range recs {
		if rec.IsHeader() {
			current = branch.AddBranch(p.formatRecord(rec))
			continue
		}
		if current != nil {
			current.AddNode(p.formatRecord(rec))
		} else {
			branch.AddNode(p.formatRecord(rec))
		}
	}
}

func (p *Preview) formatRecord(rec record.Record) string {
	icon := otherIcon
	id := rec.ID()
	if _, ok := p.usr[id]; ok {
		icon = userStyle.Render(userIcon)
	}
	if rec.IsHeader() {
		id = headerStyle.Render(id)
	}

	result := fmt.Sprintf("%s %s %s", icon, id, rec.String(record.FieldGOName))
	var detail string
	if ns := rec.String(record.FieldNS); ns != "" {
		detail = ns
	}
	if rec.Schema().Has(record.FieldDcnt) && rec.Get(record.FieldDcnt) != nil {
		detail += fmt.Sprintf(" dcnt=%d", rec.Int(record.FieldDcnt))
	}
	if detail != "" {
		result += " " + detailStyle.Render("("+detail+")")
	}
	return result
}
