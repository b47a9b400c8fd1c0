// Package summary counts how a caller's GO ids were distributed across the
// sections of a report.
package summary

import (
	"fmt"

	"github.com/prettymuchbryce/gogrouper/internal/record"
)

// Summary describes one sectioned text write.
type Summary struct {
	Sections  int    // distinct section names
	Grouped   int    // caller GO ids that head a group
	Ungrouped int    // caller GO ids only present beneath another header
	Path      string // file written
}

// Sets holds the raw sets collected from a sectioned result.
type Sets struct {
	S map[string]struct{} // section names
	G map[string]struct{} // header GO ids
	U map[string]struct{} // every GO id in any section
}

// Collect gathers section names, header ids and all ids.
func Collect(sections []record.Section) Sets {
	sets := Sets{
		S: make(map[string]struct{}),
		G: make(map[string]struct{}),
		U: make(map[string]struct{}),
	}
	for _, sec := range sections {
		sets.S[sec.Name] = struct{}{}
		for _, rec := range sec.Records {
			id := rec.ID()
			if id == "" {
				continue
			}
			sets.U[id] = struct{}{}
			if rec.IsHeader() {
				sets.G[id] = struct{}{}
			}
		}
	}
	return sets
}

// Summarize computes the statistics for sections against the caller's ids.
// An id that heads a group anywhere counts as grouped, even if it is also
// a leaf in another section.
func Summarize(sections []record.Section, usrIDs map[string]struct{}) Summary {
	sets := Collect(sections)

	grouped := 0
	for id := range sets.G {
		if _, ok := usrIDs[id]; ok {
			grouped++
		}
	}

	ungrouped := 0
	for id := range sets.U {
		if _, ok := usrIDs[id]; !ok {
			continue
		}
		if _, hdr := sets.G[id]; hdr {
			continue
		}
		ungrouped++
	}

	return Summary{
		Sections:  len(sets.S),
		Grouped:   grouped,
		Ungrouped: ungrouped,
	}
}

// Line renders the one-line completion message.
func (s Summary) Line(action string) string {
	return fmt.Sprintf("  %4d sections, %4d usr GOs grouped, %4d usr GOs ungrpd %s %s",
		s.Sections, s.Grouped, s.Ungrouped, action, s.Path)
}
