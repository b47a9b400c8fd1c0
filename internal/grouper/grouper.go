// Package grouper turns a precomputed assignment of user GO ids to header
// GO terms into printable results.
//
// Choosing the header for each GO id happens upstream; this package only
// arranges the chosen groups into flat or sectioned listings.
package grouper

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/prettymuchbryce/gogrouper/internal/fields"
	"github.com/prettymuchbryce/gogrouper/internal/pathutil"
	"github.com/prettymuchbryce/gogrouper/internal/record"
)

// Engine supplies grouping results to the report writers.
type Engine interface {
	// Grouping returns the records to print for the given content options.
	Grouping(opts ContentOptions) (record.Result, error)
	// Schema returns the record schema of every result.
	Schema() *record.Schema
	// UserIDs returns the GO ids originally supplied by the caller.
	UserIDs() map[string]struct{}
}

// ContentOptions selects what a grouping contains.
type ContentOptions struct {
	HdrgoPrt    *bool `yaml:"hdrgo_prt" toml:"hdrgo_prt"`       // print header GO rows (default true)
	SectionPrt  *bool `yaml:"section_prt" toml:"section_prt"`   // keep sections (default true)
	TopN        int   `yaml:"top_n" toml:"top_n"`               // rows per section; 0 keeps all
	UseSections *bool `yaml:"use_sections" toml:"use_sections"` // group into sections (default true)
}

// HdrgoPrtOrDefault returns HdrgoPrt, defaulting to true.
func (o ContentOptions) HdrgoPrtOrDefault() bool { return boolOr(o.HdrgoPrt, true) }

// SectionPrtOrDefault returns SectionPrt, defaulting to true.
func (o ContentOptions) SectionPrtOrDefault() bool { return boolOr(o.SectionPrt, true) }

// UseSectionsOrDefault returns UseSections, defaulting to true.
func (o ContentOptions) UseSectionsOrDefault() bool { return boolOr(o.UseSections, true) }

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// Document is the on-disk description of a grouping.
type Document struct {
	UsrGOs   []string       `yaml:"usrgos"`
	Fields   []string       `yaml:"fields"`
	Sections *[]SectionSpec `yaml:"sections"`
	Groups   []GroupSpec    `yaml:"groups"`
}

// SectionSpec is a named, ordered list of groups.
type SectionSpec struct {
	Name   string      `yaml:"name"`
	Groups []GroupSpec `yaml:"groups"`
}

// GroupSpec is one header GO and the user GO ids placed beneath it.
type GroupSpec struct {
	Header  map[string]any   `yaml:"header"`
	Members []map[string]any `yaml:"members"`
}

// engineFields are filled in by the grouper and must be in the schema.
var engineFields = []string{
	record.FieldFormatTxt,
	record.FieldHdrIdx,
	record.FieldIsHdrGO,
	record.FieldIsUsrGO,
	record.FieldHdr1Usr01,
	record.FieldNumUsrGOs,
	record.FieldGO,
}

// Header index values.
const (
	hdrIdxHeader = 1
	hdrIdxLeaf   = 0
)

type group struct {
	header  record.Record
	members []record.Record
}

type section struct {
	name   string
	groups []group
}

// Static serves groupings from a fixed Document.
type Static struct {
	schema    *record.Schema
	usr       map[string]struct{}
	sections  []section
	sectioned bool
	groups    []group
}

// Load reads a grouping document (YAML or JSON) from afs.
func Load(afs afero.Fs, path string) (*Static, error) {
	expanded := pathutil.ExpandTilde(path)
	data, err := afero.ReadFile(afs, expanded)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse grouping %s: %w", expanded, err)
	}
	return NewStatic(&doc)
}

// NewStatic validates doc and builds its records.
func NewStatic(doc *Document) (*Static, error) {
	fields := doc.Fields
	if len(fields) == 0 {
		fields = record.DefaultFields
	}
	schema, err := record.NewSchema(fields...)
	if err != nil {
		return nil, err
	}
	for _, f := range engineFields {
		if !schema.Has(f) {
			return nil, fmt.Errorf("grouping fields must include %q", f)
		}
	}

	s := &Static{schema: schema, usr: make(map[string]struct{}, len(doc.UsrGOs))}
	for _, id := range doc.UsrGOs {
		s.usr[id] = struct{}{}
	}

	if doc.Sections != nil {
		s.sectioned = true
		for _, spec := range *doc.Sections {
			sec := section{name: spec.Name}
			for i, gs := range spec.Groups {
				g, err := s.buildGroup(gs)
				if err != nil {
					return nil, fmt.Errorf("section %q group %d: %w", spec.Name, i, err)
				}
				sec.groups = append(sec.groups, g)
			}
			s.sections = append(s.sections, sec)
		}
	}
	for i, gs := range doc.Groups {
		g, err := s.buildGroup(gs)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		s.groups = append(s.groups, g)
	}

	slog.Debug("loaded grouping",
		"sections", len(s.sections), "groups", len(s.groups), "usrgos", len(s.usr))
	return s, nil
}

func (s *Static) buildGroup(gs GroupSpec) (group, error) {
	if gs.Header == nil {
		return group{}, fmt.Errorf("missing header")
	}
	numUsr := 0
	if _, ok := s.usr[fmt.Sprint(gs.Header[record.FieldGO])]; ok {
		numUsr++
	}
	for _, m := range gs.Members {
		if _, ok := s.usr[fmt.Sprint(m[record.FieldGO])]; ok {
			numUsr++
		}
	}

	hdr, err := s.buildRecord(gs.Header, true, numUsr)
	if err != nil {
		return group{}, fmt.Errorf("header: %w", err)
	}
	g := group{header: hdr}
	for i, m := range gs.Members {
		rec, err := s.buildRecord(m, false, numUsr)
		if err != nil {
			return group{}, fmt.Errorf("member %d: %w", i, err)
		}
		g.members = append(g.members, rec)
	}
	return g, nil
}

func (s *Static) buildRecord(vals map[string]any, isHdr bool, numUsr int) (record.Record, error) {
	id, ok := vals[record.FieldGO].(string)
	if !ok || id == "" {
		return record.Record{}, fmt.Errorf("missing %s id", record.FieldGO)
	}
	row := make(map[string]any, len(vals)+6)
	for k, v := range vals {
		row[k] = v
	}
	_, isUsr := s.usr[id]

	row[record.FieldIsHdrGO] = isHdr
	row[record.FieldIsUsrGO] = isUsr
	row[record.FieldNumUsrGOs] = numUsr
	row[record.FieldHdr1Usr01] = hdr1usr01(isHdr, isUsr)
	if isHdr {
		row[record.FieldHdrIdx] = hdrIdxHeader
		row[record.FieldFormatTxt] = 1
	} else {
		row[record.FieldHdrIdx] = hdrIdxLeaf
		row[record.FieldFormatTxt] = 0
	}
	return s.schema.New(row)
}

func hdr1usr01(isHdr, isUsr bool) string {
	switch {
	case isHdr && isUsr:
		return "**"
	case isHdr:
		return "*"
	default:
		return ""
	}
}

// Schema returns the record schema.
func (s *Static) Schema() *record.Schema {
	return s.schema
}

// UserIDs returns a copy of the caller's GO ids.
func (s *Static) UserIDs() map[string]struct{} {
	out := make(map[string]struct{}, len(s.usr))
	for id := range s.usr {
		out[id] = struct{}{}
	}
	return out
}

// Grouping arranges the groups according to opts. Each call builds a new
// Result; previously returned results are never modified.
func (s *Static) Grouping(opts ContentOptions) (record.Result, error) {
	if opts.TopN < 0 {
		return nil, &fields.OptionError{Option: "top_n", Reason: fmt.Sprintf("must not be negative, got %d", opts.TopN)}
	}
	hdrgoPrt := opts.HdrgoPrtOrDefault()

	if s.sectioned && opts.UseSectionsOrDefault() {
		out := &record.Sections{Schema: s.schema, Sections: make([]record.Section, 0, len(s.sections))}
		for _, sec := range s.sections {
			recs := s.records(sec.groups, hdrgoPrt)
			if opts.TopN > 0 && len(recs) > opts.TopN {
				recs = recs[:opts.TopN]
			}
			out.Sections = append(out.Sections, record.Section{Name: sec.name, Records: recs})
		}
		if opts.SectionPrtOrDefault() {
			return out, nil
		}
		flat := &record.Flat{Schema: s.schema}
		for _, sec := range out.Sections {
			flat.Records = append(flat.Records, sec.Records...)
		}
		return flat, nil
	}

	return &record.Flat{Schema: s.schema, Records: s.records(s.allGroups(), hdrgoPrt)}, nil
}

// allGroups returns the unsectioned groups, or every sectioned group once
// when the document has no top-level groups.
func (s *Static) allGroups() []group {
	if len(s.groups) > 0 || !s.sectioned {
		return s.groups
	}
	seen := make(map[string]bool)
	var out []group
	for _, sec := range s.sections {
		for _, g := range sec.groups {
			if seen[g.header.ID()] {
				continue
			}
			seen[g.header.ID()] = true
			out = append(out, g)
		}
	}
	return out
}

// records lists each header followed by its members. Without hdrgo_prt,
// headers are kept only when they are user GO ids.
func (s *Static) records(groups []group, hdrgoPrt bool) []record.Record {
	var out []record.Record
	for _, g := range groups {
		if hdrgoPrt || g.header.IsUser() {
			out = append(out, g.header)
		}
		out = append(out, g.members...)
	}
	return out
}
