package record

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the serialized form of a Result. Exactly one of Flat and
// Sections must be present.
type Document struct {
	Fields   []string           `yaml:"fields,omitempty"`
	Flat     *[]map[string]any  `yaml:"flat,omitempty"`
	Sections *[]DocumentSection `yaml:"sections,omitempty"`
}

// DocumentSection is one named section of a Document.
type DocumentSection struct {
	Name string           `yaml:"name"`
	Nts  []map[string]any `yaml:"nts"`
}

// ParseDocument decodes a YAML (or JSON) document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Result converts the document into a Result.
func (d *Document) Result() (Result, error) {
	switch {
	case d.Flat != nil && d.Sections != nil:
		return nil, &ShapeError{Reason: "both flat and sections are present"}
	case d.Flat == nil && d.Sections == nil:
		return nil, &ShapeError{Reason: "neither flat nor sections is present"}
	}

	fields := d.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	schema, err := NewSchema(fields...)
	if err != nil {
		return nil, err
	}

	if d.Flat != nil {
		recs, err := buildRecords(schema, *d.Flat)
		if err != nil {
			return nil, err
		}
		return &Flat{Schema: schema, Records: recs}, nil
	}

	out := &Sections{Schema: schema, Sections: make([]Section, 0, len(*d.Sections))}
	for _, sec := range *d.Sections {
		recs, err := buildRecords(schema, sec.Nts)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", sec.Name, err)
		}
		out.Sections = append(out.Sections, Section{Name: sec.Name, Records: recs})
	}
	return out, nil
}

func buildRecords(schema *Schema, rows []map[string]any) ([]Record, error) {
	recs := make([]Record, 0, len(rows))
	for i, row := range rows {
		rec, err := schema.New(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// NewDocument converts a Result back into its serialized form.
func NewDocument(res Result) (*Document, error) {
	if err := CheckShape(res); err != nil {
		return nil, err
	}
	doc := &Document{Fields: res.RecordSchema().Fields()}
	switch r := res.(type) {
	case *Flat:
		rows := toRows(r.Records)
		doc.Flat = &rows
	case *Sections:
		secs := make([]DocumentSection, 0, len(r.Sections))
		for _, sec := range r.Sections {
			secs = append(secs, DocumentSection{Name: sec.Name, Nts: toRows(sec.Records)})
		}
		doc.Sections = &secs
	}
	return doc, nil
}

// Marshal encodes the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

func toRows(recs []Record) []map[string]any {
	rows := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		row := make(map[string]any, len(rec.values))
		for i, f := range rec.schema.fields {
			if rec.values[i] != nil {
				row[f] = rec.values[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}
