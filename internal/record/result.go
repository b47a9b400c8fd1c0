package record

import (
	"fmt"
)

// Result is a grouping ready to print: either *Flat or *Sections.
// Consumers switch on the concrete type and treat anything else as a
// ShapeError. Results are read-only once built and may be shared.
type Result interface {
	// RecordSchema returns the schema shared by every record in the result.
	RecordSchema() *Schema
	isResult()
}

// Flat is an ungrouped listing, one record per GO id.
type Flat struct {
	Schema  *Schema
	Records []Record
}

// Section is a named run of records, headers first within each group.
type Section struct {
	Name    string
	Records []Record
}

// Sections is a sectioned listing. Section order is meaningful.
type Sections struct {
	Schema   *Schema
	Sections []Section
}

func (f *Flat) RecordSchema() *Schema     { return f.Schema }
func (s *Sections) RecordSchema() *Schema { return s.Schema }

func (*Flat) isResult()     {}
func (*Sections) isResult() {}

// Len returns the number of records across all sections.
func (s *Sections) Len() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Records)
	}
	return n
}

// ShapeError reports a grouping result that is neither flat nor sectioned.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "malformed grouping result: " + e.Reason
}

// CheckShape returns a ShapeError unless res is a non-nil *Flat or *Sections
// with a schema.
func CheckShape(res Result) error {
	switch r := res.(type) {
	case *Flat:
		if r == nil || r.Schema == nil {
			return &ShapeError{Reason: "flat result has no record schema"}
		}
	case *Sections:
		if r == nil || r.Schema == nil {
			return &ShapeError{Reason: "sectioned result has no record schema"}
		}
	case nil:
		return &ShapeError{Reason: "result is neither flat nor sectioned"}
	default:
		return &ShapeError{Reason: fmt.Sprintf("unsupported result type %T", res)}
	}
	return nil
}
