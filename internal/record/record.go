package record

import (
	"fmt"
	"strconv"
)

// Field names understood by the report writers.
const (
	FieldHdrIdx    = "hdr_idx"    // nesting depth of a header row
	FieldIsHdrGO   = "is_hdrgo"   // record is a grouping header
	FieldIsUsrGO   = "is_usrgo"   // record is one of the caller's GO ids
	FieldFormatTxt = "format_txt" // grey-shade decoration for header rows
	FieldHdr1Usr01 = "hdr1usr01"
	FieldNumUsrGOs = "num_usrgos"
	FieldNS        = "NS"
	FieldDcnt      = "dcnt"
	FieldLevel     = "level"
	FieldDepth     = "depth"
	FieldGO        = "GO"
	FieldD1        = "D1"
	FieldGOName    = "GO_name"
)

// DefaultFields is the field order of records produced by the grouper.
var DefaultFields = []string{
	FieldFormatTxt,
	FieldHdrIdx,
	FieldIsHdrGO,
	FieldIsUsrGO,
	FieldHdr1Usr01,
	FieldNS,
	FieldNumUsrGOs,
	FieldDcnt,
	FieldLevel,
	FieldDepth,
	FieldGO,
	FieldD1,
	FieldGOName,
}

// HdrIdxFields returns the field names that carry header-index markers.
func HdrIdxFields() []string {
	return []string{FieldFormatTxt, FieldHdrIdx, FieldHdr1Usr01}
}

// Schema is the ordered set of field names shared by every record of one kind.
// A Schema is immutable once created.
type Schema struct {
	fields []string
	index  map[string]int
}

// NewSchema creates a Schema. Duplicate field names are rejected.
func NewSchema(fields ...string) (*Schema, error) {
	s := &Schema{
		fields: append([]string(nil), fields...),
		index:  make(map[string]int, len(fields)),
	}
	for i, f := range s.fields {
		if f == "" {
			return nil, fmt.Errorf("empty field name at position %d", i)
		}
		if _, dup := s.index[f]; dup {
			return nil, fmt.Errorf("duplicate field name %q", f)
		}
		s.index[f] = i
	}
	return s, nil
}

// MustSchema is NewSchema for package-level values and tests.
func MustSchema(fields ...string) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the field names in order.
func (s *Schema) Fields() []string {
	return append([]string(nil), s.fields...)
}

// Has reports whether the schema contains the field.
func (s *Schema) Has(field string) bool {
	_, ok := s.index[field]
	return ok
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// New builds a record from field values. Fields missing from vals are nil;
// keys not in the schema are an error.
func (s *Schema) New(vals map[string]any) (Record, error) {
	r := Record{schema: s, values: make([]any, len(s.fields))}
	for k, v := range vals {
		i, ok := s.index[k]
		if !ok {
			return Record{}, fmt.Errorf("field %q is not part of the record schema", k)
		}
		r.values[i] = v
	}
	return r, nil
}

// Record is one reportable row: a GO id or a section header.
type Record struct {
	schema *Schema
	values []any
}

// Schema returns the record's schema.
func (r Record) Schema() *Schema {
	return r.schema
}

// Get returns the value of field, or nil if it is unset or unknown.
func (r Record) Get(field string) any {
	if r.schema == nil {
		return nil
	}
	i, ok := r.schema.index[field]
	if !ok {
		return nil
	}
	return r.values[i]
}

// String renders a field value for text output. Unset values are empty.
func (r Record) String(field string) string {
	switch v := r.Get(field).(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns an integer field value, or 0.
func (r Record) Int(field string) int {
	switch v := r.Get(field).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case bool:
		if v {
			return 1
		}
	}
	return 0
}

// Bool returns a boolean field value, or false.
func (r Record) Bool(field string) bool {
	switch v := r.Get(field).(type) {
	case bool:
		return v
	case int:
		return v != 0
	}
	return false
}

// ID returns the GO id of the record.
func (r Record) ID() string {
	return r.String(FieldGO)
}

// IsHeader reports whether the record represents a grouping header.
func (r Record) IsHeader() bool {
	return r.Bool(FieldIsHdrGO)
}

// IsUser reports whether the record is one of the caller's GO ids.
func (r Record) IsUser() bool {
	return r.Bool(FieldIsUsrGO)
}
