// Package fields decides which record fields are printed in a report.
package fields

import (
	"fmt"
	"strings"

	"github.com/prettymuchbryce/gogrouper/internal/record"
)

// Internal bookkeeping fields that are never printed automatically.
var dontPrint = map[string]bool{
	record.FieldHdrIdx:  true,
	record.FieldIsHdrGO: true,
	record.FieldIsUsrGO: true,
}

// Options controls field selection.
type Options struct {
	// Fields, when set, is printed exactly as given.
	Fields []string
	// HdrgoPrt enables grey shading of header rows (nil means true).
	HdrgoPrt *bool
	// TopN truncates each section; any value > 0 turns shading off.
	TopN int
}

// OptionError reports caller options that cannot be honored.
type OptionError struct {
	Option string
	Reason string
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("invalid %s option: %s", e.Option, e.Reason)
}

// Decorate reports whether header rows get the format_txt shading.
// Any TopN > 0 disables it, whatever the shape of the result.
func Decorate(opts Options) bool {
	if opts.TopN > 0 {
		return false
	}
	if opts.HdrgoPrt == nil {
		return true
	}
	return *opts.HdrgoPrt
}

// Select returns the ordered fields to print for every record in res.
func Select(res record.Result, opts Options) ([]string, error) {
	if err := record.CheckShape(res); err != nil {
		return nil, err
	}
	schema := res.RecordSchema()

	if opts.Fields != nil {
		if len(opts.Fields) == 0 {
			return nil, &OptionError{Option: "prt_flds", Reason: "no fields to print"}
		}
		var unknown []string
		for _, f := range opts.Fields {
			if !schema.Has(f) {
				unknown = append(unknown, f)
			}
		}
		if len(unknown) > 0 {
			return nil, &OptionError{
				Option: "prt_flds",
				Reason: "unknown fields: " + strings.Join(unknown, ", "),
			}
		}
		return opts.Fields, nil
	}

	decorate := Decorate(opts)
	var out []string
	for _, f := range schema.Fields() {
		if dontPrint[f] {
			continue
		}
		if f == record.FieldFormatTxt && !decorate {
			continue
		}
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, &OptionError{Option: "prt_flds", Reason: "no printable fields in schema"}
	}
	return out, nil
}
