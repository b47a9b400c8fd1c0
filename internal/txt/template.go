// Package txt prints records as plain-text rows.
package txt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/prettymuchbryce/gogrouper/internal/record"
)

// BaseFormat is the row layout of a GO sub-DAG listing.
const BaseFormat = "{NS} {dcnt:>6} L{level:02} D{depth:02} {D1:5} {GO} {GO_name}"

// GrouperFormat adds the header/user marker and the per-group user GO count
// to a base format and terminates the row.
func GrouperFormat(base string) string {
	base = strings.Replace(base, "{NS}", "{NS} {num_usrgos:>4} uGOs", 1)
	return "{hdr1usr01:2}" + base + "\n"
}

// DefaultFormat is the row layout used when the caller supplies none.
var DefaultFormat = GrouperFormat(BaseFormat)

type part struct {
	lit   string
	field string
	align byte // '<', '>' or 0 for type default
	zero  bool
	width int
}

// Template renders a record from a format such as "{GO} {dcnt:>5}".
// Replacement fields are {name} or {name:spec} where spec is
// [<|>][0][width]. "{{" and "}}" are literal braces.
type Template struct {
	parts []part
}

// Parse compiles a format string.
func Parse(format string) (Template, error) {
	var t Template
	var lit strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '{' && i+1 < len(format) && format[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(format) && format[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '}':
			return Template{}, fmt.Errorf("format %q: single '}' at offset %d", format, i)
		case c == '{':
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				return Template{}, fmt.Errorf("format %q: unclosed '{' at offset %d", format, i)
			}
			if j := strings.IndexByte(format[i+1:i+end], '{'); j >= 0 {
				return Template{}, fmt.Errorf("format %q: stray '{' at offset %d", format, i+1+j)
			}
			p, err := parseField(format[i+1 : i+end])
			if err != nil {
				return Template{}, fmt.Errorf("format %q: %w", format, err)
			}
			if lit.Len() > 0 {
				t.parts = append(t.parts, part{lit: lit.String()})
				lit.Reset()
			}
			t.parts = append(t.parts, p)
			i += end
		default:
			lit.WriteByte(c)
		}
	}
	if lit.Len() > 0 {
		t.parts = append(t.parts, part{lit: lit.String()})
	}
	return t, nil
}

// MustParse is Parse for constant formats.
func MustParse(format string) Template {
	t, err := Parse(format)
	if err != nil {
		panic(err)
	}
	return t
}

func parseField(s string) (part, error) {
	name, spec, _ := strings.Cut(s, ":")
	if name == "" {
		return part{}, fmt.Errorf("empty field name in {%s}", s)
	}
	p := part{field: name}
	if spec == "" {
		return p, nil
	}
	if spec[0] == '<' || spec[0] == '>' {
		p.align = spec[0]
		spec = spec[1:]
	}
	if strings.HasPrefix(spec, "0") {
		p.zero = true
		spec = spec[1:]
	}
	if spec != "" {
		w, err := strconv.Atoi(spec)
		if err != nil || w < 0 {
			return part{}, fmt.Errorf("bad width in {%s}", s)
		}
		p.width = w
	}
	return p, nil
}

// Fields returns the field names referenced by the template, in order.
func (t Template) Fields() []string {
	var out []string
	for _, p := range t.parts {
		if p.field != "" {
			out = append(out, p.field)
		}
	}
	return out
}

// Render formats one record.
func (t Template) Render(rec record.Record) string {
	var b strings.Builder
	for _, p := range t.parts {
		if p.field == "" {
			b.WriteString(p.lit)
			continue
		}
		b.WriteString(p.format(rec.Get(p.field), rec.String(p.field)))
	}
	return b.String()
}

func (p part) format(v any, s string) string {
	numeric := false
	switch n := v.(type) {
	case int:
		numeric = true
		if p.zero && p.width > 0 {
			return fmt.Sprintf("%0*d", p.width, n)
		}
	case int64, float64:
		numeric = true
	}
	if p.width == 0 || len(s) >= p.width {
		return s
	}
	align := p.align
	if align == 0 {
		align = '<'
		if numeric {
			align = '>'
		}
	}
	if align == '>' {
		return fmt.Sprintf("%*s", p.width, s)
	}
	return fmt.Sprintf("%-*s", p.width, s)
}

// PrtTxt writes one rendered line per record.
func PrtTxt(w io.Writer, recs []record.Record, tmpl Template) error {
	for _, rec := range recs {
		if _, err := io.WriteString(w, tmpl.Render(rec)); err != nil {
			return err
		}
	}
	return nil
}
