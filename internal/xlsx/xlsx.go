// Package xlsx writes records to an Excel workbook.
package xlsx

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/prettymuchbryce/gogrouper/internal/record"
)

// DefaultSheet is the worksheet name used when Format.Sheet is empty.
const DefaultSheet = "GO IDs"

// Format controls the physical layout of a workbook.
type Format struct {
	Title   string         // optional first row
	Headers []string       // column labels; field names when empty
	Fields  []string       // columns, in order
	Widths  map[string]int // column widths by field name
	Sheet   string
}

// Stats describes what was written.
type Stats struct {
	Sections int
	Rows     int // data rows, excluding title, header and section rows
}

type book struct {
	f      *excelize.File
	sheet  string
	format Format
	row    int

	hdrStyle int
	secStyle int
	shade    map[int]int // format_txt value -> style
}

// Write writes a flat listing.
func Write(w io.Writer, recs []record.Record, format Format) (Stats, error) {
	b, err := newBook(format)
	if err != nil {
		return Stats{}, err
	}
	defer b.f.Close()

	if err := b.writeRecords(recs); err != nil {
		return Stats{}, err
	}
	if err := b.f.Write(w); err != nil {
		return Stats{}, err
	}
	return Stats{Rows: len(recs)}, nil
}

// WriteSections writes one bold section row before the records of each
// section, in the given order.
func WriteSections(w io.Writer, sections []record.Section, format Format) (Stats, error) {
	b, err := newBook(format)
	if err != nil {
		return Stats{}, err
	}
	defer b.f.Close()

	stats := Stats{Sections: len(sections)}
	for _, sec := range sections {
		if err := b.writeSectionRow(sec.Name); err != nil {
			return Stats{}, err
		}
		if err := b.writeRecords(sec.Records); err != nil {
			return Stats{}, err
		}
		stats.Rows += len(sec.Records)
	}
	if err := b.f.Write(w); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

func newBook(format Format) (*book, error) {
	if len(format.Fields) == 0 {
		return nil, fmt.Errorf("no fields to print")
	}
	if len(format.Headers) != 0 && len(format.Headers) != len(format.Fields) {
		return nil, fmt.Errorf("%d headers given for %d fields", len(format.Headers), len(format.Fields))
	}
	if format.Sheet == "" {
		format.Sheet = DefaultSheet
	}

	f := excelize.NewFile()
	b := &book{f: f, sheet: format.Sheet, format: format, row: 1, shade: map[int]int{}}
	if err := b.init(); err != nil {
		f.Close()
		return nil, err
	}
	return b, nil
}

func (b *book) init() error {
	if err := b.f.SetSheetName("Sheet1", b.sheet); err != nil {
		return err
	}

	var err error
	if b.hdrStyle, err = b.f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	}); err != nil {
		return err
	}
	if b.secStyle, err = b.f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"BFBFBF"}},
	}); err != nil {
		return err
	}
	for val, color := range map[int]string{1: "EEEEEE", 2: "D9D9D9"} {
		id, err := b.f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return err
		}
		b.shade[val] = id
	}

	for i, fld := range b.format.Fields {
		wid, ok := b.format.Widths[fld]
		if !ok {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := b.f.SetColWidth(b.sheet, col, col, float64(wid)); err != nil {
			return err
		}
	}

	if b.format.Title != "" {
		if err := b.writeSpanRow(b.format.Title, 0); err != nil {
			return err
		}
	}
	return b.writeHeaderRow()
}

func (b *book) writeHeaderRow() error {
	labels := b.format.Headers
	if len(labels) == 0 {
		labels = b.format.Fields
	}
	for i, label := range labels {
		cell, err := excelize.CoordinatesToCellName(i+1, b.row)
		if err != nil {
			return err
		}
		if err := b.f.SetCellValue(b.sheet, cell, label); err != nil {
			return err
		}
	}
	if err := b.styleRow(b.hdrStyle); err != nil {
		return err
	}
	b.row++
	return nil
}

func (b *book) writeSectionRow(name string) error {
	return b.writeSpanRow(name, b.secStyle)
}

// writeSpanRow writes text merged across every printed column.
func (b *book) writeSpanRow(text string, style int) error {
	first, err := excelize.CoordinatesToCellName(1, b.row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(b.format.Fields), b.row)
	if err != nil {
		return err
	}
	if err := b.f.SetCellValue(b.sheet, first, text); err != nil {
		return err
	}
	if first != last {
		if err := b.f.MergeCell(b.sheet, first, last); err != nil {
			return err
		}
	}
	if style != 0 {
		if err := b.f.SetCellStyle(b.sheet, first, last, style); err != nil {
			return err
		}
	}
	b.row++
	return nil
}

func (b *book) writeRecords(recs []record.Record) error {
	shaded := false
	for _, fld := range b.format.Fields {
		if fld == record.FieldFormatTxt {
			shaded = true
		}
	}

	for _, rec := range recs {
		for i, fld := range b.format.Fields {
			val := rec.Get(fld)
			if val == nil {
				val = "" // every printed field gets a cell
			}
			cell, err := excelize.CoordinatesToCellName(i+1, b.row)
			if err != nil {
				return err
			}
			if err := b.f.SetCellValue(b.sheet, cell, val); err != nil {
				return err
			}
		}
		if shaded {
			if style, ok := b.shade[rec.Int(record.FieldFormatTxt)]; ok {
				if err := b.styleRow(style); err != nil {
					return err
				}
			}
		}
		b.row++
	}
	return nil
}

func (b *book) styleRow(style int) error {
	first, err := excelize.CoordinatesToCellName(1, b.row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(b.format.Fields), b.row)
	if err != nil {
		return err
	}
	return b.f.SetCellStyle(b.sheet, first, last, style)
}
