// Package writer renders grouped GO ids into spreadsheet and text reports.
package writer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/prettymuchbryce/gogrouper/internal/fields"
	"github.com/prettymuchbryce/gogrouper/internal/fs"
	"github.com/prettymuchbryce/gogrouper/internal/grouper"
	"github.com/prettymuchbryce/gogrouper/internal/record"
	"github.com/prettymuchbryce/gogrouper/internal/summary"
	"github.com/prettymuchbryce/gogrouper/internal/txt"
	"github.com/prettymuchbryce/gogrouper/internal/widths"
	"github.com/prettymuchbryce/gogrouper/internal/xlsx"
)

// Options combines content and format controls for one write.
type Options struct {
	Content grouper.ContentOptions

	Title         string         // spreadsheet title row
	Hdrs          []string       // spreadsheet column labels
	PrtFlds       []string       // explicit fields to print
	Fld2ColWidths map[string]int // per-field width overrides
	PrtFmt        string         // text row template; txt.DefaultFormat when empty
}

// WriteError reports a report file that could not be written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Writer writes grouped GO ids. A Writer holds no per-call state and never
// modifies the results it renders.
type Writer struct {
	engine   grouper.Engine
	fs       fs.FileSystem
	conflict fs.ConflictMode
	versions []string
	stdout   io.Writer
	widths   widths.Table
}

// Option configures a Writer.
type Option func(*Writer)

// WithFs sets the filesystem reports are written to.
func WithFs(afs afero.Fs) Option {
	return func(w *Writer) { w.fs = fs.Wrap(afs) }
}

// WithConflict sets what happens when a report file already exists.
func WithConflict(mode fs.ConflictMode) Option {
	return func(w *Writer) { w.conflict = mode }
}

// WithVersions sets the provenance lines printed at the top of text reports.
func WithVersions(versions []string) Option {
	return func(w *Writer) { w.versions = append([]string(nil), versions...) }
}

// WithStdout sets where completion messages go.
func WithStdout(out io.Writer) Option {
	return func(w *Writer) { w.stdout = out }
}

// WithWidths replaces the default column width table.
func WithWidths(t widths.Table) Option {
	return func(w *Writer) { w.widths = t }
}

// New creates a Writer for groupings produced by engine.
func New(engine grouper.Engine, opts ...Option) *Writer {
	w := &Writer{
		engine: engine,
		fs:     fs.NewReal(),
		stdout: os.Stdout,
		widths: widths.Defaults(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteXlsx groups the user GO ids and writes them to a spreadsheet.
// The grouping is returned so it can be inspected or rendered again.
func (w *Writer) WriteXlsx(path string, opts Options) (record.Result, error) {
	res, err := w.engine.Grouping(opts.Content)
	if err != nil {
		return nil, err
	}
	if _, err := w.WriteXlsxResult(path, res, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// WriteXlsxResult writes an existing grouping to a spreadsheet and returns
// the path actually written.
func (w *Writer) WriteXlsxResult(path string, res record.Result, opts Options) (string, error) {
	// TopN turns shading off for flat results too, not only sectioned ones.
	flds, err := fields.Select(res, fields.Options{
		Fields:   opts.PrtFlds,
		HdrgoPrt: opts.Content.HdrgoPrt,
		TopN:     opts.Content.TopN,
	})
	if err != nil {
		return "", err
	}
	if len(opts.Hdrs) != 0 && len(opts.Hdrs) != len(flds) {
		return "", &fields.OptionError{
			Option: "hdrs",
			Reason: fmt.Sprintf("%d labels given for %d printed fields", len(opts.Hdrs), len(flds)),
		}
	}
	format := xlsx.Format{
		Title:   opts.Title,
		Headers: opts.Hdrs,
		Fields:  flds,
		Widths:  w.widths.Resolve(opts.Fld2ColWidths),
	}
	slog.Debug("writing spreadsheet", "path", path, "fields", strings.Join(flds, " "))

	var stats xlsx.Stats
	written, err := w.withFile(path, func(out io.Writer) error {
		var werr error
		switch r := res.(type) {
		case *record.Flat:
			stats, werr = xlsx.Write(out, r.Records, format)
		case *record.Sections:
			stats, werr = xlsx.WriteSections(out, r.Sections, format)
		default:
			werr = record.CheckShape(res)
		}
		return werr
	})
	if err != nil {
		return "", err
	}
	fmt.Fprintf(w.stdout, "  %5d GO IDs WROTE: %s\n", stats.Rows, written)
	return written, nil
}

// WriteTxt groups the user GO ids and writes them as text. The summary is
// nil for flat groupings.
func (w *Writer) WriteTxt(path string, opts Options) (record.Result, *summary.Summary, error) {
	res, err := w.engine.Grouping(opts.Content)
	if err != nil {
		return nil, nil, err
	}
	sum, err := w.WriteTxtResult(path, res, opts.PrtFmt)
	if err != nil {
		return nil, nil, err
	}
	return res, sum, nil
}

// WriteTxtResult writes an existing grouping as text and prints a
// completion line.
func (w *Writer) WriteTxtResult(path string, res record.Result, prtfmt string) (*summary.Summary, error) {
	if err := record.CheckShape(res); err != nil {
		return nil, err
	}
	tmpl, err := w.template(res.RecordSchema(), prtfmt)
	if err != nil {
		return nil, err
	}

	var sum *summary.Summary
	written, err := w.withFile(path, func(out io.Writer) error {
		var werr error
		sum, werr = w.PrtTxt(out, res, tmpl)
		return werr
	})
	if err != nil {
		return nil, err
	}

	if sum == nil {
		fmt.Fprintf(w.stdout, "  WROTE: %s\n", written)
		return nil, nil
	}
	sum.Path = written
	fmt.Fprintln(w.stdout, sum.Line("WROTE:"))
	return sum, nil
}

// PrtTxt prints a grouping to out. Sectioned groupings return a summary.
func (w *Writer) PrtTxt(out io.Writer, res record.Result, tmpl txt.Template) (*summary.Summary, error) {
	if len(w.versions) > 0 {
		if _, err := fmt.Fprintf(out, "# Versions:\n#    %s\n", strings.Join(w.versions, "\n#    ")); err != nil {
			return nil, err
		}
	}

	switch r := res.(type) {
	case *record.Flat:
		return nil, txt.PrtTxt(out, r.Records, tmpl)
	case *record.Sections:
		for _, sec := range r.Sections {
			if _, err := fmt.Fprintf(out, "\nSECTION: %s\n", sec.Name); err != nil {
				return nil, err
			}
			if err := txt.PrtTxt(out, sec.Records, tmpl); err != nil {
				return nil, err
			}
		}
		sum := summary.Summarize(r.Sections, w.engine.UserIDs())
		return &sum, nil
	default:
		return nil, record.CheckShape(res)
	}
}

func (w *Writer) template(schema *record.Schema, prtfmt string) (txt.Template, error) {
	if prtfmt == "" {
		prtfmt = txt.DefaultFormat
	}
	tmpl, err := txt.Parse(prtfmt)
	if err != nil {
		return txt.Template{}, &fields.OptionError{Option: "prtfmt", Reason: err.Error()}
	}
	var unknown []string
	for _, f := range tmpl.Fields() {
		if !schema.Has(f) {
			unknown = append(unknown, f)
		}
	}
	if len(unknown) > 0 {
		return txt.Template{}, &fields.OptionError{
			Option: "prtfmt",
			Reason: "unknown fields: " + strings.Join(unknown, ", "),
		}
	}
	return tmpl, nil
}

// withFile opens the one file a write call produces, runs fn and closes it.
// Open, write and close failures are reported as WriteError; shape and
// option errors from fn pass through unchanged.
func (w *Writer) withFile(path string, fn func(io.Writer) error) (string, error) {
	dest, err := w.fs.ResolveConflict(w.conflict, path)
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	f, err := w.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return "", &WriteError{Path: dest, Err: err}
	}

	if err := fn(f); err != nil {
		f.Close()
		var shapeErr *record.ShapeError
		var optErr *fields.OptionError
		if errors.As(err, &shapeErr) || errors.As(err, &optErr) {
			return "", err
		}
		return "", &WriteError{Path: dest, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &WriteError{Path: dest, Err: err}
	}
	return dest, nil
}
