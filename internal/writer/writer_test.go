package writer

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"

	"github.com/prettymuchbryce/gogrouper/internal/fields"
	"github.com/prettymuchbryce/gogrouper/internal/fs"
	"github.com/prettymuchbryce/gogrouper/internal/grouper"
	"github.com/prettymuchbryce/gogrouper/internal/record"
	"github.com/prettymuchbryce/gogrouper/internal/summary"
	"github.com/prettymuchbryce/gogrouper/internal/testutil"
	"github.com/prettymuchbryce/gogrouper/internal/xlsx"
)

// fakeEngine returns a fixed result.
type fakeEngine struct {
	res record.Result
	usr map[string]struct{}
}

func (f *fakeEngine) Grouping(grouper.ContentOptions) (record.Result, error) { return f.res, nil }
func (f *fakeEngine) Schema() *record.Schema                                  { return record.MustSchema(record.DefaultFields...) }
func (f *fakeEngine) UserIDs() map[string]struct{}                            { return f.usr }

var schema = record.MustSchema("format_txt", "hdr_idx", "is_hdrgo", "is_usrgo", "GO", "NS", "GO_name")

func mkrec(t *testing.T, id string, hdr bool) record.Record {
	t.Helper()
	fmtTxt := 0
	if hdr {
		fmtTxt = 1
	}
	r, err := schema.New(map[string]any{
		"format_txt": fmtTxt,
		"hdr_idx":    0,
		"is_hdrgo":   hdr,
		"is_usrgo":   true,
		"GO":         id,
		"NS":         "BP",
		"GO_name":    "name of " + id,
	})
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return r
}

func usr(ids ...string) map[string]struct{} {
	m := make(map[string]struct{})
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func newWriter(eng grouper.Engine, opts ...Option) (*Writer, afero.Fs, *bytes.Buffer) {
	mem := fs.NewMem()
	var stdout bytes.Buffer
	opts = append([]Option{WithFs(mem), WithStdout(&stdout)}, opts...)
	return New(eng, opts...), mem, &stdout
}

func readXlsx(t *testing.T, afs afero.Fs, path string) [][]string {
	t.Helper()
	data, err := afero.ReadFile(afs, path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(xlsx.DefaultSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	return rows
}

func sectionedResult(t *testing.T) *record.Sections {
	return &record.Sections{Schema: schema, Sections: []record.Section{
		{Name: "A", Records: []record.Record{mkrec(t, "GO:1", true)}},
		{Name: "B", Records: []record.Record{mkrec(t, "GO:2", false), mkrec(t, "GO:3", false)}},
	}}
}

func TestWriteXlsx_FlatRoundTrip(t *testing.T) {
	res := &record.Flat{Schema: schema, Records: []record.Record{
		mkrec(t, "GO:1", false), mkrec(t, "GO:2", false), mkrec(t, "GO:3", false),
	}}
	w, mem, stdout := newWriter(&fakeEngine{res: res})
	path := testutil.Path("/", "out", "flat.xlsx")
	flds := []string{"GO", "NS", "GO_name"}

	got, err := w.WriteXlsx(path, Options{PrtFlds: flds})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != res {
		t.Error("WriteXlsx should return the grouping it wrote")
	}

	rows := readXlsx(t, mem, path)
	if len(rows) != 4 {
		t.Fatalf("expected 1 header + 3 data rows, got %d", len(rows))
	}
	if diff := cmp.Diff(flds, rows[0]); diff != "" {
		t.Errorf("header row mismatch (-want +got):\n%s", diff)
	}
	for i, row := range rows[1:] {
		want := []string{res.Records[i].ID(), "BP", "name of " + res.Records[i].ID()}
		if diff := cmp.Diff(want, row); diff != "" {
			t.Errorf("row %d mismatch (-want +got):\n%s", i+1, diff)
		}
	}
	if !strings.Contains(stdout.String(), "3 GO IDs WROTE: "+path) {
		t.Errorf("unexpected completion message %q", stdout.String())
	}
}

func TestWriteXlsx_Sections(t *testing.T) {
	w, mem, _ := newWriter(&fakeEngine{res: sectionedResult(t)})
	path := testutil.Path("/", "out", "sections.xlsx")

	if _, err := w.WriteXlsx(path, Options{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := readXlsx(t, mem, path)
	// Automatic fields: format_txt GO NS GO_name
	if diff := cmp.Diff([]string{"format_txt", "GO", "NS", "GO_name"}, rows[0]); diff != "" {
		t.Errorf("header row mismatch (-want +got):\n%s", diff)
	}
	var firstCells []string
	for _, row := range rows[1:] {
		firstCells = append(firstCells, row[0])
	}
	if diff := cmp.Diff([]string{"A", "1", "B", "0", "0"}, firstCells); diff != "" {
		t.Errorf("section layout mismatch (-want +got):\n%s", diff)
	}
	if rows[2][1] != "GO:1" || rows[4][1] != "GO:2" || rows[5][1] != "GO:3" {
		t.Errorf("records out of order: %v", rows)
	}
}

func TestWriteXlsx_TopNDropsDecoration(t *testing.T) {
	w, mem, _ := newWriter(&fakeEngine{res: sectionedResult(t)})
	path := testutil.Path("/", "out", "top.xlsx")
	hdrgoPrt := true

	opts := Options{Content: grouper.ContentOptions{TopN: 1, HdrgoPrt: &hdrgoPrt}}
	if _, err := w.WriteXlsx(path, opts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := readXlsx(t, mem, path)
	if diff := cmp.Diff([]string{"GO", "NS", "GO_name"}, rows[0]); diff != "" {
		t.Errorf("header row mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteXlsx_TopNDropsDecorationOnFlat(t *testing.T) {
	res := &record.Flat{Schema: schema, Records: []record.Record{mkrec(t, "GO:1", true), mkrec(t, "GO:2", false)}}
	w, mem, _ := newWriter(&fakeEngine{res: res})
	path := testutil.Path("/", "out", "top_flat.xlsx")

	if _, err := w.WriteXlsx(path, Options{Content: grouper.ContentOptions{TopN: 5}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows := readXlsx(t, mem, path)
	if diff := cmp.Diff([]string{"GO", "NS", "GO_name"}, rows[0]); diff != "" {
		t.Errorf("header row mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteXlsx_HeaderLabelMismatch(t *testing.T) {
	w, mem, _ := newWriter(&fakeEngine{res: sectionedResult(t)})
	path := testutil.Path("/", "out", "bad.xlsx")

	_, err := w.WriteXlsx(path, Options{PrtFlds: []string{"GO"}, Hdrs: []string{"ID", "Name"}})
	var optErr *fields.OptionError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected OptionError, got %v", err)
	}
	if ok, _ := afero.Exists(mem, path); ok {
		t.Error("no file should be written for invalid options")
	}
}

func TestWriteXlsx_WidthOverrideForUnprintedField(t *testing.T) {
	w, _, _ := newWriter(&fakeEngine{res: sectionedResult(t)})
	opts := Options{PrtFlds: []string{"GO"}, Fld2ColWidths: map[string]int{"GO_name": 80}}
	if _, err := w.WriteXlsx(testutil.Path("/", "out", "w.xlsx"), opts); err != nil {
		t.Fatalf("width for an unprinted field should be ignored, got %v", err)
	}
}

func TestWriteTxt_Sections(t *testing.T) {
	eng := &fakeEngine{res: sectionedResult(t), usr: usr("GO:1", "GO:2")}
	w, mem, stdout := newWriter(eng)
	path := testutil.Path("/", "out", "sections.txt")

	_, sum, err := w.WriteTxt(path, Options{PrtFmt: "{GO} {GO_name}\n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := summary.Summary{Sections: 2, Grouped: 1, Ungrouped: 1, Path: path}
	if sum == nil || *sum != want {
		t.Fatalf("summary = %+v, want %+v", sum, want)
	}

	data, _ := afero.ReadFile(mem, path)
	wantTxt := "\nSECTION: A\nGO:1 name of GO:1\n\nSECTION: B\nGO:2 name of GO:2\nGO:3 name of GO:3\n"
	if diff := cmp.Diff(wantTxt, string(data)); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
	if got := stdout.String(); got != sum.Line("WROTE:")+"\n" {
		t.Errorf("completion line = %q", got)
	}
}

func TestWriteTxt_Flat(t *testing.T) {
	res := &record.Flat{Schema: schema, Records: []record.Record{mkrec(t, "GO:1", false)}}
	w, mem, stdout := newWriter(&fakeEngine{res: res}, WithVersions([]string{"go-basic.obo: 2026-10-01", "gogrouper dev"}))
	path := testutil.Path("/", "out", "flat.txt")

	_, sum, err := w.WriteTxt(path, Options{PrtFmt: "{NS} {GO}\n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum != nil {
		t.Errorf("flat writes have no summary, got %+v", sum)
	}
	if got := stdout.String(); got != "  WROTE: "+path+"\n" {
		t.Errorf("completion line = %q", got)
	}

	data, _ := afero.ReadFile(mem, path)
	want := "# Versions:\n#    go-basic.obo: 2026-10-01\n#    gogrouper dev\nBP GO:1\n"
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTxt_DefaultFormatNeedsGrouperFields(t *testing.T) {
	res := &record.Flat{Schema: schema}
	w, _, _ := newWriter(&fakeEngine{res: res})

	_, _, err := w.WriteTxt(testutil.Path("/", "out", "x.txt"), Options{})
	var optErr *fields.OptionError
	if !errors.As(err, &optErr) || optErr.Option != "prtfmt" {
		t.Fatalf("expected prtfmt OptionError, got %v", err)
	}
}

func TestWriteTxt_Idempotent(t *testing.T) {
	res := sectionedResult(t)
	w, mem, _ := newWriter(&fakeEngine{res: res, usr: usr("GO:1")}, WithVersions([]string{"v1"}))
	path := testutil.Path("/", "out", "twice.txt")

	if _, err := w.WriteTxtResult(path, res, "{GO}\n"); err != nil {
		t.Fatalf("first write: %v", err)
	}
	first, _ := afero.ReadFile(mem, path)
	if _, err := w.WriteTxtResult(path, res, "{GO}\n"); err != nil {
		t.Fatalf("second write: %v", err)
	}
	second, _ := afero.ReadFile(mem, path)

	if !bytes.Equal(first, second) {
		t.Errorf("outputs differ:\n%s\n---\n%s", first, second)
	}
}

func TestWriteTxt_EmptySections(t *testing.T) {
	res := &record.Sections{Schema: schema, Sections: []record.Section{}}
	w, mem, _ := newWriter(&fakeEngine{res: res, usr: usr("GO:1")})
	path := testutil.Path("/", "out", "empty.txt")

	_, sum, err := w.WriteTxt(path, Options{PrtFmt: "{GO}\n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Sections != 0 || sum.Grouped != 0 || sum.Ungrouped != 0 {
		t.Errorf("summary = %+v, want zero counts", sum)
	}
	if ok, _ := afero.Exists(mem, path); !ok {
		t.Error("expected an (empty) output file")
	}
}

func TestRenderExisting_MultipleFiles(t *testing.T) {
	res := sectionedResult(t)
	before := res.Sections[1].Records[0].ID()
	w, mem, _ := newWriter(&fakeEngine{res: nil, usr: usr("GO:1")})

	if _, err := w.WriteXlsxResult(testutil.Path("/", "out", "a.xlsx"), res, Options{}); err != nil {
		t.Fatalf("xlsx: %v", err)
	}
	if _, err := w.WriteTxtResult(testutil.Path("/", "out", "a.txt"), res, "{GO}\n"); err != nil {
		t.Fatalf("txt: %v", err)
	}
	for _, p := range []string{"a.xlsx", "a.txt"} {
		if ok, _ := afero.Exists(mem, testutil.Path("/", "out", p)); !ok {
			t.Errorf("%s not written", p)
		}
	}
	if len(res.Sections) != 2 || res.Sections[1].Records[0].ID() != before {
		t.Error("rendering modified the grouping")
	}
}

func TestWrite_ShapeError(t *testing.T) {
	w, mem, _ := newWriter(&fakeEngine{res: nil})
	xlsxPath := testutil.Path("/", "out", "x.xlsx")
	txtPath := testutil.Path("/", "out", "x.txt")

	var shapeErr *record.ShapeError
	if _, err := w.WriteXlsx(xlsxPath, Options{}); !errors.As(err, &shapeErr) {
		t.Errorf("xlsx: expected ShapeError, got %v", err)
	}
	if _, _, err := w.WriteTxt(txtPath, Options{}); !errors.As(err, &shapeErr) {
		t.Errorf("txt: expected ShapeError, got %v", err)
	}
	for _, p := range []string{xlsxPath, txtPath} {
		if ok, _ := afero.Exists(mem, p); ok {
			t.Errorf("%s should not be created", p)
		}
	}
}

func TestWrite_WriteError(t *testing.T) {
	readOnly := afero.NewReadOnlyFs(afero.NewMemMapFs())
	w := New(&fakeEngine{res: sectionedResult(t)}, WithFs(readOnly), WithStdout(&bytes.Buffer{}))

	var writeErr *WriteError
	if _, err := w.WriteXlsx(testutil.Path("/", "out", "x.xlsx"), Options{}); !errors.As(err, &writeErr) {
		t.Errorf("xlsx: expected WriteError, got %v", err)
	}
	if _, _, err := w.WriteTxt(testutil.Path("/", "out", "x.txt"), Options{PrtFmt: "{GO}\n"}); !errors.As(err, &writeErr) {
		t.Errorf("txt: expected WriteError, got %v", err)
	}
}

func TestWrite_WriteErrorOnDisk(t *testing.T) {
	dir := t.TempDir()
	w := New(&fakeEngine{res: sectionedResult(t)}, WithStdout(&bytes.Buffer{}))

	_, _, err := w.WriteTxt(testutil.Path(dir, "missing", "x.txt"), Options{PrtFmt: "{GO}\n"})
	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

func TestWriteXlsx_EmptyFieldListKeepsExistingReport(t *testing.T) {
	w, mem, _ := newWriter(&fakeEngine{res: sectionedResult(t)})
	path := testutil.Path("/", "out", "prev.xlsx")
	afero.WriteFile(mem, path, []byte("previous report"), 0644)

	_, err := w.WriteXlsx(path, Options{PrtFlds: []string{}})
	var optErr *fields.OptionError
	if !errors.As(err, &optErr) {
		t.Fatalf("expected OptionError, got %v", err)
	}
	var writeErr *WriteError
	if errors.As(err, &writeErr) {
		t.Errorf("empty field list reported as WriteError: %v", err)
	}
	kept, _ := afero.ReadFile(mem, path)
	if string(kept) != "previous report" {
		t.Errorf("existing report changed to %q", kept)
	}
}

func TestWrite_ConflictRename(t *testing.T) {
	res := &record.Flat{Schema: schema, Records: []record.Record{mkrec(t, "GO:1", false)}}
	w, mem, stdout := newWriter(&fakeEngine{res: res}, WithConflict(fs.ConflictRenameWithSuffix))
	path := testutil.Path("/", "out", "flat.txt")
	afero.WriteFile(mem, path, []byte("keep"), 0644)

	if _, _, err := w.WriteTxt(path, Options{PrtFmt: "{GO}\n"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kept, _ := afero.ReadFile(mem, path)
	if string(kept) != "keep" {
		t.Error("existing report was overwritten")
	}
	renamed := testutil.Path("/", "out", "flat_2.txt")
	if !strings.Contains(stdout.String(), renamed) {
		t.Errorf("completion line should name %s, got %q", renamed, stdout.String())
	}
}

func TestWithStatic_Fixture(t *testing.T) {
	data, err := os.ReadFile("../grouper/testdata/immune.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	mem := fs.NewMem()
	in := testutil.Path("/", "in", "immune.yaml")
	afero.WriteFile(mem, in, data, 0644)
	eng, err := grouper.Load(mem, in)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var stdout bytes.Buffer
	w := New(eng, WithFs(mem), WithStdout(&stdout))
	out := testutil.Path("/", "out", "immune.txt")
	_, sum, err := w.WriteTxt(out, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Sections != 2 || sum.Grouped != 2 || sum.Ungrouped != 3 {
		t.Errorf("summary = %+v", sum)
	}

	text, _ := afero.ReadFile(mem, out)
	if !strings.Contains(string(text), "**BP    3 uGOs    564 L01 D01 L     GO:0002376 immune system process\n") {
		t.Errorf("header row not rendered as expected:\n%s", text)
	}
}
