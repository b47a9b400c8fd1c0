// Package widths resolves spreadsheet column widths from layered defaults
// and per-call overrides.
package widths

import (
	"github.com/prettymuchbryce/gogrouper/internal/record"
)

// HdrIdxWidth is the width given to every header-index field.
const HdrIdxWidth = 2

// Layer maps field names to column widths.
type Layer map[string]int

// Named is a Layer with a label, so precedence can be inspected.
type Named struct {
	Name  string
	Layer Layer
}

// Table is an ordered list of layers. Later layers overwrite earlier ones.
// A Table is never modified after construction.
type Table struct {
	layers []Named
}

// NewTable creates a Table from layers applied left to right.
// The layers are copied.
func NewTable(layers ...Named) Table {
	t := Table{layers: make([]Named, 0, len(layers))}
	for _, l := range layers {
		t.layers = append(t.layers, Named{Name: l.Name, Layer: copyLayer(l.Layer)})
	}
	return t
}

// SubDagLayer holds widths for GO sub-DAG report fields.
func SubDagLayer() Named {
	return Named{Name: "gosubdag", Layer: Layer{
		record.FieldNS:        3,
		record.FieldNumUsrGOs: 5,
		record.FieldDcnt:      5,
		record.FieldLevel:     3,
		record.FieldDepth:     3,
		record.FieldGO:        12,
		record.FieldD1:        6,
		record.FieldGOName:    45,
		"alt":                 2,
		"reldepth":            3,
		"childcnt":            5,
		"tinfo":               5,
	}}
}

// EnrichmentLayer holds widths for GO enrichment study report fields.
func EnrichmentLayer() Named {
	return Named{Name: "enrichment", Layer: Layer{
		record.FieldNS:   3,
		record.FieldGO:   12,
		"alt":            2,
		"level":          3,
		"depth":          3,
		"enrichment":     1,
		"name":           60,
		"ratio_in_study": 8,
		"ratio_in_pop":   12,
		"study_items":    15,
	}}
}

// HdrIdxLayer gives the minimal width to every header-index field.
func HdrIdxLayer() Named {
	l := Layer{}
	for _, f := range record.HdrIdxFields() {
		l[f] = HdrIdxWidth
	}
	return Named{Name: "hdridx", Layer: l}
}

var defaults = NewTable(SubDagLayer(), EnrichmentLayer(), HdrIdxLayer())

// Defaults returns the built-in width table.
func Defaults() Table {
	return defaults
}

// Layers returns copies of the layers in precedence order.
func (t Table) Layers() []Named {
	return NewTable(t.layers...).layers
}

// With returns a new Table with extra layers appended after t's layers.
func (t Table) With(layers ...Named) Table {
	return NewTable(append(append([]Named(nil), t.layers...), layers...)...)
}

// Resolve merges every layer, then overrides, into a new map. A field in
// overrides gets exactly the override value. Fields known to no layer are
// absent so the backend can choose.
func (t Table) Resolve(overrides map[string]int) map[string]int {
	out := make(map[string]int)
	for _, l := range t.layers {
		for fld, wid := range l.Layer {
			out[fld] = wid
		}
	}
	for fld, wid := range overrides {
		out[fld] = wid
	}
	return out
}

func copyLayer(l Layer) Layer {
	c := make(Layer, len(l))
	for k, v := range l {
		c[k] = v
	}
	return c
}
