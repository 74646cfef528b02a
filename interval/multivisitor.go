package interval

import (
	"bufio"
	"io"
)

// MultiVisitor computes one or more Columns per reference and writes them,
// joined by ColumnDelim, as one line per reference to Out. It owns the
// active window's bookkeeping itself (tracking map elements by the record
// the sweep passed to OnAdd/OnDelete, in OnAdd order) so every Column sees
// the same settled window snapshot at OnDone.
type MultiVisitor struct {
	Columns []Column
	Out     io.Writer

	// ColumnDelim separates columns within a row; defaults to "\t".
	ColumnDelim string
	// MultiValueDelim separates per-map-element values within a single
	// echo-map-* column; defaults to ";".
	MultiValueDelim string
	// SkipUnmapped, when true, omits the row entirely for a reference with
	// an empty window instead of writing UnmappedVal-filled columns.
	SkipUnmapped bool
	// UnmappedVal is substituted wherever a column's natural result is "no
	// value" rather than a meaningful zero (an empty window, a missing
	// score); defaults to "NAN".
	UnmappedVal string

	w      *bufio.Writer
	srcs   []*Record // window elements as passed to OnAdd, in OnAdd order
	clones []*Record // clones[i] is srcs[i].Clone()
	rowID  int
	err    error
}

// NewMultiVisitor returns a MultiVisitor ready to drive a Sweep.
func NewMultiVisitor(out io.Writer, columns []Column) *MultiVisitor {
	return &MultiVisitor{
		Columns:         columns,
		Out:             out,
		ColumnDelim:     "\t",
		MultiValueDelim: ";",
		UnmappedVal:     "NAN",
		w:               bufio.NewWriter(out),
	}
}

func (v *MultiVisitor) OnStart(ref *Record) {}

func (v *MultiVisitor) OnAdd(ref, m *Record) {
	v.srcs = append(v.srcs, m)
	v.clones = append(v.clones, m.Clone())
}

func (v *MultiVisitor) OnDelete(ref, m *Record) {
	for i, s := range v.srcs {
		if s == m {
			v.srcs = append(v.srcs[:i], v.srcs[i+1:]...)
			v.clones = append(v.clones[:i], v.clones[i+1:]...)
			return
		}
	}
}

func (v *MultiVisitor) OnDone(ref *Record) {
	rowID := v.rowID
	v.rowID++
	if v.err != nil {
		return
	}
	window := append([]*Record(nil), v.clones...)
	sortWindow(window)
	if v.SkipUnmapped && len(window) == 0 {
		return
	}
	for i, col := range v.Columns {
		if i > 0 {
			if _, err := v.w.WriteString(v.ColumnDelim); err != nil {
				v.err = err
				return
			}
		}
		if _, err := v.w.WriteString(col.Value(ref, window, v.MultiValueDelim, v.UnmappedVal, rowID)); err != nil {
			v.err = err
			return
		}
	}
	if _, err := v.w.WriteString("\n"); err != nil {
		v.err = err
	}
}

func (v *MultiVisitor) OnEnd() {
	if v.err == nil {
		if err := v.w.Flush(); err != nil {
			v.err = err
		}
	}
}

// Err reports the first write error this visitor encountered, if any.
func (v *MultiVisitor) Err() error { return v.err }
