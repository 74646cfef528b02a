// Package mapdriver turns a bedmap-style argument vector into an
// interval.Predicate and an ordered []interval.Column, then wires the
// corresponding interval package primitives together. Option values —
// predicate, delimiters, precision — are plain struct fields built here
// and threaded into the sweep/visitor tree at construction; nothing in
// this package reads from process-wide state.
package mapdriver

import (
	"fmt"
	"strconv"

	"github.com/grailbio/bedops/interval"
)

// Options is the fully-parsed form of bedmap's CLI surface: exactly one
// overlap selector, one or more operations (each a Column, in the order
// they appeared on the command line), and the process flags that govern
// chromosome restriction, formatting, and strictness.
type Options struct {
	Predicate interval.Predicate
	Columns   []interval.Column

	Chrom             string
	ColumnDelim       string
	MultiValueDelim   string
	Precision         int
	Scientific        bool
	ErrorCheck        bool
	HeaderPassthrough bool
	SkipUnmapped      bool
	UnmappedVal       string
	SweepAll          bool
	Faster            bool
	MinMemory         bool

	// Files holds the one or two positional file arguments: a single file
	// means "map onto itself".
	Files []string
}

// DefaultOptions returns an Options with every process flag at its
// documented default, the default bp-overlap 1 predicate, and no operation
// selected yet.
func DefaultOptions() *Options {
	return &Options{
		Predicate:       interval.NewBPOverlap(1),
		ColumnDelim:     "|",
		MultiValueDelim: ";",
		UnmappedVal:     "NAN",
	}
}

// parseState carries ParseArgs' scan state; predicateSeen is set once an
// overlap selector has been read, so a second one can be rejected as
// PredicateMisconfiguration.
type parseState struct {
	opts           *Options
	predicateSeen  bool
}

// ParseArgs parses bedmap's argument vector. Operations are order-sensitive
// (MultiVisitor emits columns in the order they were requested), so this
// walks args by hand rather than through the standard flag package, which
// does not preserve the relative order of distinct boolean flags.
func ParseArgs(args []string) (*Options, error) {
	o := DefaultOptions()
	st := &parseState{opts: o}

	i := 0
	next := func(flag string) (string, error) {
		i++
		if i >= len(args) {
			return "", fmt.Errorf("%w: %s requires an argument", interval.ErrPredicateMisconfiguration, flag)
		}
		return args[i], nil
	}
	nextFloat := func(flag string) (float64, error) {
		s, err := next(flag)
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", interval.ErrPredicateMisconfiguration, flag, err)
		}
		return f, nil
	}
	nextUint := func(flag string) (interval.PosType, error) {
		s, err := next(flag)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", interval.ErrPredicateMisconfiguration, flag, err)
		}
		return interval.PosType(n), nil
	}

	for ; i < len(args); i++ {
		a := args[i]
		switch a {
		// Overlap selector (exactly one).
		case "--bp-ovr":
			n, err := nextUint(a)
			if err != nil {
				return nil, err
			}
			if err := st.selectPredicate(interval.NewBPOverlap(n)); err != nil {
				return nil, err
			}
		case "--range":
			n, err := nextUint(a)
			if err != nil {
				return nil, err
			}
			if err := st.selectPredicate(interval.NewRange(n)); err != nil {
				return nil, err
			}
		case "--exact":
			if err := st.selectPredicate(interval.NewExact()); err != nil {
				return nil, err
			}
		case "--fraction-ref":
			f, err := nextFloat(a)
			if err != nil {
				return nil, err
			}
			if err := st.selectPredicate(interval.NewFractionRef(f)); err != nil {
				return nil, err
			}
		case "--fraction-map":
			f, err := nextFloat(a)
			if err != nil {
				return nil, err
			}
			if err := st.selectPredicate(interval.NewFractionMap(f)); err != nil {
				return nil, err
			}
		case "--fraction-either":
			f, err := nextFloat(a)
			if err != nil {
				return nil, err
			}
			if err := st.selectPredicate(interval.NewFractionEither(f)); err != nil {
				return nil, err
			}
		case "--fraction-both":
			f, err := nextFloat(a)
			if err != nil {
				return nil, err
			}
			if err := st.selectPredicate(interval.NewFractionBoth(f)); err != nil {
				return nil, err
			}

		// Operations (one or more, order preserved).
		case "--count":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpCount})
		case "--indicator":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpIndicator})
		case "--bases":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpBases})
		case "--bases-uniq":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpBasesUniq})
		case "--bases-uniq-f":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpBasesUniqF})
		case "--min":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpMin})
		case "--max":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpMax})
		case "--min-element":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpMinElement})
		case "--max-element":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpMaxElement})
		case "--min-element-rand":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpMinElementRand})
		case "--max-element-rand":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpMaxElementRand})
		case "--sum":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpSum})
		case "--mean":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpMean})
		case "--wmean":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpWMean})
		case "--median":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpMedian})
		case "--variance":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpVariance})
		case "--stdev":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpStdev})
		case "--cv":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpCV})
		case "--mad":
			k := 1.0
			if i+1 < len(args) {
				if f, err := strconv.ParseFloat(args[i+1], 64); err == nil {
					k = f
					i++
				}
			}
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpMAD, Param: k})
		case "--kth":
			q, err := nextFloat(a)
			if err != nil {
				return nil, err
			}
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpKth, Param: q})
		case "--tmean":
			lo, err := nextFloat(a)
			if err != nil {
				return nil, err
			}
			hi, err := nextFloat(a)
			if err != nil {
				return nil, err
			}
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpTMean, Param: lo, Param2: hi})
		case "--echo":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoRef})
		case "--echo-ref-name":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoRefName})
		case "--echo-ref-score":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoRefScore})
		case "--echo-ref-span":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoRefSpan})
		case "--echo-ref-length":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoRefLength})
		case "--echo-ref-row-id":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoRefRowID})
		case "--echo-map":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoMap})
		case "--echo-map-id":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoMapID})
		case "--echo-map-id-uniq":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoMapIDUniq})
		case "--echo-map-range":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoMapRange})
		case "--echo-map-score":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoMapScore})
		case "--echo-map-size":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoMapSize})
		case "--echo-overlap-size":
			o.Columns = append(o.Columns, interval.Column{Op: interval.OpEchoOverlapSize})

		// Process flags.
		case "--chrom":
			v, err := next(a)
			if err != nil {
				return nil, err
			}
			o.Chrom = v
		case "--delim":
			v, err := next(a)
			if err != nil {
				return nil, err
			}
			o.ColumnDelim = v
		case "--multidelim":
			v, err := next(a)
			if err != nil {
				return nil, err
			}
			o.MultiValueDelim = v
		case "--prec":
			v, err := next(a)
			if err != nil {
				return nil, err
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%w: --prec: %v", interval.ErrPredicateMisconfiguration, err)
			}
			o.Precision = n
		case "--sci":
			o.Scientific = true
		case "--ec":
			o.ErrorCheck = true
		case "--header":
			o.HeaderPassthrough = true
		case "--skip-unmapped":
			o.SkipUnmapped = true
		case "--unmapped-val":
			v, err := next(a)
			if err != nil {
				return nil, err
			}
			o.UnmappedVal = v
		case "--sweep-all":
			o.SweepAll = true
		case "--faster":
			o.Faster = true
		case "--min-memory":
			o.MinMemory = true

		default:
			o.Files = append(o.Files, a)
		}
	}

	if len(o.Columns) == 0 {
		return nil, fmt.Errorf("%w: at least one operation is required", interval.ErrPredicateMisconfiguration)
	}
	if len(o.Files) < 1 || len(o.Files) > 2 {
		return nil, fmt.Errorf("%w: expected one or two input files, got %d", interval.ErrPredicateMisconfiguration, len(o.Files))
	}
	if o.Faster && !fasterCompatible(o.Predicate) {
		return nil, fmt.Errorf("%w: --faster requires bp-ovr, range, fraction-both, or exact", interval.ErrPredicateMisconfiguration)
	}
	for i := range o.Columns {
		o.Columns[i].Precision = o.Precision
		o.Columns[i].Scientific = o.Scientific
	}
	return o, nil
}

func (st *parseState) selectPredicate(p interval.Predicate) error {
	if st.predicateSeen {
		return fmt.Errorf("%w: only one overlap selector is allowed", interval.ErrPredicateMisconfiguration)
	}
	st.predicateSeen = true
	st.opts.Predicate = p
	return nil
}

// fasterCompatible reports whether p is one of the predicate kinds
// --faster is documented to support: it promises no nested map elements,
// which only matters to the deferred-cache re-entry logic these kinds can
// trigger.
func fasterCompatible(p interval.Predicate) bool {
	switch p.Kind {
	case interval.BPOverlap, interval.RangePredicate, interval.FractionBoth, interval.Exact:
		return true
	default:
		return false
	}
}
