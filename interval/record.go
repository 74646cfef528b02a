package interval

import "math"

// PosType is the coordinate type used throughout this package. Coordinates
// are half-open and zero-based, as in BED.
type PosType uint64

// PosTypeMax is the largest coordinate this package will accept.
const PosTypeMax PosType = 1e12 - 1

// Limits bounds the sizes of the textual fields a Record may carry. The
// defaults match a standard BEDOPS build; a "megarow" build raises them.
type Limits struct {
	MaxChrom int
	MaxID    int
	MaxRest  int
}

// DefaultLimits matches a standard BEDOPS build: chromosome <= 2^7-1 bytes,
// id <= 2^13-1 bytes, trailing rest <= 2^15-1 bytes.
var DefaultLimits = Limits{MaxChrom: 1<<7 - 1, MaxID: 1<<13 - 1, MaxRest: 1<<15 - 1}

// MegarowLimits raises the field caps for inputs with unusually long
// identifiers or trailing payloads.
var MegarowLimits = Limits{MaxChrom: 1<<10 - 1, MaxID: 1<<20 - 1, MaxRest: 1<<24 - 1}

// Record is an immutable genomic interval: a chromosome, a half-open
// [Start, End) span, and optional id/score/trailing fields. Records are
// produced by the streaming reader, normally drawn from a Pool (see pool.go),
// and are safe to compare by value once Start/End/Chrom are set.
//
// Ownership is reference counted rather than garbage collected outright: the
// window sweep lends a Record to a visitor for the duration of one event: a
// visitor that must outlive that event calls Retain, and Release when it is
// done. The backing Pool reclaims the slot once the count reaches zero. A
// Record with a nil pool (e.g. one built directly by a test) ignores
// Retain/Release entirely.
type Record struct {
	Chrom string
	Start PosType
	End   PosType
	ID    string
	// Score is the record's numeric measurement. Use NoScore() (math.NaN())
	// to mean "absent".
	Score float64
	Rest  string

	// seq is a monotone arrival sequence assigned by Pool.Acquire; a Record
	// built without a Pool keeps seq 0. It lets address-order comparators
	// break ties deterministically between pooled records without relying
	// on pointer identity, which would make sets order-dependent on
	// allocation.
	seq uint64

	pool *Pool
	refs int32
}

// NoScore reports the sentinel value meaning "this record carries no score".
// BEDOPS can be built with double or quadruple precision; this package
// always carries scores in float64, the highest precision Go's numeric
// tower supports without a third-party bignum type.
func NoScore() float64 { return math.NaN() }

// HasScore reports whether r carries a numeric score.
func (r *Record) HasScore() bool { return !math.IsNaN(r.Score) }

// Seq returns the record's arrival sequence number, used by
// GenomicAddressOrder and similar comparators to break ties deterministically.
func (r *Record) Seq() uint64 { return r.seq }

// Length returns End - Start.
func (r *Record) Length() PosType { return r.End - r.Start }

// Retain increments r's reference count and returns r, for call chaining.
// Callers that need a Record to outlive the sweep event during which they
// received it (e.g. a min/max-element visitor) must call Retain while they
// still hold a valid borrow, and Release exactly once when finished.
func (r *Record) Retain() *Record {
	if r.pool != nil {
		r.refs++
	}
	return r
}

// Release decrements r's reference count. Once the count reaches zero, the
// owning Pool may reuse r's storage; the caller must not touch r again.
func (r *Record) Release() {
	if r.pool == nil {
		return
	}
	r.refs--
	if r.refs <= 0 {
		r.pool.release(r)
	}
}

// Clone returns an independent, unpooled copy of r's fields. Visitors that
// want to retain a record's *values* past its lifetime (rather than the
// pooled object itself) should prefer Clone over Retain — it avoids coupling
// visitor lifetime to the sweep's allocator.
func (r *Record) Clone() *Record {
	return &Record{
		Chrom: r.Chrom,
		Start: r.Start,
		End:   r.End,
		ID:    r.ID,
		Score: r.Score,
		Rest:  r.Rest,
		seq:   r.seq,
	}
}

// Distance returns the signed genomic distance from r to o: zero if they
// overlap, positive if o lies downstream of r, negative if o lies upstream,
// and +Inf if they are on different chromosomes.
func (r *Record) Distance(o *Record) float64 {
	if r.Chrom != o.Chrom {
		return math.Inf(1)
	}
	if r.End <= o.Start {
		return float64(o.Start - r.End)
	}
	if o.End <= r.Start {
		return -float64(r.Start - o.End)
	}
	return 0
}

// Overlap returns the non-negative base-pair overlap between r and o. Records
// on different chromosomes never overlap. A zero-length record (Start==End)
// is treated as a single genomic point: it overlaps another record only when
// that record strictly contains the point (touching an edge does not count),
// in which case the reported overlap is exactly 1; two zero-length records
// never overlap.
func (r *Record) Overlap(o *Record) PosType {
	if r.Chrom != o.Chrom {
		return 0
	}
	if r.Start == r.End || o.Start == o.End {
		return pointOverlap(r, o)
	}
	lo := r.Start
	if o.Start > lo {
		lo = o.Start
	}
	hi := r.End
	if o.End < hi {
		hi = o.End
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func pointOverlap(a, b *Record) PosType {
	if a.Start == a.End && b.Start == b.End {
		return 0
	}
	point, iv := a.Start, b
	if a.Start != a.End {
		point, iv = b.Start, a
	}
	if point > iv.Start && point < iv.End {
		return 1
	}
	return 0
}

// Intersection returns the overlapping span of r and o. The second return
// value is false when they do not overlap, in which case the Record is the
// zero value.
func (r *Record) Intersection(o *Record) (Record, bool) {
	if r.Overlap(o) == 0 {
		return Record{}, false
	}
	lo, hi := r.Start, r.End
	if o.Start > lo {
		lo = o.Start
	}
	if o.End < hi {
		hi = o.End
	}
	return Record{Chrom: r.Chrom, Start: lo, End: hi}, true
}

// Union returns the smallest interval spanning both r and o. It is defined
// only when they overlap (in the Overlap sense above); the second return
// value is false otherwise.
func (r *Record) Union(o *Record) (Record, bool) {
	if r.Overlap(o) == 0 {
		return Record{}, false
	}
	lo, hi := r.Start, r.End
	if o.Start < lo {
		lo = o.Start
	}
	if o.End > hi {
		hi = o.End
	}
	return Record{Chrom: r.Chrom, Start: lo, End: hi}, true
}
