package interval

import "github.com/biogo/hts/sam"

// Order is a total (or, for the plain genomic order, partial-but-sufficient)
// order over *Record, modeled as a three-way comparator. Orders are value
// objects: predicate, sort-order policy, and delimiters are owned by the
// driver and handed to the sweep/visitor tree at construction, never read
// from process-wide state.
type Order struct {
	Name    string
	Compare func(a, b *Record) int
}

// Less reports whether a sorts before b under o.
func (o Order) Less(a, b *Record) bool { return o.Compare(a, b) < 0 }

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpPos(a, b PosType) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpGenomic(a, b *Record) int {
	if c := cmpString(a.Chrom, b.Chrom); c != 0 {
		return c
	}
	if c := cmpPos(a.Start, b.Start); c != 0 {
		return c
	}
	if c := cmpPos(a.End, b.End); c != 0 {
		return c
	}
	return cmpString(a.Rest, b.Rest)
}

func cmpSeq(a, b *Record) int {
	switch {
	case a.seq < b.seq:
		return -1
	case a.seq > b.seq:
		return 1
	default:
		return 0
	}
}

// GenomicOrder is the base total order described in §3: chromosome
// (byte-lexicographic), then start ascending, then end ascending, then the
// trailing payload as a last, deterministic tiebreaker.
var GenomicOrder = Order{Name: "genomic", Compare: cmpGenomic}

// GenomicAddressOrder extends GenomicOrder by breaking remaining ties with
// each record's arrival sequence, giving a strict total order suitable for
// stable sets (the window sweep's active window and deferred cache).
var GenomicAddressOrder = Order{
	Name: "genomic-address",
	Compare: func(a, b *Record) int {
		if c := cmpGenomic(a, b); c != 0 {
			return c
		}
		return cmpSeq(a, b)
	},
}

// StartCoordAddressOrder ignores chromosome and compares only by start
// coordinate, then address; it backs the byte-range finder's within-file
// probe comparison (chromStartCompare in rangefinder.go), whose chromosome
// comparison is layered on top of it.
var StartCoordAddressOrder = Order{
	Name: "start-address",
	Compare: func(a, b *Record) int {
		if c := cmpPos(a.Start, b.Start); c != 0 {
			return c
		}
		return cmpSeq(a, b)
	},
}

// ScoreOrderAsc and ScoreOrderDesc order purely by score; records without a
// score sort as though their score were +Inf, so they collect at the end of
// an ascending order and the start of a descending one.
var ScoreOrderAsc = Order{Name: "score-asc", Compare: cmpScoreAsc}
var ScoreOrderDesc = Order{Name: "score-desc", Compare: func(a, b *Record) int { return -cmpScoreAsc(a, b) }}

func cmpScoreAsc(a, b *Record) int {
	as, bs := !a.HasScore(), !b.HasScore()
	if as != bs {
		if as {
			return 1
		}
		return -1
	}
	return cmpFloat(a.Score, b.Score)
}

// ScoreThenGenomicOrderAsc and ScoreThenGenomicOrderDesc break score ties
// with GenomicAddressOrder, matching the comparator family min/max-element
// selection is built on. Only one variant is active per min/max-element
// operation.
var ScoreThenGenomicOrderAsc = Order{
	Name: "score-then-genomic-asc",
	Compare: func(a, b *Record) int {
		if c := cmpScoreAsc(a, b); c != 0 {
			return c
		}
		return GenomicAddressOrder.Compare(a, b)
	},
}

var ScoreThenGenomicOrderDesc = Order{
	Name: "score-then-genomic-desc",
	Compare: func(a, b *Record) int {
		if c := cmpScoreAsc(a, b); c != 0 {
			return -c
		}
		return GenomicAddressOrder.Compare(a, b)
	},
}

// NewHeaderOrder returns an Order equivalent to GenomicOrder, except that
// chromosomes are ranked by their position in a SAM/BAM header's reference
// list rather than byte-lexicographically. A chromosome absent from the header
// sorts after every named reference, then falls back to lexicographic
// order among themselves.
func NewHeaderOrder(header *sam.Header) Order {
	refs := header.Refs()
	rank := make(map[string]int, len(refs))
	for i, ref := range refs {
		rank[ref.Name()] = i
	}
	return Order{
		Name: "header-genomic",
		Compare: func(a, b *Record) int {
			ra, aok := rank[a.Chrom]
			rb, bok := rank[b.Chrom]
			switch {
			case aok && bok:
				if c := cmpInt(ra, rb); c != 0 {
					return c
				}
			case aok && !bok:
				return -1
			case !aok && bok:
				return 1
			default:
				if c := cmpString(a.Chrom, b.Chrom); c != 0 {
					return c
				}
			}
			if c := cmpPos(a.Start, b.Start); c != 0 {
				return c
			}
			if c := cmpPos(a.End, b.End); c != 0 {
				return c
			}
			return cmpString(a.Rest, b.Rest)
		},
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
