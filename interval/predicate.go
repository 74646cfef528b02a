package interval

// PredicateKind names one of the overlap-qualifying criteria described in
// §3. Exactly one is active per sweep or range-location pass.
type PredicateKind int

const (
	// BPOverlap requires overlap length >= N base pairs.
	BPOverlap PredicateKind = iota
	// RangePredicate treats the reference as [Start-R, End+R] before
	// testing overlap. R=0 behaves like BPOverlap with N=1.
	RangePredicate
	// FractionRef requires overlap >= f * length(reference).
	FractionRef
	// FractionMap requires overlap >= f * length(map element).
	FractionMap
	// FractionEither requires FractionRef or FractionMap to hold.
	FractionEither
	// FractionBoth requires both FractionRef and FractionMap to hold.
	FractionBoth
	// Exact requires the first three fields of the map element to equal
	// those of the reference.
	Exact
)

// Predicate bundles a PredicateKind with whichever parameter it needs: BP
// for BPOverlap's N or RangePredicate's R, Frac for the fraction family.
// Predicate values carry no other state and are safe to share.
type Predicate struct {
	Kind PredicateKind
	BP   PosType
	Frac float64
}

// NewBPOverlap returns the bp-overlap predicate with threshold n. n=0 is
// normalized to the documented default of 1.
func NewBPOverlap(n PosType) Predicate {
	if n == 0 {
		n = 1
	}
	return Predicate{Kind: BPOverlap, BP: n}
}

// NewRange returns the range predicate with radius r. r=0 is an alias for
// bp-overlap 1, per §3.
func NewRange(r PosType) Predicate {
	if r == 0 {
		return NewBPOverlap(1)
	}
	return Predicate{Kind: RangePredicate, BP: r}
}

// NewFractionRef, NewFractionMap, NewFractionEither, and NewFractionBoth
// construct the corresponding fraction predicate with threshold f.
func NewFractionRef(f float64) Predicate    { return Predicate{Kind: FractionRef, Frac: f} }
func NewFractionMap(f float64) Predicate    { return Predicate{Kind: FractionMap, Frac: f} }
func NewFractionEither(f float64) Predicate { return Predicate{Kind: FractionEither, Frac: f} }
func NewFractionBoth(f float64) Predicate   { return Predicate{Kind: FractionBoth, Frac: f} }

// NewExact returns the exact-match predicate.
func NewExact() Predicate { return Predicate{Kind: Exact} }

// Reach returns the maximum genomic distance, beyond a reference's own
// extent, at which this predicate could still admit a map element. It is
// used by the window sweep to decide when a map element can safely be
// purged: only RangePredicate widens the geometric test (to [Start-R,
// End+R]), so it is the only kind with nonzero reach. The fraction and
// bp-overlap families only change the *threshold* applied to the literal
// geometric overlap, never the coordinates being compared, so a map element
// whose End has already fallen behind a reference's Start can never
// satisfy them regardless of threshold.
func (p Predicate) Reach() PosType {
	if p.Kind == RangePredicate {
		return p.BP
	}
	return 0
}

// Match reports whether m qualifies as "in window" for reference ref under p.
func (p Predicate) Match(ref, m *Record) bool {
	if ref.Chrom != m.Chrom {
		return false
	}
	switch p.Kind {
	case Exact:
		return ref.Start == m.Start && ref.End == m.End
	case RangePredicate:
		expanded := Record{Chrom: ref.Chrom, Start: subClamp(ref.Start, p.BP), End: addClamp(ref.End, p.BP)}
		return expanded.Overlap(m) > 0
	case BPOverlap:
		return ref.Overlap(m) >= p.BP
	case FractionRef:
		return fractionRefMatch(ref, m, p.Frac)
	case FractionMap:
		return fractionMapMatch(ref, m, p.Frac)
	case FractionEither:
		return fractionRefMatch(ref, m, p.Frac) || fractionMapMatch(ref, m, p.Frac)
	case FractionBoth:
		return fractionRefMatch(ref, m, p.Frac) && fractionMapMatch(ref, m, p.Frac)
	default:
		return false
	}
}

func fractionRefMatch(ref, m *Record, f float64) bool {
	refLen := ref.Length()
	if refLen == 0 {
		return ref.Overlap(m) > 0
	}
	return float64(ref.Overlap(m)) >= f*float64(refLen)
}

func fractionMapMatch(ref, m *Record, f float64) bool {
	mapLen := m.Length()
	if mapLen == 0 {
		return ref.Overlap(m) > 0
	}
	return float64(ref.Overlap(m)) >= f*float64(mapLen)
}

func subClamp(a, b PosType) PosType {
	if b > a {
		return 0
	}
	return a - b
}

func addClamp(a, b PosType) PosType {
	sum := a + b
	if sum > PosTypeMax {
		return PosTypeMax
	}
	return sum
}
