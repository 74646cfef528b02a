package interval

import "sort"

// Visitor observes a window sweep's lifecycle. OnStart fires before any map
// elements are inspected for a reference, OnAdd/OnDelete fire as elements
// enter and leave the active window, and OnDone fires once the window is
// settled for that reference (every element that will ever be added for it
// has been) — this OnStart/OnAdd/OnDelete/OnDone cycle repeats once per
// reference. OnEnd fires exactly once, after the entire reference stream is
// exhausted and no further reference remains. Implementations that need a
// record to outlive the call (for example to report it later, at OnDone)
// must Retain it, and Release it when finished.
type Visitor interface {
	OnStart(ref *Record)
	OnAdd(ref, m *Record)
	OnDelete(ref, m *Record)
	OnDone(ref *Record)
	OnEnd()
	// Err returns the first error this visitor encountered handling any of
	// the above (typically a write error to its output), if any. Sweep
	// checks it after every reference and aborts once it is set.
	Err() error
}

// Sweep drives a single linear pass over a map stream against a reference
// stream, maintaining an active window of map elements currently in range
// of the reference under a Predicate, plus a small deferred cache of
// elements read ahead of the window that are not yet (or no longer) in
// range of the current reference but may be needed for a later one.
//
// Both streams must already be sorted under GenomicOrder; Sweep does not
// re-sort or buffer either one beyond what the active window and deferred
// cache require.
type Sweep struct {
	refs RecordReader
	maps RecordReader
	pred Predicate
	vis  Visitor

	// sweepAll, when true, drains the map stream to EOF after the final
	// reference is done (and before OnEnd), releasing each remaining map
	// element without reporting any window event for it (--sweep-all).
	sweepAll bool

	window     []*Record // active window, kept sorted by GenomicAddressOrder
	deferred   []*Record // read-ahead elements not currently in window
	pendingMap *Record   // one map element read but not yet classified
	mapDone    bool
}

// NewSweep constructs a Sweep over refs and maps using pred to decide
// window membership, reporting lifecycle events to vis. sweepAll enables
// the --sweep-all accommodation described in §4.4.
func NewSweep(refs, maps RecordReader, pred Predicate, vis Visitor, sweepAll bool) *Sweep {
	return &Sweep{refs: refs, maps: maps, pred: pred, vis: vis, sweepAll: sweepAll}
}

// Run drives the sweep to completion, consuming the reference stream to its
// end; the map stream is read only as far as the last reference needs,
// unless sweepAll is set, in which case it is also read to its end.
func (s *Sweep) Run() error {
	for {
		ref, err := s.refs.Next()
		if err != nil {
			return err
		}
		if ref == nil {
			break
		}
		if err := s.step(ref); err != nil {
			ref.Release()
			return err
		}
		ref.Release()
	}
	if s.sweepAll {
		if err := s.drainRemaining(); err != nil {
			return err
		}
	}
	if err := s.releaseAll(); err != nil {
		return err
	}
	s.vis.OnEnd()
	return s.vis.Err()
}

// step advances the sweep for a single reference: purge window entries that
// have fallen permanently out of reach (moving any that merely stopped
// matching into the deferred cache), then promote deferred entries (and
// fresh reads from the map stream) that are now in range, and report the
// resulting window to the visitor. Purging before filling ensures Delete
// events for this reference are reported before any Add events, per §4.4.
func (s *Sweep) step(ref *Record) error {
	s.vis.OnStart(ref)

	s.purge(ref)
	if err := s.fill(ref); err != nil {
		return err
	}

	s.vis.OnDone(ref)
	return s.vis.Err()
}

// fill reads ahead from the map stream (and re-examines the deferred
// cache) until every map element that could possibly be in range of ref
// has been classified into the window or the deferred cache.
func (s *Sweep) fill(ref *Record) error {
	stopAfter := addClamp(ref.End, s.pred.Reach())

	kept := s.deferred[:0]
	for _, m := range s.deferred {
		if s.classify(ref, m, stopAfter) {
			continue
		}
		kept = append(kept, m)
	}
	s.deferred = kept

	for {
		m, err := s.nextMap()
		if err != nil {
			return err
		}
		if m == nil {
			break
		}
		if GenomicOrder.Compare(m, ref) > 0 && m.Start > stopAfter {
			s.pendingMap = m
			break
		}
		if s.classify(ref, m, stopAfter) {
			continue
		}
		s.deferred = append(s.deferred, m)
	}
	return nil
}

// permanentlyBehind reports whether m can never again satisfy the predicate
// against ref or any later reference, per spec.md §4.4: either m's
// chromosome sorts strictly before ref's (every later reference only moves
// forward in chromosome order, so m's chromosome is gone for good), or m is
// on the same chromosome but has already fallen out of the predicate's
// reach of ref's start.
func (s *Sweep) permanentlyBehind(ref, m *Record) bool {
	if m.Chrom != ref.Chrom {
		return m.Chrom < ref.Chrom
	}
	return m.End+s.pred.Reach() <= ref.Start
}

// classify admits m into the window if it matches ref under the predicate,
// returning true if it was consumed (added to the window or discarded as
// permanently behind). An element that is neither admitted nor yet
// discardable is left for the caller to hold in the deferred cache.
func (s *Sweep) classify(ref, m *Record, stopAfter PosType) bool {
	if s.permanentlyBehind(ref, m) {
		m.Release()
		return true
	}
	if s.pred.Match(ref, m) {
		s.window = append(s.window, m)
		sortWindow(s.window)
		s.vis.OnAdd(ref, m)
		return true
	}
	return false
}

// purge drops window entries that can never again satisfy the predicate
// against any later reference, per the same reach argument classify uses.
func (s *Sweep) purge(ref *Record) {
	kept := s.window[:0]
	for _, m := range s.window {
		if s.permanentlyBehind(ref, m) {
			s.vis.OnDelete(ref, m)
			m.Release()
			continue
		}
		if !s.pred.Match(ref, m) {
			s.vis.OnDelete(ref, m)
			s.deferred = append(s.deferred, m)
			continue
		}
		kept = append(kept, m)
	}
	s.window = kept
}

// nextMap returns the next map element, preferring one already read ahead
// by fill over reading a fresh one from the stream.
func (s *Sweep) nextMap() (*Record, error) {
	if s.pendingMap != nil {
		m := s.pendingMap
		s.pendingMap = nil
		return m, nil
	}
	if s.mapDone {
		return nil, nil
	}
	m, err := s.maps.Next()
	if err != nil {
		return nil, err
	}
	if m == nil {
		s.mapDone = true
		return nil, nil
	}
	return m, nil
}

// drainRemaining implements --sweep-all: after every reference has been
// processed, read whatever remains of the map stream without reporting any
// further window events, releasing each element.
func (s *Sweep) drainRemaining() error {
	for {
		m, err := s.nextMap()
		if err != nil {
			return err
		}
		if m == nil {
			return nil
		}
		m.Release()
	}
}

func (s *Sweep) releaseAll() error {
	for _, m := range s.window {
		m.Release()
	}
	s.window = nil
	for _, m := range s.deferred {
		m.Release()
	}
	s.deferred = nil
	return nil
}

func sortWindow(w []*Record) {
	sort.SliceStable(w, func(i, j int) bool { return GenomicAddressOrder.Less(w[i], w[j]) })
}
