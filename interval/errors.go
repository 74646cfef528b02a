package interval

import "errors"

// Sentinel errors for the taxonomy described in the BEDOPS core's error
// handling design. Callers use errors.Is against these; context (file name,
// line number) is attached with github.com/grailbio/base/errors.E at the
// point each is raised.
var (
	// ErrMalformedRecord is returned when a record has fewer than three
	// whitespace-delimited tokens, start > end, or start/end are not
	// unsigned integers.
	ErrMalformedRecord = errors.New("interval: malformed record")
	// ErrOrderingViolation is returned in error-check mode when two
	// successive records violate the total order.
	ErrOrderingViolation = errors.New("interval: ordering violation")
	// ErrPredicateMisconfiguration is returned by option parsing, before
	// any I/O, when the overlap selector or operation set is invalid.
	ErrPredicateMisconfiguration = errors.New("interval: predicate misconfiguration")
	// ErrUnseekableSource is returned when a range-location operation is
	// attempted against a non-seekable handle (a pipe).
	ErrUnseekableSource = errors.New("interval: unseekable source")
	// ErrChromosomeNotFound names the absent-chromosome case. It is not a
	// fatal error and nothing in this package returns it: Extractor.Chromosome
	// reports an absent chromosome as a reader with no records and a nil
	// error.
	ErrChromosomeNotFound = errors.New("interval: chromosome not found")
	// ErrTruncated names a short read where a complete record or line was
	// expected. Nothing in this package returns it; a short final line is
	// decoded as it stands.
	ErrTruncated = errors.New("interval: truncated input")
	// ErrCorruptArchive is returned by the compressed-archive reader when
	// the codec detects invalid or inconsistent archive structure.
	ErrCorruptArchive = errors.New("interval: corrupt archive")
	// ErrChromosomeTooLong is returned when a chromosome field exceeds its
	// configured cap.
	ErrChromosomeTooLong = errors.New("interval: chromosome field too long")
	// ErrFieldTooLong is returned when an id or rest field — or a line the
	// byte-range finder must scan back across — exceeds its configured cap.
	ErrFieldTooLong = errors.New("interval: field too long")
	// ErrOutOfMemory names a failure of the allocator pool's
	// plain-allocation fallback. Pool.Acquire does not check for one and
	// nothing in this package returns it.
	ErrOutOfMemory = errors.New("interval: out of memory")
	// ErrCorruptSortOrder names a byte-range finder probe landing on a
	// record that contradicts the expected total order. The range finder
	// does not check probes for this and nothing in this package returns it.
	ErrCorruptSortOrder = errors.New("interval: corrupt sort order")
)
