/*Package interval implements the ordered interval sweep, overlap predicate
  family, byte-indexed on-disk search, and visitor framework shared by
  BEDOPS-style genomic interval utilities: bedmap-style mapping of one sorted
  BED file against another, and bedextract-style chromosome-scoped retrieval.
  It assumes every coordinate fits in a PosType, which is wide enough to
  represent the largest coordinate BEDOPS tracks (10^12 - 1).
*/
package interval
