package mapdriver

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"

	"github.com/grailbio/bedops/interval"
)

// Run executes a bedmap-style two-file overlap pass: it opens the
// reference file and the map file (the same file twice, for the
// single-file "map onto itself" form), builds the predicate and visitor
// tree parsed opts describes, and drives interval.Sweep to completion,
// writing one line per reference to out. It is thin glue, carrying no
// policy of its own beyond what Options already decided.
func Run(ctx context.Context, opts *Options, out io.Writer) error {
	refPath := opts.Files[0]
	mapPath := refPath
	if len(opts.Files) == 2 {
		mapPath = opts.Files[1]
	}

	pool := interval.NewPool(4096)
	ropts := interval.ReaderOptions{
		Chrom:             opts.Chrom,
		ErrorCheck:        opts.ErrorCheck,
		HeaderPassthrough: opts.HeaderPassthrough,
		Pool:              pool,
	}

	refs, err := interval.Open(ctx, refPath, ropts)
	if err != nil {
		return errors.E(err, "mapdriver: opening reference file", refPath)
	}
	defer refs.Close()

	maps, err := interval.Open(ctx, mapPath, ropts)
	if err != nil {
		return errors.E(err, "mapdriver: opening map file", mapPath)
	}
	defer maps.Close()

	mv := interval.NewMultiVisitor(out, opts.Columns)
	mv.ColumnDelim = opts.ColumnDelim
	mv.MultiValueDelim = opts.MultiValueDelim
	mv.SkipUnmapped = opts.SkipUnmapped
	mv.UnmappedVal = opts.UnmappedVal

	log.Printf("mapdriver: mapping %s onto %s (predicate=%+v, %d column(s))", mapPath, refPath, opts.Predicate, len(opts.Columns))

	sweep := interval.NewSweep(refs, maps, opts.Predicate, mv, opts.SweepAll)
	if err := sweep.Run(); err != nil {
		return errors.E(err, "mapdriver: sweep")
	}
	return mv.Err()
}
