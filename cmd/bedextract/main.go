// bedextract performs fast chromosome-scoped retrieval from a sorted,
// seekable plain-text BED file: listing the distinct chromosomes present,
// emitting every record on one chromosome, or emitting every record of a
// query file that overlaps some record of a target file. Every file it
// searches is read as plain BED text through the byte-range finder; Starch
// archives and standard input are not accepted there.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/bedops/interval"
)

const usage = `Usage:
  bedextract --help
  bedextract --version
  bedextract --list-chr FILE
  bedextract CHROM FILE
  bedextract QUERY TARGET
`

func main() {
	shutdown := grail.Init()
	defer shutdown()

	args := os.Args[1:]
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		fmt.Fprint(os.Stdout, usage)
		return
	}
	if args[0] == "--version" {
		fmt.Fprintln(os.Stdout, "bedextract (bedops core) 1.0")
		return
	}

	ctx := vcontext.Background()
	if err := run(ctx, args, os.Stdout); err != nil {
		log.Error.Printf("bedextract: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if args[0] == "--list-chr" {
		if len(args) != 2 {
			return fmt.Errorf("%w: --list-chr takes exactly one file", interval.ErrPredicateMisconfiguration)
		}
		return listChromosomes(args[1], out)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: expected CHROM FILE or QUERY TARGET", interval.ErrPredicateMisconfiguration)
	}
	// Disambiguate "CHROM FILE" from "QUERY TARGET" by whether the first
	// argument is itself a readable, non-directory file:
	// a chromosome identifier essentially never is.
	first, second := args[0], args[1]
	if first == "-" {
		return fmt.Errorf("%w: QUERY must not be standard input", interval.ErrPredicateMisconfiguration)
	}
	if isFile(first) {
		return emitOverlap(ctx, first, second, out)
	}
	return emitChromosome(first, second, out)
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

func listChromosomes(path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.E(err, "bedextract: opening", path)
	}
	defer f.Close()

	ext := interval.NewExtractor(f, interval.ReaderOptions{})
	names, err := ext.ListChromosomes()
	if err != nil {
		return errors.E(err, "bedextract: listing chromosomes of", path)
	}
	for _, name := range names {
		if _, err := fmt.Fprintln(out, name); err != nil {
			return err
		}
	}
	return nil
}

// emitChromosome implements bedextract's "CHROM FILE" form: treat chrom as
// the single reference [0, PosTypeMax) and delegate to the range finder.
// An absent chromosome yields silent empty output, not an error.
func emitChromosome(chrom, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.E(err, "bedextract: opening", path)
	}
	defer f.Close()

	ext := interval.NewExtractor(f, interval.ReaderOptions{})
	rr, err := ext.Chromosome(chrom)
	if err != nil {
		return errors.E(err, "bedextract: locating chromosome", chrom, "in", path)
	}
	defer rr.Close()
	return copyRecords(rr, out)
}

// emitOverlap implements bedextract's "QUERY TARGET" form: for every record
// of QUERY, in file order, locate TARGET's overlapping records with the
// byte-range finder and emit the QUERY record once if any overlap exists.
// TARGET is opened as a seekable plain-BED file; a Starch archive or "-"
// (standard input) is not supported as TARGET.
func emitOverlap(ctx context.Context, queryPath, targetPath string, out io.Writer) error {
	query, err := interval.Open(ctx, queryPath, interval.ReaderOptions{})
	if err != nil {
		return errors.E(err, "bedextract: opening query file", queryPath)
	}
	defer query.Close()

	tf, err := os.Open(targetPath)
	if err != nil {
		return errors.E(err, "bedextract: opening target file", targetPath)
	}
	defer tf.Close()

	rf, err := interval.NewRangeFinder(tf, interval.ReaderOptions{})
	if err != nil {
		return errors.E(err, "bedextract: indexing target file", targetPath)
	}
	pred := interval.NewBPOverlap(1)

	for {
		ref, err := query.Next()
		if err != nil {
			return err
		}
		if ref == nil {
			return nil
		}
		hit := false
		ferr := rf.Find(ref, pred, func(*interval.Record) error {
			hit = true
			return errStopEarly
		})
		if ferr != nil && ferr != errStopEarly {
			ref.Release()
			return ferr
		}
		if hit {
			if _, err := fmt.Fprintln(out, echoRecordLine(ref)); err != nil {
				ref.Release()
				return err
			}
		}
		ref.Release()
	}
}

var errStopEarly = fmt.Errorf("bedextract: first overlap found")

func copyRecords(rr interval.RecordReader, out io.Writer) error {
	for {
		rec, err := rr.Next()
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		if _, err := fmt.Fprintln(out, echoRecordLine(rec)); err != nil {
			rec.Release()
			return err
		}
		rec.Release()
	}
}

func echoRecordLine(r *interval.Record) string {
	line := r.Chrom + "\t" + itoa(r.Start) + "\t" + itoa(r.End)
	if r.ID != "" {
		line += "\t" + r.ID
	}
	if r.HasScore() {
		line += "\t" + strconv.FormatFloat(r.Score, 'g', -1, 64)
	}
	if r.Rest != "" {
		line += "\t" + r.Rest
	}
	return line
}

func itoa(p interval.PosType) string {
	return fmt.Sprintf("%d", uint64(p))
}
