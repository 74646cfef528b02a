// bedmap maps one sorted BED file against another (or against itself),
// computing one or more per-reference aggregates over the set of map
// elements overlapping each reference under a configurable predicate.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/bedops/internal/mapdriver"
)

const usage = `Usage:
  bedmap --help
  bedmap --version
  bedmap <overlap-selector> <operation>... [process-flags] FILE1 [FILE2]

FILE2 defaults to FILE1 (map a file onto itself).
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
		fmt.Fprintln(os.Stdout, "bedmap (bedops core) 1.0")
		return
	}

	opts, err := mapdriver.ParseArgs(args)
	if err != nil {
		log.Error.Printf("bedmap: %v", err)
		os.Exit(1)
	}

	ctx := vcontext.Background()
	w := bufio.NewWriter(os.Stdout)
	if err := mapdriver.Run(ctx, opts, w); err != nil {
		w.Flush()
		log.Error.Printf("bedmap: %v", err)
		os.Exit(1)
	}
	if err := w.Flush(); err != nil {
		log.Error.Printf("bedmap: writing output: %v", err)
		os.Exit(1)
	}
}
