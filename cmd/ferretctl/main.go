// Command ferretctl is a thin driver over the ferret library for manual
// stream-ingest smoke testing: build an index from a tag-grammar stream on
// stdin or a file, then look up terms against it. It has no ambitions
// beyond that — anything resembling a server or query language belongs in
// an embedder, not here.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/corpusdb/ferret"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		build(os.Args[2:])
	case "lookup":
		lookup(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  ferretctl build -dir <path> [stream-file]   feed a tag-grammar stream into a fresh index")
	fmt.Fprintln(os.Stderr, "  ferretctl lookup -dir <path> <term>         print the posting list for a term")
}

func build(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	dir := fs.String("dir", "", "index directory to create")
	fs.Parse(args)
	if *dir == "" {
		fmt.Fprintln(os.Stderr, "ferretctl build: -dir is required")
		os.Exit(2)
	}

	var in *os.File
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			fatal("open stream file", err)
		}
		defer f.Close()
		in = f
	} else {
		in = os.Stdin
	}

	idx, err := ferret.OpenIndex(*dir, ferret.IntentBuild, ferret.DefaultIndexOptions())
	if err != nil {
		fatal("open index for build", err)
	}

	ix := ferret.NewIndexer(idx)
	if err := ix.Feed(in); err != nil {
		idx.Abort()
		fatal("feed ingest stream", err)
	}
	if err := idx.Close(); err != nil {
		fatal("close index", err)
	}

	stats := idx.Stats()
	slog.Info("ferretctl: build complete",
		slog.String("dir", *dir),
		slog.Int("documents", int(stats.DocumentCount)),
		slog.Int("unique_terms", int(stats.UniqueTermCount)),
	)
}

func lookup(args []string) {
	fs := flag.NewFlagSet("lookup", flag.ExitOnError)
	dir := fs.String("dir", "", "index directory to open")
	fs.Parse(args)
	if *dir == "" || fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "ferretctl lookup: -dir and a term are required")
		os.Exit(2)
	}
	term := fs.Arg(0)

	idx, err := ferret.OpenIndex(*dir, ferret.IntentSearch, ferret.DefaultIndexOptions())
	if err != nil {
		fatal("open index for search", err)
	}
	defer idx.Close()

	pl, err := idx.PostingListFor(term, ferret.MatchRegular)
	if err != nil {
		fatal("lookup term", err)
	}
	fmt.Printf("%s: %d occurrences across %d documents\n", term, pl.TermCount, pl.DocumentCount)
	for _, p := range pl.Postings {
		fmt.Printf("  doc=%d pos=%d weight=%.3f\n", p.DocID, p.TermPos, p.Weight)
	}
}

func fatal(action string, err error) {
	fmt.Fprintf(os.Stderr, "ferretctl: %s: %v\n", action, err)
	os.Exit(1)
}
