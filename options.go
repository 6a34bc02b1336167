// Ambient configuration and logging. Mirrors the teacher's own
// conventions: a package-level slog logger overridable by embedders, and
// a plain options struct instead of global mutable build state.

package ferret

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// SetLogger overrides the package-level logger used for the "log once
// with context" points §7 calls for (index name, document ID, term, tag
// line).
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// Intent mirrors original_source/src/search/index.h's open-intent
// contract: a store is either being built (exclusive, append-only) or
// searched (read-only), never both at once.
type Intent int

const (
	IntentInvalid Intent = iota
	IntentBuild
	IntentSearch
)

// IndexOptions controls build-time and match-time policy. Passed
// explicitly into OpenIndex — never read from global state
// beyond the logger.
type IndexOptions struct {
	// ProximityFactor is the §9(a) weight multiplier, 3 by default. The
	// posting algebra takes the factor as an argument; QueryBuilder passes
	// DefaultProximityFactor and does not read this field.
	ProximityFactor float32

	// Matcher records which wildcard forms are enabled. Match always uses
	// DefaultMatcherPolicy and does not read this field.
	Matcher MatcherPolicy

	// TempDirectoryPath names scratch space for a build
	// (original_source's pucTemporaryDirectoryPath); nothing in this
	// package reads it.
	TempDirectoryPath string

	// StopListPath names a file of stop terms. When it is set, NewIndexer
	// starts with an empty stop set; the file itself is not read.
	StopListPath string

	// IndexerMemorySizeMaximum is a build memory ceiling in bytes
	// (0 = unbounded); nothing in this package reads it.
	IndexerMemorySizeMaximum int

	// TermLengthMinimum/Maximum bound indexed term length (termlen.c);
	// zero means "no bound".
	TermLengthMinimum int
	TermLengthMaximum int
}

// DefaultIndexOptions returns the core's baseline policy: proximity
// reweighting on with factor 3, every wildcard form enabled, no term
// length bounds.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		ProximityFactor: DefaultProximityFactor,
		Matcher:         DefaultMatcherPolicy(),
	}
}
