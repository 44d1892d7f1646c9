// Package matcher implements the Pattern Compiler and multi-pattern scan
// stage of spec.md §4.A: compiling every rule's pattern into one matcher
// and producing (PatternId, start, end, captures) triples per call to
// Scan. Grounded on the teacher's pkg/matcher package, generalized from
// titus's Rule/Match domain types to the spec's PatternId/Candidate
// vocabulary.
//
// Two backends exist behind the same Backend interface, selected by build
// tag exactly as the teacher does it (pkg/matcher/hyperscan.go vs
// pkg/matcher/regexp.go, gated on GOOS=wasm): hyperscan.go (tag
// !portable) wraps github.com/flier/gohs for production use, and
// regexp_portable.go (tag portable) wraps github.com/dlclark/regexp2 for
// platforms where the Hyperscan cgo binding can't be built.
package matcher

import "github.com/kestrelsec/kestrel/internal/types"

// Pattern is one compiled pattern's source, keyed by the PatternId the
// Builder assigned it (spec.md §4.I).
type Pattern struct {
	ID      types.PatternId
	Source  string
	Entire  bool     // true renders the whole match as the "entire" check target
	Captures []string // named capture groups this pattern's owning rule references
}

// RawMatch is one occurrence of a pattern within scanned content, before
// it's wrapped into a types.Candidate by the Scanner (spec.md §4.A, §4.H).
type RawMatch struct {
	PatternID types.PatternId
	Start     int64
	End       int64
	FullMatch []byte
	Captures  map[string][]byte
}

// Backend is the multi-pattern scan engine. Implementations must be safe
// for concurrent calls to Scan after Compile returns (spec.md §5 "the
// compiled matcher is immutable after Build").
type Backend interface {
	Scan(content []byte) ([]RawMatch, error)
	Close() error
}

// Compiler builds a Backend from a set of patterns. Each build selects the
// active backend implementation (New in hyperscan.go or regexp_portable.go
// depending on build tag).
type Compiler func(patterns []Pattern) (Backend, error)
