package types

// OffsetSpan is a half-open byte range [Start, End), ported unchanged from
// the teacher's types.OffsetSpan.
type OffsetSpan struct {
	Start int64
	End   int64
}

// Candidate materializes a match: byte range, source file, full match
// text, and named captures (spec.md §3 "Candidate"). Immutable once
// constructed; owned by the caller after Scanner.Scan returns.
type Candidate struct {
	SourcePath string
	ByteRange  OffsetSpan
	RuleID     RuleId
	FullMatch  []byte
	Captures   map[string][]byte
}

// Resolve returns the byte slice a CheckTarget (or template variable)
// refers to within this candidate. ok is false when a named capture was
// requested but is absent from the match — per spec.md §4.C and §8
// invariant 10, that is a filter failure, not an error.
func (c *Candidate) Resolve(target CheckTarget) (value []byte, ok bool) {
	if target.Entire {
		return c.FullMatch, true
	}
	v, present := c.Captures[target.Capture]
	return v, present
}
