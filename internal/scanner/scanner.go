// Package scanner implements the Scanner orchestrator (spec.md §4.H): it
// drives the compiled matcher over a blob of content, applies each
// matched rule's declarative checks, and (on request) dispatches a
// confirmed candidate to its registered validator. Grounded on the
// teacher's pkg/scanner.Core and titus.go's top-level Scanner, generalized
// from titus's Match/Rule vocabulary to this spec's Candidate/Rule
// vocabulary and widened to include the check-engine and validator
// dispatch steps the teacher's Core doesn't perform itself.
package scanner

import (
	"context"

	"github.com/kestrelsec/kestrel/internal/check"
	"github.com/kestrelsec/kestrel/internal/matcher"
	"github.com/kestrelsec/kestrel/internal/prefilter"
	"github.com/kestrelsec/kestrel/internal/types"
	"github.com/kestrelsec/kestrel/internal/validator"
)

// Scanner is the immutable, built artifact produced by builder.Builder.TryBuild
// (spec.md §5 "the compiled matcher and validator registry are read-only
// after Build"). Safe for concurrent use.
type Scanner struct {
	backend     matcher.Backend
	prefilter   *prefilter.Prefilter
	rules       map[types.RuleId]types.Rule
	patternRule map[types.PatternId]types.RuleId
	registry    *validator.Registry
}

// New assembles a Scanner from its already-compiled parts; only
// internal/builder calls this. patternRule maps each compiled PatternId
// back to the RuleId the Builder assigned it.
func New(backend matcher.Backend, pf *prefilter.Prefilter, rules map[types.RuleId]types.Rule, patternRule map[types.PatternId]types.RuleId, registry *validator.Registry) *Scanner {
	return &Scanner{backend: backend, prefilter: pf, rules: rules, patternRule: patternRule, registry: registry}
}

// Scan runs every compiled pattern against content, applies each matching
// rule's checks, and returns the surviving Candidates (spec.md §4.H steps
// 1-3). sourcePath is carried onto each Candidate for caller-side
// reporting; it plays no role in matching.
func (s *Scanner) Scan(sourcePath string, content []byte) ([]*types.Candidate, error) {
	var allowed map[types.RuleId]bool
	if s.prefilter != nil {
		ids := s.prefilter.Candidates(content)
		allowed = make(map[types.RuleId]bool, len(ids))
		for _, id := range ids {
			allowed[id] = true
		}
	}

	raw, err := s.backend.Scan(content)
	if err != nil {
		return nil, err
	}

	var out []*types.Candidate
	for _, rm := range raw {
		rule, ok := s.ruleForPattern(rm)
		if !ok {
			continue
		}
		if allowed != nil && !allowed[rule.ID] {
			continue
		}

		c := &types.Candidate{
			SourcePath: sourcePath,
			ByteRange:  types.OffsetSpan{Start: rm.Start, End: rm.End},
			RuleID:     rule.ID,
			FullMatch:  rm.FullMatch,
			Captures:   rm.Captures,
		}

		if !check.All(c, rule.Checks) {
			continue
		}

		out = append(out, c)
	}

	return out, nil
}

// ruleForPattern resolves a raw match back to its owning Rule. PatternId
// equals the rule's position, assigned once by the Builder, so this is a
// direct lookup rather than a scan.
func (s *Scanner) ruleForPattern(rm matcher.RawMatch) (types.Rule, bool) {
	ruleID, ok := s.patternRule[rm.PatternID]
	if !ok {
		return types.Rule{}, false
	}
	rule, ok := s.rules[ruleID]
	return rule, ok
}

// ValidateCandidate dispatches c to its rule's registered validator, if
// any (spec.md §4.H step 4). Returns (nil, false) when the rule has no
// validator configured — a Candidate without a ValidatorId is final as-is.
func (s *Scanner) ValidateCandidate(ctx context.Context, c *types.Candidate) (*types.ValidationResult, bool) {
	rule, ok := s.rules[c.RuleID]
	if !ok || rule.ValidatorID == "" {
		return nil, false
	}
	v, ok := s.registry.Lookup(rule.ValidatorID)
	if !ok {
		return nil, false
	}
	return v.Validate(ctx, c), true
}

// Close releases the compiled matcher's resources (e.g. Hyperscan
// scratch space).
func (s *Scanner) Close() error {
	return s.backend.Close()
}
