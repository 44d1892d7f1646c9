//go:build portable

package matcher

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// regexp2Backend implements Backend using dlclark/regexp2 directly,
// single-pass (no Hyperscan stage), for platforms where the Hyperscan cgo
// binding is unavailable. Ported from the teacher's wasm-tagged
// pkg/matcher/regexp.go RegexpMatcher.
type regexp2Backend struct {
	patterns []Pattern
	compiled []*regexp2.Regexp
}

const matchTimeout = 5 * time.Second

// New compiles patterns into a regexp2-backed Backend.
func New(patterns []Pattern) (Backend, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("matcher: no patterns provided")
	}

	compiled := make([]*regexp2.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp2.Compile(p.Source, regexp2.RE2|regexp2.Multiline)
		if err != nil {
			re, err = regexp2.Compile(p.Source, regexp2.None)
			if err != nil {
				return nil, fmt.Errorf("matcher: compile pattern %d: %w", p.ID, err)
			}
		}
		re.MatchTimeout = matchTimeout
		compiled[i] = re
	}

	return &regexp2Backend{patterns: patterns, compiled: compiled}, nil
}

// Scan finds every non-overlapping match of every pattern against content.
func (b *regexp2Backend) Scan(content []byte) ([]RawMatch, error) {
	contentStr := string(content)
	var out []RawMatch

	for i, re := range b.compiled {
		m, err := re.FindStringMatch(contentStr)
		if err != nil {
			return nil, fmt.Errorf("matcher: regexp2 match error for pattern %d: %w", b.patterns[i].ID, err)
		}
		for m != nil {
			start := m.Index
			end := start + m.Length

			captures := make(map[string][]byte)
			for _, name := range m.Groups() {
				if name.Name == "" || isNumericGroupName(name.Name) {
					continue
				}
				if len(name.Captures) > 0 {
					captures[name.Name] = []byte(name.Captures[0].String())
				}
			}

			out = append(out, RawMatch{
				PatternID: b.patterns[i].ID,
				Start:     int64(start),
				End:       int64(end),
				FullMatch: []byte(contentStr[start:end]),
				Captures:  captures,
			})

			m, err = re.FindNextMatch(m)
			if err != nil {
				return nil, fmt.Errorf("matcher: regexp2 match error for pattern %d: %w", b.patterns[i].ID, err)
			}
		}
	}

	return out, nil
}

// isNumericGroupName reports whether a regexp2 group name is actually a
// stringified numbered group ("0", "1", ...) rather than a user-supplied
// name — regexp2's Groups() returns both.
func isNumericGroupName(name string) bool {
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Close is a no-op; regexp2 holds no external resources.
func (b *regexp2Backend) Close() error { return nil }
