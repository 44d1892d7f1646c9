//go:build !portable

package matcher

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/flier/gohs/hyperscan"
)

// hyperscanBackend implements Backend using Hyperscan, in the same
// two-stage shape as the teacher's HyperscanMatcher
// (pkg/matcher/hyperscan.go): Hyperscan finds (pattern, end) pairs fast
// without capture support, then stage two re-runs the single owning Go
// regexp against the matched region to pin down the true start offset and
// extract named captures.
type hyperscanBackend struct {
	db                hyperscan.BlockDatabase
	scratch           *hyperscan.Scratch
	patterns          []Pattern
	processedPatterns []string
	compiled          []*regexp.Regexp
}

// New compiles patterns into a Hyperscan-backed Backend.
func New(patterns []Pattern) (Backend, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("matcher: no patterns provided")
	}

	hsPatterns := make([]*hyperscan.Pattern, len(patterns))
	processed := make([]string, len(patterns))
	compiled := make([]*regexp.Regexp, len(patterns))

	for i, p := range patterns {
		stripped := stripExtendedMode(p.Source)
		processed[i] = stripped

		hp := hyperscan.NewPattern(stripped, hyperscan.DotAll|hyperscan.MultiLine)
		hp.Id = i
		hsPatterns[i] = hp

		re, err := regexp.Compile("(?s)" + stripped)
		if err != nil {
			return nil, fmt.Errorf("matcher: compile stage-two regexp for pattern %d: %w", p.ID, err)
		}
		compiled[i] = re
	}

	db, err := hyperscan.NewBlockDatabase(hsPatterns...)
	if err != nil {
		return nil, fmt.Errorf("matcher: hyperscan compile failed: %w", err)
	}

	scratch, err := hyperscan.NewScratch(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("matcher: hyperscan scratch allocation failed: %w", err)
	}

	return &hyperscanBackend{
		db:                db,
		scratch:           scratch,
		patterns:          patterns,
		processedPatterns: processed,
		compiled:          compiled,
	}, nil
}

type rawHit struct {
	idx   int
	start int
	end   int
}

// Scan runs the two-stage pipeline described in the package doc comment.
func (b *hyperscanBackend) Scan(content []byte) ([]RawMatch, error) {
	// Hyperscan without SomLeftMost only reports accurate end offsets; key
	// on (pattern, end) and keep the longest candidate start, matching the
	// teacher's dedup-by-longest-match strategy.
	best := make(map[[2]int]rawHit)

	onMatch := func(id uint, from, to uint64, flags uint, context interface{}) error {
		if int(id) >= len(b.patterns) {
			return fmt.Errorf("matcher: invalid pattern id %d from hyperscan", id)
		}
		key := [2]int{int(id), int(to)}
		hit := rawHit{idx: int(id), start: int(from), end: int(to)}
		if existing, ok := best[key]; !ok || hit.start < existing.start {
			best[key] = hit
		}
		return nil
	}

	if err := b.db.Scan(content, b.scratch, onMatch, nil); err != nil {
		return nil, fmt.Errorf("matcher: hyperscan scan failed: %w", err)
	}

	// Go map iteration order is randomized; sort hits by a stable key so
	// Scan returns the same candidate order for the same input every time.
	hits := make([]rawHit, 0, len(best))
	for _, hit := range best {
		hits = append(hits, hit)
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].start != hits[j].start {
			return hits[i].start < hits[j].start
		}
		if hits[i].end != hits[j].end {
			return hits[i].end < hits[j].end
		}
		return hits[i].idx < hits[j].idx
	})

	var out []RawMatch
	for _, hit := range hits {
		re := b.compiled[hit.idx]
		start, end, captures, err := extractCapturesAndBounds(content, re, hit.start, hit.end)
		if err != nil {
			continue
		}
		out = append(out, RawMatch{
			PatternID: b.patterns[hit.idx].ID,
			Start:     int64(start),
			End:       int64(end),
			FullMatch: content[start:end],
			Captures:  captures,
		})
	}
	return out, nil
}

// extractCapturesAndBounds re-runs re against content to recover the true
// match bounds (Hyperscan without SomLeftMost always reports start=0) and
// the named captures, ported from the teacher's
// extractCapturesAndBounds/findMatchNearEnd pairing.
func extractCapturesAndBounds(content []byte, re *regexp.Regexp, start, end int) (int, int, map[string][]byte, error) {
	var region []byte
	var offset int
	if start == 0 {
		// Search a window ending at `end`; Hyperscan's reported end is exact.
		region = content[:end]
		offset = 0
	} else {
		region = content[start:end]
		offset = start
	}

	loc := re.FindSubmatchIndex(region)
	if loc == nil {
		return 0, 0, nil, fmt.Errorf("matcher: stage-two regexp did not match its own hyperscan hit")
	}

	names := re.SubexpNames()
	captures := make(map[string][]byte)
	for i := 1; i*2 < len(loc); i++ {
		if names[i] == "" {
			continue
		}
		s, e := loc[2*i], loc[2*i+1]
		if s < 0 || e < 0 {
			continue
		}
		captures[names[i]] = region[s:e]
	}

	return offset + loc[0], offset + loc[1], captures, nil
}

// Close releases the Hyperscan scratch space and compiled database.
func (b *hyperscanBackend) Close() error {
	if b.scratch != nil {
		if err := b.scratch.Free(); err != nil {
			return fmt.Errorf("matcher: free scratch: %w", err)
		}
		b.scratch = nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return fmt.Errorf("matcher: close database: %w", err)
		}
		b.db = nil
	}
	return nil
}
