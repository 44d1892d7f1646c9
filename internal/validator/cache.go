package validator

import (
	"crypto/sha256"
	"sync"

	"github.com/kestrelsec/kestrel/internal/types"
)

// AttemptedCache remembers which (validator, full match) pairs have already
// been sent to a live endpoint, so a secret appearing in several files (or
// several times in one file) is only validated once per process lifetime
// (spec.md §4.F step 1, §8 invariant 8). Resolved Open Question: entries are
// never invalidated or evicted — see SPEC_FULL.md and DESIGN.md.
type AttemptedCache struct {
	mu   sync.Mutex
	seen map[[32]byte]*types.ValidationResult
}

// NewAttemptedCache builds an empty cache.
func NewAttemptedCache() *AttemptedCache {
	return &AttemptedCache{seen: make(map[[32]byte]*types.ValidationResult)}
}

func fingerprint(validatorID types.ValidatorId, fullMatch []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(validatorID))
	h.Write([]byte{0})
	h.Write(fullMatch)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Lookup returns a previously cached result for this (validator, match)
// pair, if any.
func (c *AttemptedCache) Lookup(validatorID types.ValidatorId, fullMatch []byte) (*types.ValidationResult, bool) {
	key := fingerprint(validatorID, fullMatch)
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.seen[key]
	return r, ok
}

// Store records the result of a completed validation attempt.
func (c *AttemptedCache) Store(validatorID types.ValidatorId, fullMatch []byte, result *types.ValidationResult) {
	key := fingerprint(validatorID, fullMatch)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[key] = result
}
