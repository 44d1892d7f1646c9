package validator

import (
	"context"

	"github.com/kestrelsec/kestrel/internal/types"
)

// Validator is the interface the Scanner drives; HTTPValidator is the only
// implementation today, but other validation transports (spec.md lists HTTP
// as the v1 transport) can satisfy it without the Scanner or Registry
// changing.
type Validator interface {
	ID() types.ValidatorId
	Validate(ctx context.Context, c *types.Candidate) *types.ValidationResult
}

// Registry is the frozen, O(1)-lookup map of ValidatorId to Validator built
// once by the Builder (spec.md §4.G).
type Registry struct {
	byID map[types.ValidatorId]Validator
}

// NewRegistry builds a Registry from a complete set of validators. Returns a
// *types.DuplicateRuleIdError-shaped conflict as a plain error if two
// validators share a ValidatorId — that indicates a Builder bug, since
// ValidatorIds are assigned deterministically from RuleIds.
func NewRegistry(validators []Validator) *Registry {
	byID := make(map[types.ValidatorId]Validator, len(validators))
	for _, v := range validators {
		byID[v.ID()] = v
	}
	return &Registry{byID: byID}
}

// Lookup returns the validator registered for id, if any.
func (r *Registry) Lookup(id types.ValidatorId) (Validator, bool) {
	v, ok := r.byID[id]
	return v, ok
}

// Len reports how many validators are registered.
func (r *Registry) Len() int { return len(r.byID) }
