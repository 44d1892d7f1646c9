// Package check implements the declarative predicate engine that filters
// candidates after the Pattern Compiler produces them (spec.md §4.C).
package check

import (
	"bytes"
	"strings"

	"github.com/kestrelsec/kestrel/internal/types"
)

// anyOf is true iff the input equals one of its configured values.
type anyOf struct {
	values [][]byte
}

// AnyOf builds a Check matching spec.md's *any-of(values)* predicate.
func AnyOf(values ...string) types.Check {
	return &anyOf{values: toByteValues(values)}
}

func (c *anyOf) Evaluate(value []byte) bool {
	for _, v := range c.values {
		if bytes.Equal(value, v) {
			return true
		}
	}
	return false
}

func (c *anyOf) String() string {
	return "any-of(" + strings.Join(fromByteValues(c.values), ", ") + ")"
}

// noneOf is true iff the input equals none of its configured values.
type noneOf struct {
	values [][]byte
}

// NoneOf builds a Check matching spec.md's *none-of(values)* predicate.
func NoneOf(values ...string) types.Check {
	return &noneOf{values: toByteValues(values)}
}

func (c *noneOf) Evaluate(value []byte) bool {
	for _, v := range c.values {
		if bytes.Equal(value, v) {
			return false
		}
	}
	return true
}

func (c *noneOf) String() string {
	return "none-of(" + strings.Join(fromByteValues(c.values), ", ") + ")"
}

func toByteValues(values []string) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = []byte(v)
	}
	return out
}

func fromByteValues(values [][]byte) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// Evaluate resolves a TargetedCheck's target slice against the candidate
// and applies its predicate. A missing named capture makes the check fail
// (candidate discarded), never an error — spec.md §4.C: "Missing named
// capture → check fails (candidate discarded), not an error."
func Evaluate(c *types.Candidate, tc types.TargetedCheck) bool {
	value, ok := c.Resolve(tc.Target)
	if !ok {
		return false
	}
	return tc.Predicate.Evaluate(value)
}

// All reports whether every TargetedCheck passes for the candidate
// (spec.md §4.C: "A rule passes the check stage iff all its
// TargetedChecks succeed" — AND composition, by design).
func All(c *types.Candidate, checks []types.TargetedCheck) bool {
	for _, tc := range checks {
		if !Evaluate(c, tc) {
			return false
		}
	}
	return true
}
