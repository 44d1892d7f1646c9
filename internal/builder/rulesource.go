// Package builder implements the Builder (spec.md §4.I): it takes
// normalized rule sources (produced by internal/ruleyaml or constructed
// programmatically), assigns PatternId/ValidatorId, compiles the matcher
// backend, builds the validator registry, and hands back an immutable
// Scanner. Grounded on the teacher's titus.go Option/Scanner-building
// functions and its pkg/rule.Loader + pkg/scanner.Core combination.
package builder

import (
	"net/http"
	"time"

	"github.com/kestrelsec/kestrel/internal/types"
)

// CheckSource is the unparsed form of a types.TargetedCheck: Target is
// "entire" or "captures.<name>"; Kind is "any_of" or "none_of".
type CheckSource struct {
	Target string
	Kind   string
	Values []string
}

// HandlerActionSource is the unparsed form of a types.NextAction.
// Kind is one of "secret", "not_secret", "inconclusive", "abort",
// "retry", "retry_after".
type HandlerActionSource struct {
	Kind        string
	Category    string
	Severity    string // "low" | "medium" | "high" | "critical"
	RetryAfter  time.Duration
	Description string
}

// HandlerSource is the unparsed form of a validator.ResponseHandler.
type HandlerSource struct {
	StatusCodes      []int
	BodyContains     string // plain substring, mutually exclusive with BodyPattern
	BodyPattern      string // raw regexp, mutually exclusive with BodyContains
	HeaderName       string
	HeaderPattern    string
	RetryAfterHeader string
	Action           HandlerActionSource
}

// HeaderSource is one request header template.
type HeaderSource struct {
	Name  string
	Value string
}

// ValidatorSource is the unparsed form of validator.Definition.
type ValidatorSource struct {
	Method            string
	URL               string
	Headers           []HeaderSource
	Body              *string
	RateLimitInterval time.Duration
	Retry             *types.RetryConfig // nil means "use the Builder default"
	TimeBudget        time.Duration
	Handlers          []HandlerSource
}

// RuleSource is the normalized, adapter-agnostic form of one rule
// (spec.md §6's "normalized RuleSource the Builder consumes").
// internal/ruleyaml produces these from YAML; callers can also construct
// them directly via Builder.AddRuleSource for programmatic use.
type RuleSource struct {
	ID        types.RuleId
	Pattern   string
	Keywords  []string
	Checks    []CheckSource
	Validator *ValidatorSource
}

func defaultMethod(m string) string {
	if m == "" {
		return http.MethodGet
	}
	return m
}
