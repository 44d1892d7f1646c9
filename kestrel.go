// Package kestrel provides a declarative secrets-detection library: a
// multi-pattern regex matcher finds candidate secrets, a declarative check
// engine filters out known-placeholder matches, and an optional HTTP
// validator confirms whether a surviving candidate is a live credential.
//
// # Basic usage
//
//	b := kestrel.NewBuilder()
//	b.AddRuleLiteral("aws-key", `AKIA[0-9A-Z]{16}`)
//	scanner, err := b.TryBuild()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer scanner.Close()
//
//	candidates, err := scanner.Scan("config.env", content)
//
// # Loading rules from YAML
//
//	loader := kestrel.NewRuleLoader()
//	sources, err := loader.LoadBuiltinRuleSources()
//	b := kestrel.NewBuilder()
//	for _, src := range sources {
//		b.AddRuleSource(src)
//	}
//	scanner, err := b.TryBuild()
//
// Re-exported here so callers can depend on just this top-level package
// without reaching into internal/*, mirroring the teacher's own titus.go
// facade (types.Match/Rule/ValidationResult re-exported from pkg/types).
package kestrel

import (
	"github.com/kestrelsec/kestrel/internal/builder"
	"github.com/kestrelsec/kestrel/internal/ruleyaml"
	"github.com/kestrelsec/kestrel/internal/scanner"
	"github.com/kestrelsec/kestrel/internal/types"
)

// Re-exported core types, so callers building rules programmatically don't
// need to import internal/types directly.
type (
	// Candidate is a single matched-and-checked occurrence of a rule.
	Candidate = types.Candidate
	// ValidationResult is the outcome of running a Candidate through its
	// rule's registered validator.
	ValidationResult = types.ValidationResult
	// RuleId identifies one detection rule.
	RuleId = types.RuleId
	// ValidatorId identifies one HTTP validator.
	ValidatorId = types.ValidatorId
	// SecretCategory is a user-defined classification for confirmed secrets.
	SecretCategory = types.SecretCategory
	// Severity is a coarse confidence/impact rating for confirmed secrets.
	Severity = types.Severity
	// RetryConfig configures an HTTP validator's retry iterator.
	RetryConfig = types.RetryConfig
)

// Re-exported ValidationKind constants.
const (
	KindSecret          = types.KindSecret
	KindNotSecret       = types.KindNotSecret
	KindInconclusive    = types.KindInconclusive
	KindValidationError = types.KindValidationError
)

// Re-exported Severity constants.
const (
	SeverityUnknown  = types.SeverityUnknown
	SeverityLow      = types.SeverityLow
	SeverityMedium   = types.SeverityMedium
	SeverityHigh     = types.SeverityHigh
	SeverityCritical = types.SeverityCritical
)

// Scanner re-exports internal/scanner.Scanner — the compiled, immutable
// result of Builder.TryBuild.
type Scanner = scanner.Scanner

// Builder re-exports internal/builder.Builder.
type Builder = builder.Builder

// RuleSource re-exports internal/builder.RuleSource, the normalized form a
// rule-file adapter (or caller) produces for the Builder to consume.
type RuleSource = builder.RuleSource

// NewBuilder returns an empty Builder with the default retry configuration
// (spec.md §9).
func NewBuilder() *Builder {
	return builder.New()
}

// RuleLoader re-exports internal/ruleyaml.Loader.
type RuleLoader = ruleyaml.Loader

// NewRuleLoader returns a Loader backed by kestrel's embedded built-in
// rule set.
func NewRuleLoader() *RuleLoader {
	return ruleyaml.NewLoader()
}

// DefaultRetryConfig returns the retry configuration a Builder uses for
// any validator that doesn't specify its own.
func DefaultRetryConfig() RetryConfig {
	return types.DefaultRetryConfig()
}
