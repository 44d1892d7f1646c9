package types

// RuleId identifies a rule. User-supplied at build time, unique within a
// single Builder.TryBuild invocation.
type RuleId string

// PatternId identifies a pattern registered with the Pattern Compiler.
// Assigned by the compiler at registration time (see internal/matcher).
type PatternId int

// MatcherId groups patterns that share one compiled scanner. A single
// Builder currently produces exactly one MatcherId; the type exists so the
// Scanner's ownership boundary (spec.md §3 "Ownership") is explicit rather
// than implied.
type MatcherId int

// ValidatorId identifies a registered Validator. Derived from RuleId at
// build time (see internal/builder), but kept as a distinct type since
// several rules may reference the same validator.
type ValidatorId string
