package types

import "time"

// NextActionKind discriminates the variants of NextAction
// (spec.md §3 "NextAction").
type NextActionKind int

const (
	// ActionAbort means the classifier explicitly gave up; surfaced as
	// RequestedAbortError.
	ActionAbort NextActionKind = iota
	// ActionRetry means try again using the next scheduled delay.
	ActionRetry
	// ActionRetryAfter means try again, honouring a server-supplied
	// minimum delay.
	ActionRetryAfter
	// ActionReturnResult means classification is final; ResultKind says
	// which ValidationResult variant to produce.
	ActionReturnResult
	// ActionUnhandled means no classifier branch matched; surfaced as
	// UnhandledResponseError.
	ActionUnhandled
)

// NextAction is the decision returned by a response classifier
// (spec.md §3, §4.F step 2e).
type NextAction struct {
	Kind NextActionKind

	// RetryAfter is read only when Kind == ActionRetryAfter.
	RetryAfter time.Duration

	// ResultKind, Category and Severity are read only when
	// Kind == ActionReturnResult.
	ResultKind ValidationKind
	Category   SecretCategory
	Severity   Severity

	// Description is surfaced in Abort/Unhandled errors for operator
	// triage (spec.md §7 "User-visible").
	Description string
}

// Abort builds an ActionAbort.
func Abort(reason string) NextAction {
	return NextAction{Kind: ActionAbort, Description: reason}
}

// Retry builds an ActionRetry.
func Retry() NextAction {
	return NextAction{Kind: ActionRetry}
}

// RetryAfterAction builds an ActionRetryAfter with the server-hinted delay.
func RetryAfterAction(d time.Duration) NextAction {
	return NextAction{Kind: ActionRetryAfter, RetryAfter: d}
}

// ReturnSecret builds an ActionReturnResult classifying the candidate as a
// confirmed secret.
func ReturnSecret(category SecretCategory, severity Severity) NextAction {
	return NextAction{Kind: ActionReturnResult, ResultKind: KindSecret, Category: category, Severity: severity}
}

// ReturnNotSecret builds an ActionReturnResult classifying the candidate as
// confirmed dead.
func ReturnNotSecret() NextAction {
	return NextAction{Kind: ActionReturnResult, ResultKind: KindNotSecret}
}

// ReturnInconclusive builds an ActionReturnResult with no firm verdict.
func ReturnInconclusive() NextAction {
	return NextAction{Kind: ActionReturnResult, ResultKind: KindInconclusive}
}

// Unhandled builds an ActionUnhandled.
func Unhandled(reason string) NextAction {
	return NextAction{Kind: ActionUnhandled, Description: reason}
}

// Result converts an ActionReturnResult NextAction into a ValidationResult.
// Panics if called on any other Kind — callers must branch on Kind first
// (see internal/validator.HTTPValidator.Validate).
func (a NextAction) Result() *ValidationResult {
	switch a.ResultKind {
	case KindSecret:
		return Secret(a.Category, a.Severity)
	case KindNotSecret:
		return NotSecret()
	default:
		return Inconclusive()
	}
}
