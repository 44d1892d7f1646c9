package types

// CheckTarget selects which slice of a Candidate a Check is evaluated
// against: the entire match, or one named capture.
type CheckTarget struct {
	// Capture is the named capture to resolve. Empty means Entire.
	Capture string
	// Entire is true when the target is the full match text rather than a
	// named capture.
	Entire bool
}

// EntireTarget targets the candidate's full match text.
func EntireTarget() CheckTarget {
	return CheckTarget{Entire: true}
}

// CaptureTarget targets a named capture group.
func CaptureTarget(name string) CheckTarget {
	return CheckTarget{Capture: name}
}

// Check is a pure predicate over a byte slice (spec.md §4.C).
// Implementations must not retain or mutate the slice they are given.
type Check interface {
	// Evaluate reports whether value satisfies the predicate.
	Evaluate(value []byte) bool
	// String returns a human-readable description, used in error messages
	// and test failure output.
	String() string
}

// TargetedCheck binds a Check to the Candidate slice it applies to
// (spec.md §3 "TargetedCheck").
type TargetedCheck struct {
	Target    CheckTarget
	Predicate Check
}

// Rule is the normalized, build-time representation of a detection rule
// (spec.md §3). PatternId and ValidatorId are filled in by the Builder;
// Checks are already translated into TargetedCheck by the time a Rule
// reaches the Scanner.
type Rule struct {
	ID          RuleId
	PatternID   PatternId
	ValidatorID ValidatorId
	Checks      []TargetedCheck
}
