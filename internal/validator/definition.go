// Package validator implements the HTTP Validator (spec.md §4.F) and the
// Validator Registry (spec.md §4.G), grounded on the teacher's
// pkg/validator/http.go but generalized from fixed success/failure status
// code lists to an ordered ResponseHandler classifier, and from ad hoc
// string.ReplaceAll templating to internal/template.
package validator

import (
	"time"

	"github.com/kestrelsec/kestrel/internal/template"
	"github.com/kestrelsec/kestrel/internal/types"
)

// HeaderTemplate is one request header whose value is rendered per candidate.
type HeaderTemplate struct {
	Name  string
	Value template.Template
}

// Definition is the fully-parsed, build-time-validated configuration for one
// HTTPValidator (spec.md §7 "Validator definition"). The Builder constructs
// one of these per validator block in a rule source and hands it to
// NewHTTPValidator.
type Definition struct {
	ID      types.ValidatorId
	Method  string
	URL     template.Template
	Headers []HeaderTemplate
	Body    *template.Template // nil means no request body

	RateLimitInterval time.Duration // zero disables rate limiting
	Retry             types.RetryConfig
	TimeBudget        time.Duration // zero disables the wall-clock budget

	Handlers []ResponseHandler
}
