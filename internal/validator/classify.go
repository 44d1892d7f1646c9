package validator

import (
	"regexp"
	"strconv"
	"time"

	"github.com/kestrelsec/kestrel/internal/types"
)

// ResponseHandler is one ordered entry in a validator's classification list
// (spec.md §7 "response handling"), generalizing the teacher's fixed
// SuccessCodes/FailureCodes slices (pkg/validator/http.go evaluateResponse)
// into an ordered list of pattern-matched rules with an explicit default.
//
// A handler matches a response when every non-nil matcher field matches;
// nil fields are wildcards. The first handler in Handlers that matches wins.
type ResponseHandler struct {
	// StatusCodes restricts this handler to specific HTTP status codes.
	// Empty means any status code.
	StatusCodes []int
	// BodyPattern, when non-nil, must match somewhere in the response body.
	BodyPattern *regexp.Regexp
	// HeaderName/HeaderPattern, when both set, require HeaderName to be
	// present and HeaderPattern to match its value.
	HeaderName    string
	HeaderPattern *regexp.Regexp

	Action types.NextAction

	// RetryAfterHeader, when set, names a response header holding the
	// server's requested delay in seconds (RFC 7231 Retry-After, integer
	// form only — spec.md doesn't call for HTTP-date support). When
	// present and parseable, it overrides Action.RetryAfter for this
	// match so a static rule definition still reflects a dynamic,
	// per-response server hint.
	RetryAfterHeader string
}

// resolvedAction returns h.Action with RetryAfter populated from
// RetryAfterHeader when that header is present and parses as a
// non-negative integer number of seconds.
func (h ResponseHandler) resolvedAction(resp *types.ResponseSnapshot) types.NextAction {
	action := h.Action
	if h.RetryAfterHeader == "" || action.Kind != types.ActionRetryAfter {
		return action
	}
	raw := resp.Header.Get(h.RetryAfterHeader)
	if raw == "" {
		return action
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		action.RetryAfter = time.Duration(secs) * time.Second
	}
	return action
}

func (h ResponseHandler) matches(resp *types.ResponseSnapshot) bool {
	if len(h.StatusCodes) > 0 {
		found := false
		for _, c := range h.StatusCodes {
			if c == resp.StatusCode {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if h.BodyPattern != nil && !h.BodyPattern.Match(resp.Body) {
		return false
	}
	if h.HeaderPattern != nil {
		if h.HeaderName == "" || !h.HeaderPattern.MatchString(resp.Header.Get(h.HeaderName)) {
			return false
		}
	}
	return true
}

// Classify walks handlers in order and returns the first match's Action, or
// ActionUnhandled if none match (spec.md §4.F step 2e, §7 "default branch").
func Classify(handlers []ResponseHandler, resp *types.ResponseSnapshot) types.NextAction {
	for _, h := range handlers {
		if h.matches(resp) {
			return h.resolvedAction(resp)
		}
	}
	return types.Unhandled("no response handler matched")
}

// bodyContains is a small convenience used by ruleyaml to build BodyPattern
// matchers from a plain substring instead of requiring operators to write
// regex for the common case.
func bodyContains(sub string) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(sub))
}
