package validator

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kestrelsec/kestrel/internal/types"
)

func TestClassify_FirstMatchWins(t *testing.T) {
	handlers := []ResponseHandler{
		{StatusCodes: []int{200}, BodyPattern: bodyContains("invalid"), Action: types.ReturnNotSecret()},
		{StatusCodes: []int{200}, Action: types.ReturnSecret("test", types.SeverityHigh)},
	}
	resp := &types.ResponseSnapshot{StatusCode: 200, Body: []byte(`{"ok":true}`)}
	action := Classify(handlers, resp)
	assert.Equal(t, types.ActionReturnResult, action.Kind)
	assert.Equal(t, types.KindSecret, action.ResultKind)
}

func TestClassify_DefaultIsUnhandled(t *testing.T) {
	resp := &types.ResponseSnapshot{StatusCode: 500}
	action := Classify(nil, resp)
	assert.Equal(t, types.ActionUnhandled, action.Kind)
}

func TestClassify_HeaderPatternMatcher(t *testing.T) {
	handlers := []ResponseHandler{
		{HeaderName: "X-RateLimit-Remaining", HeaderPattern: regexp.MustCompile(`^0$`), Action: types.RetryAfterAction(time.Second)},
	}
	resp := &types.ResponseSnapshot{StatusCode: 200, Header: http.Header{"X-Ratelimit-Remaining": []string{"0"}}}
	action := Classify(handlers, resp)
	assert.Equal(t, types.ActionRetryAfter, action.Kind)
}

func TestResolvedAction_RetryAfterHeaderOverridesStaticHint(t *testing.T) {
	h := ResponseHandler{
		StatusCodes:      []int{429},
		Action:           types.RetryAfterAction(time.Second),
		RetryAfterHeader: "Retry-After",
	}
	resp := &types.ResponseSnapshot{StatusCode: 429, Header: http.Header{"Retry-After": []string{"5"}}}
	action := h.resolvedAction(resp)
	assert.Equal(t, 5*time.Second, action.RetryAfter)
}

func TestResolvedAction_MissingHeaderFallsBackToStaticHint(t *testing.T) {
	h := ResponseHandler{
		StatusCodes:      []int{429},
		Action:           types.RetryAfterAction(time.Second),
		RetryAfterHeader: "Retry-After",
	}
	resp := &types.ResponseSnapshot{StatusCode: 429, Header: http.Header{}}
	action := h.resolvedAction(resp)
	assert.Equal(t, time.Second, action.RetryAfter)
}
