package builder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kestrelsec/kestrel/internal/types"
)

func TestBuilder_LiteralRuleMatchesAndChecksFilter(t *testing.T) {
	b := New()
	b.AddRuleLiteral("aws-key", `AKIA(?P<id>[A-Z0-9]{16})`,
		CheckSource{Target: "captures.id", Kind: "none_of", Values: []string{"EXAMPLEEXAMPLE1"}},
	)

	s, err := b.TryBuild()
	require.NoError(t, err)
	defer s.Close()

	candidates, err := s.Scan("file.go", []byte("key=AKIAABCDEFGHIJKLMN"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, types.RuleId("aws-key"), candidates[0].RuleID)
}

func TestBuilder_CheckRejectsPlaceholder(t *testing.T) {
	b := New()
	b.AddRuleLiteral("aws-key", `AKIA(?P<id>[A-Z0-9]{16})`,
		CheckSource{Target: "captures.id", Kind: "none_of", Values: []string{"EXAMPLEEXAMPLE1"}},
	)
	s, err := b.TryBuild()
	require.NoError(t, err)
	defer s.Close()

	candidates, err := s.Scan("file.go", []byte("key=AKIAEXAMPLEEXAMPLE1"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestBuilder_DuplicateRuleIdIsRejected(t *testing.T) {
	b := New()
	b.AddRuleLiteral("dup", `foo`)
	b.AddRuleLiteral("dup", `bar`)

	_, err := b.TryBuild()
	var dupErr *types.DuplicateRuleIdError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, types.RuleId("dup"), dupErr.RuleID)
}

func TestBuilder_EmptyBuilderFailsToBuild(t *testing.T) {
	_, err := New().TryBuild()
	require.Error(t, err)
}

func TestBuilder_UnknownTemplateVariableIsRuleCompilationError(t *testing.T) {
	b := New()
	b.AddRuleSource(RuleSource{
		ID:      "bad-validator",
		Pattern: `sk-[a-z0-9]{8}`,
		Validator: &ValidatorSource{
			Method: http.MethodGet,
			URL:    "https://example.invalid/${{ nonsense }}",
			Handlers: []HandlerSource{
				{StatusCodes: []int{200}, Action: HandlerActionSource{Kind: "secret"}},
			},
		},
	})

	_, err := b.TryBuild()
	var rce *types.RuleCompilationError
	require.ErrorAs(t, err, &rce)
}

func TestBuilder_CheckReferencingUnproducedCaptureIsRejected(t *testing.T) {
	b := New()
	b.AddRuleLiteral("aws-key", `AKIA(?P<id>[A-Z0-9]{16})`,
		CheckSource{Target: "captures.idd", Kind: "none_of", Values: []string{"x"}},
	)

	_, err := b.TryBuild()
	var rce *types.RuleCompilationError
	require.ErrorAs(t, err, &rce)
	assert.Equal(t, types.RuleId("aws-key"), rce.RuleID)
}

func TestBuilder_TemplateReferencingUnproducedCaptureIsRejected(t *testing.T) {
	b := New()
	b.AddRuleSource(RuleSource{
		ID:      "typo-capture",
		Pattern: `sk-(?P<secret>[a-z0-9]{8})`,
		Validator: &ValidatorSource{
			Method: http.MethodGet,
			URL:    "https://example.invalid/validate?key=${{ candidate.captures.secrett }}",
			Handlers: []HandlerSource{
				{StatusCodes: []int{200}, Action: HandlerActionSource{Kind: "secret"}},
			},
		},
	})

	_, err := b.TryBuild()
	var rce *types.RuleCompilationError
	require.ErrorAs(t, err, &rce)
	assert.Equal(t, types.RuleId("typo-capture"), rce.RuleID)
}

func TestBuilder_WithValidatorEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b := New().HTTPClient(srv.Client())
	b.AddRuleSource(RuleSource{
		ID:      "live-key",
		Pattern: `sk-(?P<secret>[a-z0-9]{8})`,
		Validator: &ValidatorSource{
			Method: http.MethodGet,
			URL:    srv.URL + "/validate?key=${{ candidate.captures.secret }}",
			Retry:  &types.RetryConfig{MaxAttempts: 1, Policy: types.FixedPolicy{}},
			Handlers: []HandlerSource{
				{StatusCodes: []int{200}, Action: HandlerActionSource{Kind: "secret", Category: "test", Severity: "high"}},
				{StatusCodes: []int{401}, Action: HandlerActionSource{Kind: "not_secret"}},
			},
		},
	})

	s, err := b.TryBuild()
	require.NoError(t, err)
	defer s.Close()

	candidates, err := s.Scan("f.go", []byte("token sk-abc12345 here"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	result, validated := s.ValidateCandidate(context.Background(), candidates[0])
	require.True(t, validated)
	assert.Equal(t, types.KindSecret, result.Kind)
}
