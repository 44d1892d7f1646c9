package builder

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/kestrelsec/kestrel/internal/check"
	"github.com/kestrelsec/kestrel/internal/matcher"
	"github.com/kestrelsec/kestrel/internal/prefilter"
	"github.com/kestrelsec/kestrel/internal/scanner"
	"github.com/kestrelsec/kestrel/internal/template"
	"github.com/kestrelsec/kestrel/internal/types"
	"github.com/kestrelsec/kestrel/internal/validator"
)

var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true,
	http.MethodPatch: true, http.MethodDelete: true, http.MethodHead: true,
}

// Builder accumulates rule sources and produces an immutable Scanner
// (spec.md §4.I). The zero value is ready to use.
type Builder struct {
	sources        []RuleSource
	seen           map[types.RuleId]bool
	defaultRetry   types.RetryConfig
	httpClient     *http.Client
	validatorCache *validator.AttemptedCache
}

// New returns an empty Builder with spec.md's default retry configuration.
func New() *Builder {
	return &Builder{
		seen:         make(map[types.RuleId]bool),
		defaultRetry: types.DefaultRetryConfig(),
	}
}

// HTTPRetry overrides the default RetryConfig applied to validators whose
// RuleSource doesn't specify its own (spec.md §4.I "Builder.HTTPRetry(cfg)").
func (b *Builder) HTTPRetry(cfg types.RetryConfig) *Builder {
	b.defaultRetry = cfg
	return b
}

// HTTPClient overrides the *http.Client every HTTPValidator uses; defaults
// to http.DefaultClient when never called.
func (b *Builder) HTTPClient(c *http.Client) *Builder {
	b.httpClient = c
	return b
}

// AttemptedCache installs a pre-existing AttemptedCache (e.g. shared across
// multiple Scanners); defaults to a fresh one.
func (b *Builder) AttemptedCache(c *validator.AttemptedCache) *Builder {
	b.validatorCache = c
	return b
}

// AddRuleSource registers a fully-specified rule (spec.md §4.I
// "Builder.AddRuleSource"). Validation and id assignment happen later, in
// TryBuild.
func (b *Builder) AddRuleSource(src RuleSource) *Builder {
	b.sources = append(b.sources, src)
	return b
}

// AddRuleLiteral is a convenience for registering a pattern-only rule with
// no validator (spec.md §4.I "Builder.AddRuleLiteral").
func (b *Builder) AddRuleLiteral(id types.RuleId, pattern string, checks ...CheckSource) *Builder {
	return b.AddRuleSource(RuleSource{ID: id, Pattern: pattern, Checks: checks})
}

// TryBuild validates and compiles every registered rule source into an
// immutable *scanner.Scanner (spec.md §4.I "Builder.TryBuild()").
func (b *Builder) TryBuild() (*scanner.Scanner, error) {
	rules := make(map[types.RuleId]types.Rule, len(b.sources))
	patterns := make([]matcher.Pattern, 0, len(b.sources))
	patternRule := make(map[types.PatternId]types.RuleId, len(b.sources))
	keywordRules := make([]prefilter.RuleKeywords, 0, len(b.sources))
	var validators []validator.Validator

	for i, src := range b.sources {
		if src.ID == "" {
			return nil, &types.InvalidSchemaError{Message: "rule is missing an id"}
		}
		if b.seen[src.ID] {
			return nil, &types.DuplicateRuleIdError{RuleID: src.ID}
		}
		b.seen[src.ID] = true

		captureNames, err := matcher.NamedGroups(src.Pattern)
		if err != nil {
			return nil, &types.RuleCompilationError{RuleID: src.ID, Message: "parsing pattern for capture names: " + err.Error()}
		}
		captureSet := make(map[string]bool, len(captureNames))
		for _, n := range captureNames {
			captureSet[n] = true
		}

		patternID := types.PatternId(i)
		patternRule[patternID] = src.ID
		patterns = append(patterns, matcher.Pattern{ID: patternID, Source: src.Pattern, Captures: captureNames})
		keywordRules = append(keywordRules, prefilter.RuleKeywords{RuleID: src.ID, Keywords: src.Keywords})

		checks, err := buildChecks(src.ID, src.Checks, captureSet)
		if err != nil {
			return nil, err
		}

		rule := types.Rule{ID: src.ID, PatternID: patternID, Checks: checks}

		if src.Validator != nil {
			validatorID := types.ValidatorId("validator:" + string(src.ID))
			rule.ValidatorID = validatorID

			def, err := b.buildDefinition(validatorID, src.Validator, captureSet)
			if err != nil {
				return nil, err
			}
			cache := b.validatorCache
			if cache == nil {
				cache = validator.NewAttemptedCache()
				b.validatorCache = cache
			}
			validators = append(validators, validator.New(def, b.httpClient, cache, nil))
		}

		rules[src.ID] = rule
	}

	if len(patterns) == 0 {
		return nil, &types.InvalidSchemaError{Message: "no rules registered"}
	}

	backend, err := matcher.New(patterns)
	if err != nil {
		return nil, err
	}

	registry := validator.NewRegistry(validators)
	pf := prefilter.New(keywordRules)

	return scanner.New(backend, pf, rules, patternRule, registry), nil
}

func buildChecks(ruleID types.RuleId, sources []CheckSource, captureSet map[string]bool) ([]types.TargetedCheck, error) {
	out := make([]types.TargetedCheck, 0, len(sources))
	for _, cs := range sources {
		target, err := parseTarget(cs.Target)
		if err != nil {
			return nil, &types.RuleCompilationError{RuleID: ruleID, Message: err.Error()}
		}
		if !target.Entire && !captureSet[target.Capture] {
			return nil, &types.RuleCompilationError{RuleID: ruleID, Message: fmt.Sprintf("check targets capture %q, which rule %q's pattern never produces", target.Capture, ruleID)}
		}

		var predicate types.Check
		switch cs.Kind {
		case "any_of":
			predicate = check.AnyOf(cs.Values...)
		case "none_of":
			predicate = check.NoneOf(cs.Values...)
		default:
			return nil, &types.RuleCompilationError{RuleID: ruleID, Message: fmt.Sprintf("unknown check kind %q", cs.Kind)}
		}

		out = append(out, types.TargetedCheck{Target: target, Predicate: predicate})
	}
	return out, nil
}

func parseTarget(target string) (types.CheckTarget, error) {
	if target == "entire" || target == "" {
		return types.EntireTarget(), nil
	}
	const prefix = "captures."
	if len(target) > len(prefix) && target[:len(prefix)] == prefix {
		return types.CaptureTarget(target[len(prefix):]), nil
	}
	return types.CheckTarget{}, fmt.Errorf("unknown check target %q (want \"entire\" or \"captures.<name>\")", target)
}

func (b *Builder) buildDefinition(id types.ValidatorId, src *ValidatorSource, captureSet map[string]bool) (validator.Definition, error) {
	method := defaultMethod(src.Method)
	if !validMethods[method] {
		return validator.Definition{}, &types.InvalidMethodError{Method: method}
	}

	urlTpl, err := template.Parse(src.URL)
	if err != nil {
		return validator.Definition{}, wrapRuleErr(id, err)
	}
	if err := checkTemplateCaptures(id, urlTpl, captureSet); err != nil {
		return validator.Definition{}, err
	}

	var headers []validator.HeaderTemplate
	for _, h := range src.Headers {
		tpl, err := template.Parse(h.Value)
		if err != nil {
			return validator.Definition{}, wrapRuleErr(id, err)
		}
		if err := checkTemplateCaptures(id, tpl, captureSet); err != nil {
			return validator.Definition{}, err
		}
		headers = append(headers, validator.HeaderTemplate{Name: h.Name, Value: tpl})
	}

	var bodyTpl *template.Template
	if src.Body != nil {
		tpl, err := template.Parse(*src.Body)
		if err != nil {
			return validator.Definition{}, wrapRuleErr(id, err)
		}
		if err := checkTemplateCaptures(id, tpl, captureSet); err != nil {
			return validator.Definition{}, err
		}
		bodyTpl = &tpl
	}

	handlers, err := buildHandlers(id, src.Handlers)
	if err != nil {
		return validator.Definition{}, err
	}

	retry := b.defaultRetry
	if src.Retry != nil {
		retry = *src.Retry
	}

	return validator.Definition{
		ID:                id,
		Method:            method,
		URL:               urlTpl,
		Headers:           headers,
		Body:              bodyTpl,
		RateLimitInterval: src.RateLimitInterval,
		Retry:             retry,
		TimeBudget:        src.TimeBudget,
		Handlers:          handlers,
	}, nil
}

func buildHandlers(id types.ValidatorId, sources []HandlerSource) ([]validator.ResponseHandler, error) {
	out := make([]validator.ResponseHandler, 0, len(sources))
	for _, hs := range sources {
		h := validator.ResponseHandler{
			StatusCodes:      hs.StatusCodes,
			HeaderName:       hs.HeaderName,
			RetryAfterHeader: hs.RetryAfterHeader,
		}

		switch {
		case hs.BodyContains != "" && hs.BodyPattern != "":
			return nil, &types.RuleCompilationError{RuleID: types.RuleId(id), Message: "handler sets both body_contains and body_pattern"}
		case hs.BodyContains != "":
			h.BodyPattern = regexp.MustCompile(regexp.QuoteMeta(hs.BodyContains))
		case hs.BodyPattern != "":
			re, err := regexp.Compile(hs.BodyPattern)
			if err != nil {
				return nil, &types.RuleCompilationError{RuleID: types.RuleId(id), Message: "invalid body_pattern: " + err.Error()}
			}
			h.BodyPattern = re
		}

		if hs.HeaderPattern != "" {
			re, err := regexp.Compile(hs.HeaderPattern)
			if err != nil {
				return nil, &types.RuleCompilationError{RuleID: types.RuleId(id), Message: "invalid header_pattern: " + err.Error()}
			}
			h.HeaderPattern = re
		}

		action, err := buildAction(id, hs.Action)
		if err != nil {
			return nil, err
		}
		h.Action = action

		out = append(out, h)
	}
	return out, nil
}

func buildAction(id types.ValidatorId, src HandlerActionSource) (types.NextAction, error) {
	switch src.Kind {
	case "secret":
		return types.ReturnSecret(types.SecretCategory(src.Category), parseSeverity(src.Severity)), nil
	case "not_secret":
		return types.ReturnNotSecret(), nil
	case "inconclusive":
		return types.ReturnInconclusive(), nil
	case "abort":
		return types.Abort(src.Description), nil
	case "retry":
		return types.Retry(), nil
	case "retry_after":
		return types.RetryAfterAction(src.RetryAfter), nil
	default:
		return types.NextAction{}, &types.RuleCompilationError{RuleID: types.RuleId(id), Message: fmt.Sprintf("unknown handler action %q", src.Kind)}
	}
}

func parseSeverity(s string) types.Severity {
	switch s {
	case "low":
		return types.SeverityLow
	case "medium":
		return types.SeverityMedium
	case "high":
		return types.SeverityHigh
	case "critical":
		return types.SeverityCritical
	default:
		return types.SeverityUnknown
	}
}

// checkTemplateCaptures rejects a template referencing a named capture its
// rule's pattern never produces (spec.md §4.I step 4). Syntactic validity
// of the variable itself is already checked by template.Parse; this closes
// the remaining gap, a typo'd capture name that parses fine but silently
// renders empty (and, for a check target, silently rejects every candidate)
// at runtime with no diagnostic.
func checkTemplateCaptures(id types.ValidatorId, tpl template.Template, captureSet map[string]bool) error {
	for _, name := range tpl.CaptureNames() {
		if !captureSet[name] {
			return &types.RuleCompilationError{
				RuleID:  types.RuleId(id),
				Message: fmt.Sprintf("template %q references capture %q, which the rule's pattern never produces", tpl.Source(), name),
			}
		}
	}
	return nil
}

func wrapRuleErr(id types.ValidatorId, err error) error {
	if rce, ok := err.(*types.RuleCompilationError); ok {
		rce.RuleID = types.RuleId(id)
		return rce
	}
	return err
}
