package ruleyaml

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kestrelsec/kestrel/internal/builder"
	"github.com/kestrelsec/kestrel/internal/types"
)

//go:embed rules/*.yml
var builtinRulesFS embed.FS

const supportedSchemaVersion = 1

// Loader parses rule-file YAML into builder.RuleSource values, ported from
// the teacher's rule.Loader (pkg/rule/loader.go): an embedded filesystem of
// built-ins plus LoadRuleSource/LoadRuleSourceFile for caller-supplied
// files.
type Loader struct {
	fs fs.FS
}

// NewLoader builds a Loader backed by the embedded built-in rule set.
func NewLoader() *Loader {
	return &Loader{fs: builtinRulesFS}
}

// NewLoaderWithFS builds a Loader backed by a caller-supplied filesystem,
// used in tests and for loading rule directories outside the binary.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// LoadRuleSource parses a single YAML document into its RuleSources.
func (l *Loader) LoadRuleSource(data []byte) ([]builder.RuleSource, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &types.InvalidSchemaError{Message: fmt.Sprintf("parse yaml: %v", err)}
	}
	if f.SchemaVersion != 0 && f.SchemaVersion != supportedSchemaVersion {
		return nil, &types.InvalidSchemaError{Message: fmt.Sprintf("unsupported schema_version %d", f.SchemaVersion)}
	}

	out := make([]builder.RuleSource, 0, len(f.Rules))
	for _, yr := range f.Rules {
		src, err := convertRule(yr)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

// LoadRuleSourceFile reads path from disk and parses it.
func (l *Loader) LoadRuleSourceFile(path string) ([]builder.RuleSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ruleyaml: read %s: %w", path, err)
	}
	return l.LoadRuleSource(data)
}

// LoadBuiltinRuleSources loads every *.yml file under the Loader's rules
// directory (the embedded built-ins, unless NewLoaderWithFS overrode it).
func (l *Loader) LoadBuiltinRuleSources() ([]builder.RuleSource, error) {
	var out []builder.RuleSource
	err := fs.WalkDir(l.fs, "rules", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}
		data, err := fs.ReadFile(l.fs, path)
		if err != nil {
			return fmt.Errorf("ruleyaml: read %s: %w", path, err)
		}
		srcs, err := l.LoadRuleSource(data)
		if err != nil {
			return fmt.Errorf("ruleyaml: %s: %w", path, err)
		}
		out = append(out, srcs...)
		return nil
	})
	return out, err
}

func convertRule(yr yamlRule) (builder.RuleSource, error) {
	if yr.ID == "" {
		return builder.RuleSource{}, &types.InvalidSchemaError{Message: "rule missing id"}
	}
	if yr.Matcher.Pattern == "" {
		return builder.RuleSource{}, &types.RuleCompilationError{RuleID: types.RuleId(yr.ID), Message: "matcher.pattern is required"}
	}

	checks := make([]builder.CheckSource, 0, len(yr.Checks))
	for _, c := range yr.Checks {
		checks = append(checks, builder.CheckSource{Target: c.Target, Kind: c.Kind, Values: c.Values})
	}

	src := builder.RuleSource{
		ID:       types.RuleId(yr.ID),
		Pattern:  yr.Matcher.Pattern,
		Keywords: yr.Matcher.Keywords,
		Checks:   checks,
	}

	if yr.Validator != nil {
		v, err := convertValidator(types.RuleId(yr.ID), yr.Validator.HTTP)
		if err != nil {
			return builder.RuleSource{}, err
		}
		src.Validator = v
	}

	return src, nil
}

func convertValidator(ruleID types.RuleId, h yamlHTTPValidator) (*builder.ValidatorSource, error) {
	if h.URL == "" {
		return nil, &types.RuleCompilationError{RuleID: ruleID, Message: "validator.http.url is required"}
	}

	var headers []builder.HeaderSource
	for name, value := range h.Headers {
		headers = append(headers, builder.HeaderSource{Name: name, Value: value})
	}

	var body *string
	if h.Body != "" {
		b := h.Body
		body = &b
	}

	var retry *types.RetryConfig
	if h.Retry != nil {
		rc, err := convertRetry(ruleID, h.Retry)
		if err != nil {
			return nil, err
		}
		retry = &rc
	}

	handlers := make([]builder.HandlerSource, 0, len(h.Handlers))
	for _, hs := range h.Handlers {
		handlers = append(handlers, builder.HandlerSource{
			StatusCodes:      hs.StatusCodes,
			BodyContains:     hs.BodyContains,
			BodyPattern:      hs.BodyPattern,
			HeaderName:       hs.HeaderName,
			HeaderPattern:    hs.HeaderPattern,
			RetryAfterHeader: hs.RetryAfterHeader,
			Action: builder.HandlerActionSource{
				Kind:        hs.Action.Kind,
				Category:    hs.Action.Category,
				Severity:    hs.Action.Severity,
				RetryAfter:  hs.Action.RetryAfter.asDuration(),
				Description: hs.Action.Description,
			},
		})
	}

	return &builder.ValidatorSource{
		Method:            h.Method,
		URL:               h.URL,
		Headers:           headers,
		Body:              body,
		RateLimitInterval: h.RateLimitInterval.asDuration(),
		Retry:             retry,
		TimeBudget:        h.TimeBudget.asDuration(),
		Handlers:          handlers,
	}, nil
}

func convertRetry(ruleID types.RuleId, yr *yamlRetry) (types.RetryConfig, error) {
	cfg := types.RetryConfig{MaxAttempts: yr.MaxAttempts, UseJitter: yr.UseJitter}
	switch {
	case yr.Fixed != nil:
		cfg.Policy = types.FixedPolicy{Duration: yr.Fixed.asDuration()}
	case yr.Exponential != nil:
		cfg.Policy = types.ExponentialPolicy{
			Base:    yr.Exponential.Base.asDuration(),
			Factor:  yr.Exponential.Factor,
			Maximum: yr.Exponential.Maximum.asDuration(),
		}
	default:
		return types.RetryConfig{}, &types.RuleCompilationError{RuleID: ruleID, Message: "retry requires either fixed or exponential"}
	}
	return cfg, nil
}
