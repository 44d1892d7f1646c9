// Package ruleyaml is the rule-file adapter spec.md §6 calls an external
// collaborator: it parses the declarative YAML rule format into the
// normalized builder.RuleSource the core Builder consumes. Kept outside
// the internal/{matcher,check,validator,scanner,builder} core on purpose
// (spec.md §1 treats YAML parsing as outside the pure core), mirroring
// how the teacher keeps pkg/rule (YAML + gopkg.in/yaml.v3) as a layer
// above pkg/matcher/pkg/validator rather than folding it into them.
package ruleyaml

import "time"

type yamlFile struct {
	SchemaVersion int        `yaml:"schema_version"`
	Rules         []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	ID       string           `yaml:"id"`
	Matcher  yamlMatcher      `yaml:"matcher"`
	Checks   []yamlCheck      `yaml:"checks,omitempty"`
	Validator *yamlValidator  `yaml:"validator,omitempty"`
}

type yamlMatcher struct {
	Pattern  string   `yaml:"pattern"`
	Keywords []string `yaml:"keywords,omitempty"`
}

type yamlCheck struct {
	Target string   `yaml:"target"`
	Kind   string   `yaml:"kind"`
	Values []string `yaml:"values"`
}

type yamlValidator struct {
	HTTP yamlHTTPValidator `yaml:"http"`
}

type yamlHTTPValidator struct {
	Method            string            `yaml:"method,omitempty"`
	URL               string            `yaml:"url"`
	Headers           map[string]string `yaml:"headers,omitempty"`
	Body              string            `yaml:"body,omitempty"`
	RateLimitInterval yamlDuration      `yaml:"rate_limit_interval,omitempty"`
	TimeBudget        yamlDuration      `yaml:"time_budget,omitempty"`
	Retry             *yamlRetry        `yaml:"retry,omitempty"`
	Handlers          []yamlHandler     `yaml:"handlers"`
}

type yamlRetry struct {
	MaxAttempts int          `yaml:"max_attempts"`
	UseJitter   bool         `yaml:"use_jitter,omitempty"`
	Fixed       *yamlDuration `yaml:"fixed,omitempty"`
	Exponential *yamlExponential `yaml:"exponential,omitempty"`
}

type yamlExponential struct {
	Base    yamlDuration `yaml:"base"`
	Factor  float64      `yaml:"factor"`
	Maximum yamlDuration `yaml:"maximum"`
}

type yamlHandler struct {
	StatusCodes      []int      `yaml:"status_codes,omitempty"`
	BodyContains     string     `yaml:"body_contains,omitempty"`
	BodyPattern      string     `yaml:"body_pattern,omitempty"`
	HeaderName       string     `yaml:"header_name,omitempty"`
	HeaderPattern    string     `yaml:"header_pattern,omitempty"`
	RetryAfterHeader string     `yaml:"retry_after_header,omitempty"`
	Action           yamlAction `yaml:"action"`
}

type yamlAction struct {
	Kind        string       `yaml:"kind"`
	Category    string       `yaml:"category,omitempty"`
	Severity    string       `yaml:"severity,omitempty"`
	RetryAfter  yamlDuration `yaml:"retry_after,omitempty"`
	Description string       `yaml:"description,omitempty"`
}

// yamlDuration parses Go duration strings ("250ms", "2s") via yaml.v3's
// UnmarshalYAML hook, the same pattern the teacher uses nowhere explicitly
// but that gopkg.in/yaml.v3's documentation recommends for custom scalar
// decoding — kept to a single small type rather than re-deriving
// time.ParseDuration call sites throughout schema.go.
type yamlDuration time.Duration

func (d *yamlDuration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = yamlDuration(parsed)
	return nil
}

func (d yamlDuration) asDuration() time.Duration { return time.Duration(d) }
