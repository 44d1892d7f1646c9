package matcher

import (
	"regexp"
	"strings"
)

// stripExtendedMode preprocesses a regex pattern to remove extended-mode
// ((?x)) syntax before handing it to Hyperscan, which doesn't support free
// spacing or inline comments. Ported unchanged from the teacher's
// pkg/matcher/extended.go: the Hyperscan backend must use this; the
// regexp2 backend doesn't need it since regexp2 understands (?x) natively.
func stripExtendedMode(pattern string) string {
	if !strings.HasPrefix(strings.TrimSpace(pattern), "(?x)") {
		return pattern
	}

	pattern = strings.TrimSpace(pattern)
	pattern = strings.TrimPrefix(pattern, "(?x)")

	commentRegex := regexp.MustCompile(`\(\?#[^)]*\)`)
	pattern = commentRegex.ReplaceAllString(pattern, "")

	pattern = strings.ReplaceAll(pattern, "(?s)", "")
	pattern = strings.ReplaceAll(pattern, "(?m)", "")

	var result strings.Builder
	escaped := false

	for i, char := range pattern {
		if escaped {
			result.WriteRune(char)
			escaped = false
			continue
		}

		if char == '\\' {
			if i+1 < len(pattern) {
				result.WriteRune(char)
				escaped = true
			} else {
				result.WriteRune(char)
			}
			continue
		}

		if char == ' ' || char == '\t' || char == '\n' || char == '\r' {
			continue
		}

		result.WriteRune(char)
	}

	return result.String()
}

// NamedGroups reports the named capture groups a pattern source produces,
// used by the Builder to reject (at build time) a check target or template
// variable referencing a capture the pattern can never populate (spec.md
// §4.I step 4). Shared by both backends — extended-mode patterns are
// normalized the same way the Hyperscan backend's stage-two regexp is
// compiled, so the reported names match what Scan actually extracts
// regardless of which backend is active.
func NamedGroups(source string) ([]string, error) {
	re, err := regexp.Compile("(?s)" + stripExtendedMode(source))
	if err != nil {
		return nil, err
	}
	var names []string
	for _, n := range re.SubexpNames() {
		if n != "" {
			names = append(names, n)
		}
	}
	return names, nil
}
