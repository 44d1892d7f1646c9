// Package template implements the small interpreter over a parsed template
// called for in spec.md §9's design note: rather than storing
// format_url/add_headers/build_payload as closures (as the original does),
// a Template is a pre-parsed sequence of literal and variable nodes,
// produced once at build time and rendered per-candidate with no further
// parsing. This also lets the Builder reject unknown variables at build
// time (spec.md §6), rather than failing during a live validation.
package template

import (
	"strings"

	"github.com/kestrelsec/kestrel/internal/types"
)

// node is one element of a parsed Template.
type node struct {
	literal  string
	variable *variable // nil for a literal node
}

// variable is a resolved reference to either the full candidate match or
// one of its named captures (spec.md §6 "Interpolation grammar").
type variable struct {
	capture string // empty means "the whole candidate"
	entire  bool
}

// Template is a pre-parsed `${{ candidate }}` / `${{ candidate.captures.<name> }}`
// expression sequence.
type Template struct {
	nodes  []node
	source string
}

const (
	openTag  = "${{"
	closeTag = "}}"
)

// Parse tokenizes src into a Template. Returns an error satisfying
// spec.md §6 ("Unknown variables → RuleCompilationError at build time"):
// the error is *types.RuleCompilationError so the Builder can attach the
// offending RuleId before surfacing it.
func Parse(src string) (Template, error) {
	var nodes []node
	rest := src
	for {
		start := strings.Index(rest, openTag)
		if start == -1 {
			if rest != "" {
				nodes = append(nodes, node{literal: rest})
			}
			break
		}
		if start > 0 {
			nodes = append(nodes, node{literal: rest[:start]})
		}
		rest = rest[start+len(openTag):]
		end := strings.Index(rest, closeTag)
		if end == -1 {
			return Template{}, &types.RuleCompilationError{
				Message: "unterminated \"${{\" in template: " + src,
			}
		}
		expr := strings.TrimSpace(rest[:end])
		rest = rest[end+len(closeTag):]

		v, err := parseVariable(expr)
		if err != nil {
			return Template{}, err
		}
		nodes = append(nodes, node{variable: v})
	}
	return Template{nodes: nodes, source: src}, nil
}

func parseVariable(expr string) (*variable, error) {
	switch {
	case expr == "candidate":
		return &variable{entire: true}, nil
	case strings.HasPrefix(expr, "candidate.captures."):
		name := strings.TrimPrefix(expr, "candidate.captures.")
		if name == "" {
			return nil, &types.RuleCompilationError{Message: "empty capture name in template variable"}
		}
		return &variable{capture: name}, nil
	default:
		return nil, &types.RuleCompilationError{
			Message: "unknown template variable \"${{ " + expr + " }}\"",
		}
	}
}

// CaptureNames returns the distinct named captures this template
// references, used by the Builder to check each is actually produced by
// the rule's pattern (spec.md §4.I step 4).
func (t Template) CaptureNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, n := range t.nodes {
		if n.variable != nil && !n.variable.entire {
			if !seen[n.variable.capture] {
				seen[n.variable.capture] = true
				names = append(names, n.variable.capture)
			}
		}
	}
	return names
}

// Render walks the parsed nodes against a candidate, substituting each
// variable. A referenced capture absent from the candidate renders as
// empty — the Builder already guarantees at build time that every
// variable in a Template corresponds to a capture the pattern can
// produce, so this path is only reached when a particular match simply
// didn't populate that optional group.
func (t Template) Render(c *types.Candidate) string {
	var b strings.Builder
	for _, n := range t.nodes {
		if n.variable == nil {
			b.WriteString(n.literal)
			continue
		}
		if n.variable.entire {
			b.Write(c.FullMatch)
			continue
		}
		b.Write(c.Captures[n.variable.capture])
	}
	return b.String()
}

// Source returns the original template string, useful for error messages.
func (t Template) Source() string { return t.source }
