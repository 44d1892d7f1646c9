package main

import (
	"github.com/kestrelsec/kestrel/internal/builder"
	"github.com/kestrelsec/kestrel/internal/ruleyaml"
	"github.com/kestrelsec/kestrel/internal/scanner"
)

// buildScanner loads rules (built-in, unless --rules names a file) and
// compiles them into a ready-to-use Scanner.
func buildScanner() (*scanner.Scanner, error) {
	loader := ruleyaml.NewLoader()

	var sources []builder.RuleSource
	if rulesPath == "" {
		built, err := loader.LoadBuiltinRuleSources()
		if err != nil {
			return nil, err
		}
		sources = built
	} else {
		fromFile, err := loader.LoadRuleSourceFile(rulesPath)
		if err != nil {
			return nil, err
		}
		sources = fromFile
	}

	b := builder.New()
	for _, src := range sources {
		b.AddRuleSource(src)
	}
	return b.TryBuild()
}
