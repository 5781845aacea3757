package indentgen

import (
	"fmt"
	"sort"

	"github.com/haskell-syntax/indentgen/syntax"
)

// Generate expands doc into its indentation-agnostic form: the
// sentinel and every context the analysis marked are replaced by one
// qualified copy per depth, everything else is carried over untouched,
// and all other top-level document keys pass through verbatim.
func Generate(doc *syntax.Document, cfg Config) (*syntax.Document, error) {
	an, err := Analyze(doc, cfg)
	if err != nil {
		return nil, err
	}
	e := &expander{cfg: cfg, an: an}

	out := make(map[string]syntax.Rules, len(doc.Contexts))
	add := func(name string, rules syntax.Rules, overwrite bool) error {
		if _, ok := out[name]; ok && !overwrite {
			return fmt.Errorf("output context %q generated twice", name)
		}
		out[name] = rules
		return nil
	}

	for _, name := range sortedNames(doc.Contexts) {
		rules := doc.Contexts[name]
		switch {
		case name == cfg.Sentinel:
			for _, d := range cfg.depths() {
				if err := add(cfg.qualify(name, d), sentinelRules(d), cfg.Exempt[name]); err != nil {
					return nil, err
				}
			}
		case an.Contexts[name]:
			// An exempt context still iterates the depths, but every
			// copy lands on the unqualified key, so the final (depth
			// 0) rewrite wins. That keeps its references resolvable
			// and is the documented exemption trade-off, not a
			// collision.
			for _, d := range cfg.depths() {
				if err := add(cfg.qualify(name, d), e.expandRules(rules, d, true), cfg.Exempt[name]); err != nil {
					return nil, err
				}
			}
		default:
			if err := add(name, e.expandRules(rules, 0, false), false); err != nil {
				return nil, err
			}
		}
	}

	if err := verifyClosure(out); err != nil {
		return nil, err
	}
	return doc.WithContexts(out), nil
}

// verifyClosure checks the primary output invariant: every context
// reference resolves to an output context, and every fail label has a
// matching branch point declaration.
func verifyClosure(contexts map[string]syntax.Rules) error {
	declared := map[string]bool{}
	for _, rules := range contexts {
		eachRule(rules, func(r syntax.Rule) {
			if r.BranchPoint != "" {
				declared[r.BranchPoint] = true
			}
		})
	}
	for _, name := range sortedNames(contexts) {
		for _, rule := range contexts[name] {
			for _, ref := range syntax.Refs(rule) {
				if _, ok := contexts[ref]; !ok {
					return fmt.Errorf("context %q references undefined context %q", name, ref)
				}
			}
		}
		var err error
		eachRule(contexts[name], func(r syntax.Rule) {
			if err == nil && r.Fail != "" && !declared[r.Fail] {
				err = fmt.Errorf("context %q fails to undeclared branch point %q", name, r.Fail)
			}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// eachRule calls fn for every rule in rules, including rules nested in
// inline push/set operands.
func eachRule(rules syntax.Rules, fn func(syntax.Rule)) {
	for _, rule := range rules {
		fn(rule)
		if inline, ok := rule.Push.(syntax.Inline); ok {
			eachRule(syntax.Rules(inline), fn)
		}
		if inline, ok := rule.Set.(syntax.Inline); ok {
			eachRule(syntax.Rules(inline), fn)
		}
	}
}

func sortedNames(contexts map[string]syntax.Rules) []string {
	names := make([]string, 0, len(contexts))
	for name := range contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
