package indentgen

import (
	"strings"

	"github.com/haskell-syntax/indentgen/syntax"
)

// expander produces the per-depth copies of a context's rules.
type expander struct {
	cfg Config
	an  Analysis
}

// rewriteRule returns rule with every duplicated context reference and
// every duplicated branch label qualified to depth.
func (e *expander) rewriteRule(rule syntax.Rule, depth int) syntax.Rule {
	return syntax.Rewrite(rule, syntax.Subs{
		Context: func(name string) string {
			if !e.an.Contexts[name] {
				return name
			}
			return e.cfg.qualify(name, depth)
		},
		Label: func(label string) string {
			if !e.an.BranchPoints[label] {
				return label
			}
			return e.cfg.qualify(label, depth)
		},
	})
}

// expandRules builds the rule list for one copy of a context. When
// qualified is set the copy lives at depth and its references are
// rewritten accordingly; otherwise rules pass through untouched. In
// either case a rule whose match contains the depth marker is not
// copied once: it expands into MaxDepth+1 sibling rules, deepest
// first, each with the marker replaced by the literal depth test and
// its own references qualified to that inner depth.
func (e *expander) expandRules(rules syntax.Rules, depth int, qualified bool) syntax.Rules {
	out := make(syntax.Rules, 0, len(rules))
	for _, rule := range rules {
		if strings.Contains(rule.Match, e.cfg.Marker) {
			for _, inner := range e.cfg.depths() {
				expanded := e.rewriteRule(rule, inner)
				expanded.Match = strings.ReplaceAll(rule.Match, e.cfg.Marker, markerRegex(inner))
				out = append(out, expanded)
			}
			continue
		}
		if qualified {
			rule = e.rewriteRule(rule, depth)
		}
		out = append(out, rule)
	}
	return out
}

// sentinelRules synthesizes the single rule of the sentinel's copy at
// depth: pop as soon as the current line is no longer indented past
// depth. The sentinel's stored rules are ignored.
func sentinelRules(depth int) syntax.Rules {
	return syntax.Rules{{
		Match: popPattern(depth),
		Extra: []syntax.Field{{Key: "pop", Value: syntax.BoolNode(true)}},
	}}
}
