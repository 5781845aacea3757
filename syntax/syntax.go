// Package syntax models a sublime-syntax definition as a map of named
// contexts, each holding an ordered list of rules. Only the fields the
// generator rewrites are typed; everything else is carried through
// opaquely so a definition round-trips without the package having to
// understand it.
package syntax

import (
	"gopkg.in/yaml.v3"
)

// Document is one syntax definition. Top-level keys other than
// "contexts" (name, file_extensions, scope, variables, ...) are kept
// verbatim and written back in their original order.
type Document struct {
	Contexts map[string]Rules

	keys []string
	meta map[string]*yaml.Node
}

// WithContexts returns a copy of the document with its context map
// replaced. All other top-level keys are shared with the receiver.
func (d *Document) WithContexts(contexts map[string]Rules) *Document {
	out := *d
	out.Contexts = contexts
	return &out
}

// Rules is an ordered list of rules. Order is significant: the first
// matching rule wins.
type Rules []Rule

// Rule is one entry in a context: either an include of another context
// or a match with optional stack-transition and branching metadata.
// Fields the generator does not recognize are preserved in Extra.
type Rule struct {
	Include     string
	Match       string
	Embed       string
	BranchPoint string
	Branch      []string
	Fail        string
	Push        Target
	Set         Target
	Extra       []Field

	// Original key order of a decoded rule, used to write it back in
	// the same shape. Empty for synthesized rules.
	keys []string
}

// Field is an opaque key/value pair carried through every rewrite
// untouched.
type Field struct {
	Key   string
	Value *yaml.Node
}

// Target is the operand of a push or set action.
type Target interface{ target() }

// Ref targets a single context by name.
type Ref string

// List targets a sequence of contexts by name.
type List []string

// Inline targets an anonymous list of rules.
type Inline Rules

func (Ref) target()    {}
func (List) target()   {}
func (Inline) target() {}

// Subs carries the substitution functions applied by Rewrite: one for
// context references, one for branch labels. A nil function is the
// identity.
type Subs struct {
	Context func(name string) string
	Label   func(label string) string
}

// Rewrite returns a copy of rule with every context reference and
// every branch label replaced by the substitution's result, recursing
// into inline rule lists. Embed, branch and push/set operands are only
// rewritten on rules that carry a match, mirroring how the syntax
// engine interprets them. Non-referential fields, including the match
// pattern itself and all opaque fields, pass through unchanged.
func Rewrite(rule Rule, subs Subs) Rule {
	if subs.Context == nil {
		subs.Context = func(name string) string { return name }
	}
	if subs.Label == nil {
		subs.Label = func(label string) string { return label }
	}
	out := rule
	if rule.Include != "" {
		out.Include = subs.Context(rule.Include)
	}
	if rule.Match != "" {
		if rule.Embed != "" {
			out.Embed = subs.Context(rule.Embed)
		}
		if len(rule.Branch) > 0 {
			out.Branch = make([]string, len(rule.Branch))
			for i, name := range rule.Branch {
				out.Branch[i] = subs.Context(name)
			}
		}
		if rule.BranchPoint != "" {
			out.BranchPoint = subs.Label(rule.BranchPoint)
		}
		if rule.Fail != "" {
			out.Fail = subs.Label(rule.Fail)
		}
		out.Push = rewriteTarget(rule.Push, subs)
		out.Set = rewriteTarget(rule.Set, subs)
	}
	return out
}

func rewriteTarget(t Target, subs Subs) Target {
	switch t := t.(type) {
	case nil:
		return nil
	case Ref:
		return Ref(subs.Context(string(t)))
	case List:
		out := make(List, len(t))
		for i, name := range t {
			out[i] = subs.Context(name)
		}
		return out
	case Inline:
		out := make(Inline, len(t))
		for i, rule := range t {
			out[i] = Rewrite(rule, subs)
		}
		return out
	}
	return t
}

// Refs returns every context name the rule references, in rewrite
// order, including references inside inline rule lists.
func Refs(rule Rule) []string {
	var refs []string
	Rewrite(rule, Subs{
		Context: func(name string) string {
			refs = append(refs, name)
			return name
		},
	})
	return refs
}
