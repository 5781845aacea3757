package indentgen

import (
	"fmt"
	"strings"

	"github.com/haskell-syntax/indentgen/syntax"
)

// Analysis is the result of walking the context graph: the contexts
// whose behavior is entangled with a currently open indentation level,
// and the branch point labels those contexts declare. Both must be
// copied once per depth.
type Analysis struct {
	Contexts     map[string]bool
	BranchPoints map[string]bool
}

// visit is one queue entry of the traversal: a context to inspect and
// the contexts crossed since the last indentation-introducing rule.
// inside is false while the traversal has not crossed one yet.
type visit struct {
	context string
	inside  bool
	path    []string
}

// key identifies a (context, path) pair for cycle protection. Each
// distinct path to a context is tracked independently until the
// traversal converges.
func (v visit) key() string {
	if !v.inside {
		return "outside\x00" + v.context
	}
	return "inside\x00" + v.context + "\x00" + strings.Join(v.path, "\x00")
}

// Analyze computes which contexts must be duplicated per depth.
//
// Breadth-first over the context graph from cfg.Entries. Reaching the
// sentinel (or any context already known to be indentation-sensitive)
// marks the whole current path as indentation-sensitive, because the
// sentinel's behavior depends on the depth captured where the path
// began. A rule whose match contains the depth marker starts a fresh
// path for its sub-contexts. A context reachable both inside and
// outside an indentation region is duplicated; correctness wins over
// output size.
func Analyze(doc *syntax.Document, cfg Config) (Analysis, error) {
	an := Analysis{
		Contexts:     map[string]bool{cfg.Sentinel: true},
		BranchPoints: map[string]bool{},
	}

	queue := make([]visit, 0, len(cfg.Entries))
	for _, entry := range cfg.Entries {
		queue = append(queue, visit{context: entry})
	}
	seen := map[string]bool{}
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]

		if an.Contexts[v.context] {
			for _, name := range v.path {
				an.Contexts[name] = true
			}
			continue
		}

		// A context that appears in its own path is not re-entered;
		// distinct paths are still tracked separately.
		if seen[v.key()] || (v.inside && containsName(v.path, v.context)) {
			continue
		}
		seen[v.key()] = true

		path := v.path
		if v.inside {
			path = append(path[:len(path):len(path)], v.context)
		}

		rules, ok := doc.Contexts[v.context]
		if !ok {
			return Analysis{}, fmt.Errorf("context %q referenced but not defined", v.context)
		}
		for _, rule := range rules {
			next := visit{inside: v.inside, path: path}
			if !v.inside && strings.Contains(rule.Match, cfg.Marker) {
				// This rule opens a new indentation region; its
				// sub-contexts start with an empty path.
				next = visit{inside: true}
			}
			for _, sub := range syntax.Refs(rule) {
				nv := next
				nv.context = sub
				queue = append(queue, nv)
			}
		}
	}

	for name := range an.Contexts {
		for _, rule := range doc.Contexts[name] {
			if rule.BranchPoint != "" {
				an.BranchPoints[rule.BranchPoint] = true
			}
		}
	}
	return an, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
