package indentgen

import (
	"fmt"
	"regexp"
)

// Config carries the fixed parameters of one expansion run.
type Config struct {
	// MaxDepth is the largest indentation column that gets a concrete
	// copy. Blocks indented deeper are not tracked; that approximation
	// is accepted, not a bug.
	MaxDepth int

	// Marker is the placeholder token inside match patterns standing
	// for the indentation column of the block being opened.
	Marker string

	// Sentinel names the context whose inclusion ends an indented
	// region when a line no longer matches the captured indentation.
	Sentinel string

	// Entries are the contexts the dependency analysis starts from.
	Entries []string

	// Exempt names are never depth-qualified, even when the analysis
	// would require it. They act as recursive anchors shared across
	// all depths; duplicating them would explode the output. This
	// overrides the computed result, so a grammar change that makes an
	// exempt context indentation-sensitive in a new way will silently
	// miscompile.
	Exempt map[string]bool
}

// DefaultConfig returns the configuration used for the Haskell syntax
// template.
func DefaultConfig() Config {
	return Config{
		MaxDepth: 40,
		Marker:   "{{INDENTATION}}",
		Sentinel: "pop_when_deindent",
		Entries:  []string{"main", "prototype"},
		Exempt:   map[string]bool{"function": true},
	}
}

var qualifiedName = regexp.MustCompile(`__\d+$`)

// qualify appends the depth suffix to name. Exempt names and names
// already carrying a depth suffix are returned unchanged, so
// qualification is idempotent.
func (c Config) qualify(name string, depth int) string {
	if c.Exempt[name] || qualifiedName.MatchString(name) {
		return name
	}
	return fmt.Sprintf("%s__%d", name, depth)
}

// depths returns every supported depth, deepest first. Alternation is
// order-sensitive: a deeper indent must be tried before a shallower
// one that would match its prefix.
func (c Config) depths() []int {
	out := make([]int, 0, c.MaxDepth+1)
	for d := c.MaxDepth; d >= 0; d-- {
		out = append(out, d)
	}
	return out
}

// indentRegex is the literal test for exactly depth leading columns.
func indentRegex(depth int) string {
	return fmt.Sprintf(`\s{%d}`, depth)
}

// markerRegex is the replacement for the marker token at the given
// depth. `\s{0}` does not behave as a zero-width match, so depth 0
// uses a lookahead instead.
func markerRegex(depth int) string {
	if depth == 0 {
		return `(?!\s)`
	}
	return indentRegex(depth)
}

// popPattern matches any line that is not indented past depth, the
// cue to leave the nested context.
func popPattern(depth int) string {
	if depth == 0 {
		return `^(?!\s)`
	}
	return fmt.Sprintf(`^(?!%s\s)`, indentRegex(depth))
}
