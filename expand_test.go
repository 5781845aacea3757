package indentgen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haskell-syntax/indentgen/syntax"
)

func TestQualify(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "body__3", cfg.qualify("body", 3))
	// Qualification is idempotent.
	require.Equal(t, "body__3", cfg.qualify("body__3", 5))
	// Exempt names are never qualified.
	require.Equal(t, "function", cfg.qualify("function", 7))
}

func TestDepthsDescending(t *testing.T) {
	require.Equal(t, []int{3, 2, 1, 0}, testConfig(3).depths())
}

func TestPopPattern(t *testing.T) {
	require.Equal(t, `^(?!\s)`, popPattern(0))
	require.Equal(t, `^(?!\s{1}\s)`, popPattern(1))
	require.Equal(t, `^(?!\s{4}\s)`, popPattern(4))
}

func TestMarkerRegex(t *testing.T) {
	require.Equal(t, `(?!\s)`, markerRegex(0))
	require.Equal(t, `\s{2}`, markerRegex(2))
}

func TestSentinelRules(t *testing.T) {
	for _, depth := range []int{0, 1, 2, 40} {
		rules := sentinelRules(depth)
		require.Len(t, rules, 1)
		require.Equal(t, popPattern(depth), rules[0].Match)
		require.Len(t, rules[0].Extra, 1)
		require.Equal(t, "pop", rules[0].Extra[0].Key)
		require.Equal(t, "true", rules[0].Extra[0].Value.Value)
	}
}

func TestExpandMarkerRule(t *testing.T) {
	e := &expander{
		cfg: testConfig(2),
		an: Analysis{
			Contexts:     map[string]bool{"body": true},
			BranchPoints: map[string]bool{},
		},
	}
	rule := syntax.Rule{Match: "^({{INDENTATION}})", Push: syntax.Ref("body")}

	out := e.expandRules(syntax.Rules{rule}, 0, false)
	require.Len(t, out, 3)
	require.Equal(t, `^(\s{2})`, out[0].Match)
	require.Equal(t, syntax.Ref("body__2"), out[0].Push)
	require.Equal(t, `^(\s{1})`, out[1].Match)
	require.Equal(t, syntax.Ref("body__1"), out[1].Push)
	require.Equal(t, `^((?!\s))`, out[2].Match)
	require.Equal(t, syntax.Ref("body__0"), out[2].Push)
}

func TestExpandPassThrough(t *testing.T) {
	e := &expander{
		cfg: testConfig(2),
		an: Analysis{
			Contexts:     map[string]bool{"body": true},
			BranchPoints: map[string]bool{},
		},
	}
	rules := syntax.Rules{
		{Include: "body"},
		{Match: "x", Push: syntax.Ref("other")},
	}

	// Unqualified copy: untouched, field for field.
	require.Equal(t, rules, e.expandRules(rules, 0, false))

	// Qualified copy: duplicated references renamed, the rest kept.
	out := e.expandRules(rules, 1, true)
	require.Equal(t, "body__1", out[0].Include)
	require.Equal(t, syntax.Ref("other"), out[1].Push)
}
