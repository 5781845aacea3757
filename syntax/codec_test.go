package syntax

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `%YAML 1.2
---
name: Test
scope: source.test
contexts:
  main:
    - include: block
  block:
    - match: ^(\S+)$
      scope: entity.name
      push: [one, two]
    - match: foo
      branch_point: choice
      branch:
        - first
        - second
    - match: bar
      fail: choice
      set:
        - match: baz
          pop: true
`

func decodeString(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Decode(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestDecode(t *testing.T) {
	doc := decodeString(t, sampleDoc)
	require.Len(t, doc.Contexts, 2)

	main := doc.Contexts["main"]
	require.Len(t, main, 1)
	require.Equal(t, "block", main[0].Include)

	block := doc.Contexts["block"]
	require.Len(t, block, 3)

	require.Equal(t, `^(\S+)$`, block[0].Match)
	require.Equal(t, List{"one", "two"}, block[0].Push)
	require.Len(t, block[0].Extra, 1)
	require.Equal(t, "scope", block[0].Extra[0].Key)
	require.Equal(t, "entity.name", block[0].Extra[0].Value.Value)

	require.Equal(t, "choice", block[1].BranchPoint)
	require.Equal(t, []string{"first", "second"}, block[1].Branch)

	require.Equal(t, "choice", block[2].Fail)
	set, ok := block[2].Set.(Inline)
	require.True(t, ok)
	require.Len(t, set, 1)
	require.Equal(t, "baz", set[0].Match)
	require.Equal(t, "pop", set[0].Extra[0].Key)
}

func TestDecodeTargetShapes(t *testing.T) {
	doc := decodeString(t, `
contexts:
  a:
    - match: x
      push: single
  b:
    - match: x
      set: [one, two]
`)
	require.Equal(t, Ref("single"), doc.Contexts["a"][0].Push)
	require.Equal(t, List{"one", "two"}, doc.Contexts["b"][0].Set)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  string
	}{
		{"missing contexts", "name: Test\n", `no top-level "contexts" key`},
		{"rule not a mapping", "contexts:\n  main:\n    - 5\n", "rule must be a mapping"},
		{"rules not a sequence", "contexts:\n  main: 5\n", "rules must be a sequence"},
		{"bad push operand", "contexts:\n  main:\n    - match: x\n      push: {a: b}\n", "push"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(test.src))
			require.Error(t, err)
			require.Contains(t, err.Error(), test.err)
		})
	}
}

func TestDecodeVersionDirective(t *testing.T) {
	// Every sublime-syntax file opens with the 1.2 directive, which
	// the YAML library would otherwise reject.
	doc := decodeString(t, "%YAML 1.2\n---\ncontexts:\n  main: []\n")
	require.Contains(t, doc.Contexts, "main")

	_, err := Decode(strings.NewReader("%YAML 1.2"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty syntax document")
}

func TestEncodeKeepsEmptyMatch(t *testing.T) {
	// An explicitly empty match survives the round trip.
	doc := decodeString(t, `
contexts:
  main:
    - match: ''
      scope: empty.test
`)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	assert.Contains(t, buf.String(), "match:")

	again := decodeString(t, buf.String())
	require.Equal(t, []string{"match", "scope"}, again.Contexts["main"][0].keys)
	require.Equal(t, "", again.Contexts["main"][0].Match)
}

func TestEncodeHeader(t *testing.T) {
	doc := decodeString(t, sampleDoc)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	require.True(t, strings.HasPrefix(buf.String(), "%YAML 1.2\n---\n"))
}

func TestEncodeStable(t *testing.T) {
	// Encoding is a fixed point: decoding our own output and encoding
	// it again is byte-identical.
	doc := decodeString(t, sampleDoc)
	var first bytes.Buffer
	require.NoError(t, Encode(&first, doc))

	again := decodeString(t, first.String())
	var second bytes.Buffer
	require.NoError(t, Encode(&second, again))

	require.Equal(t, first.String(), second.String())
}

func TestEncodeMetaPassthrough(t *testing.T) {
	doc := decodeString(t, `
name: Test
file_extensions:
  - test
contexts:
  main: []
hidden: true
`)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	out := buf.String()
	assert.Contains(t, out, "name: Test")
	assert.Contains(t, out, "file_extensions:\n  - test")
	assert.Contains(t, out, "hidden: true")
	// Top-level key order is preserved.
	assert.Less(t, strings.Index(out, "name:"), strings.Index(out, "contexts:"))
	assert.Less(t, strings.Index(out, "contexts:"), strings.Index(out, "hidden:"))
}

func TestEncodeExpandsAliases(t *testing.T) {
	doc := decodeString(t, `
variables: &shared
  indent: sp
other: *shared
contexts:
  main: []
`)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))
	out := buf.String()
	assert.NotContains(t, out, "&shared")
	assert.NotContains(t, out, "*shared")
	// Both occurrences are written out in full.
	assert.Equal(t, 2, strings.Count(out, "indent: sp"))
}

func TestWithContexts(t *testing.T) {
	doc := decodeString(t, sampleDoc)
	out := doc.WithContexts(map[string]Rules{"main": nil})
	require.Len(t, out.Contexts, 1)
	require.Len(t, doc.Contexts, 2)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, out))
	assert.Contains(t, buf.String(), "name: Test")
}
