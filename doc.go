// Package indentgen expands an indentation-sensitive sublime-syntax
// definition into one with every supported indentation hardcoded.
//
// Sublime Text cannot reference a capture made beyond a context's
// immediate parent, so a context deep inside an indented block has no
// way to test the indentation that was captured when the block opened.
// The generator sidesteps the limitation by copying every context
// whose behavior depends on an open indentation level once per depth
// 0..MaxDepth, rewriting all internal references so each copy only
// ever refers to siblings at its own depth.
//
// The expansion is a pure function of the input document and a Config:
// Analyze walks the context graph to find what must be duplicated,
// Generate produces the per-depth copies and assembles the output
// document.
package indentgen
