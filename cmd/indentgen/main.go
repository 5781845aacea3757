// Package main expands an indentation-sensitive sublime-syntax
// template into an explicit per-depth syntax definition.
package main

import (
	"bytes"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"
	"github.com/joho/godotenv"

	"github.com/haskell-syntax/indentgen"
	"github.com/haskell-syntax/indentgen/syntax"
)

var cli struct {
	Template     string   `arg:"" optional:"" help:"The syntax template to expand." default:"Haskell-Syntax.template.sublime-syntax" env:"INDENTGEN_TEMPLATE"`
	Output       string   `short:"o" help:"Where to write the expanded syntax." default:"Haskell-Syntax.sublime-syntax" env:"INDENTGEN_OUTPUT"`
	MaxDepth     int      `help:"Deepest indentation column to expand." default:"40" env:"INDENTGEN_MAX_DEPTH"`
	Exempt       []string `help:"Context names that must never be depth-qualified." default:"function"`
	DumpAnalysis bool     `help:"Print the computed duplication sets and exit."`
}

func main() {
	_ = godotenv.Load()
	ctx := kong.Parse(&cli,
		kong.Description("Expand an indentation-sensitive sublime-syntax template into explicit per-depth contexts."),
		kong.UsageOnError(),
	)

	cfg := indentgen.DefaultConfig()
	cfg.MaxDepth = cli.MaxDepth
	cfg.Exempt = map[string]bool{}
	for _, name := range cli.Exempt {
		cfg.Exempt[name] = true
	}

	fd, err := os.Open(cli.Template)
	ctx.FatalIfErrorf(err)
	doc, err := syntax.Decode(fd)
	ctx.FatalIfErrorf(err)
	ctx.FatalIfErrorf(fd.Close())

	if cli.DumpAnalysis {
		an, err := indentgen.Analyze(doc, cfg)
		ctx.FatalIfErrorf(err)
		repr.Println(an)
		return
	}

	out, err := indentgen.Generate(doc, cfg)
	ctx.FatalIfErrorf(err)

	// Encode fully before touching the output file so a failed run
	// never leaves partial output behind.
	buf := new(bytes.Buffer)
	ctx.FatalIfErrorf(syntax.Encode(buf, out))

	w, err := os.Create(cli.Output)
	ctx.FatalIfErrorf(err)
	_, err = io.Copy(w, buf)
	ctx.FatalIfErrorf(err)
	ctx.FatalIfErrorf(w.Close())

	ctx.Printf("wrote %d contexts to %s", len(out.Contexts), cli.Output)
}
