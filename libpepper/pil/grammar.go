// Package pil reads and writes the kernel / PIL subset used to describe domains, seed complexes, and enumerated networks.
package pil

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

type pilFile struct {
	Stmts []*pilStmt `( @@ | EOL )*`
}

type pilStmt struct {
	Pos lexer.Position

	Length  *lengthStmt  `(   @@`
	Complex *complexStmt `  | @@ ) EOL`
}

type lengthStmt struct {
	Name string `"length" @Ident "="`
	NT   int    `@Int`
}

type complexStmt struct {
	Name   string       `@Ident "="`
	Kernel []*kernelTok `@@+`
	Conc   *concExpr    `@@?`
}

type kernelTok struct {
	Domain string `(   @Ident`
	Open   bool   `    @"("? )`
	Close  bool   `  | @")"`
	Break  bool   `  | @"+"`
}

type concExpr struct {
	Mode  string  `"@" @( "initial" | "constant" )`
	Value float64 `@( Float | Int )`
	Unit  string  `@Ident`
}

var pilLexer = lexer.MustSimple([]lexer.SimpleRule{
	{"Comment", `#[^\n]*`},
	{"Float", `[0-9]+\.[0-9]*([eE][-+]?[0-9]+)?|[0-9]+[eE][-+]?[0-9]+`},
	{"Int", `[0-9]+`},
	{"Ident", `[A-Za-z_][A-Za-z0-9_]*\*?`},
	{"Punct", `[()+=@]`},
	{"EOL", `[\r\n]+`},
	{"whitespace", `[ \t]+`},
})

var parsePIL = participle.MustBuild[pilFile](
	participle.Lexer(pilLexer),
	participle.Elide("Comment"),
)
