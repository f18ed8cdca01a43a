package pil

import (
	"strings"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/pkg/errors"
)

// Concentration is an optional "@initial 100 nM" or "@constant 1 uM" seed annotation.
type Concentration struct {
	Mode  string // "initial" or "constant"
	Value float64
	Unit  string
}

// Seed is a named complex declared in a PIL file.
type Seed struct {
	Name    string
	Complex *libpepper.Complex
	Conc    *Concentration
	Line    int
}

// File is the content of a parsed PIL file.
type File struct {
	Domains *libpepper.DomainTable
	Seeds   []Seed // declaration order
}

// ParseString parses PIL text declaring domain lengths and seed complexes.
func ParseString(src string) (*File, error) {
	if !strings.HasSuffix(src, "\n") {
		src += "\n"
	}
	ast, err := parsePIL.ParseString("", src)
	if err != nil {
		return nil, errors.Wrap(err, "parsing PIL")
	}

	file := &File{
		Domains: libpepper.NewDomainTable(),
	}
	names := make(map[string]int)
	for _, stmt := range ast.Stmts {
		line := stmt.Pos.Line
		switch {
		case stmt.Length != nil:
			if _, err := file.Domains.Define(stmt.Length.Name, stmt.Length.NT); err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
		case stmt.Complex != nil:
			def := stmt.Complex
			if prev, exists := names[def.Name]; exists {
				return nil, errors.Errorf("line %d: complex %q already declared on line %d", line, def.Name, prev)
			}
			X, err := buildComplex(file.Domains, def.Kernel)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: complex %q", line, def.Name)
			}
			seed := Seed{
				Name:    def.Name,
				Complex: X,
				Line:    line,
			}
			if def.Conc != nil {
				seed.Conc = &Concentration{
					Mode:  def.Conc.Mode,
					Value: def.Conc.Value,
					Unit:  def.Conc.Unit,
				}
			}
			names[def.Name] = line
			file.Seeds = append(file.Seeds, seed)
		}
	}
	return file, nil
}

// ParseKernel parses a single kernel string ("a( b + c* ) a*") over already defined domains.
func ParseKernel(domains *libpepper.DomainTable, kernel string) (*libpepper.Complex, error) {
	file, err := parsePIL.ParseString("", "k = "+kernel+"\n")
	if err != nil {
		return nil, errors.Wrap(err, "parsing kernel")
	}
	if len(file.Stmts) != 1 || file.Stmts[0].Complex == nil {
		return nil, errors.Errorf("not a kernel string: %q", kernel)
	}
	return buildComplex(domains, file.Stmts[0].Complex.Kernel)
}

func buildComplex(domains *libpepper.DomainTable, toks []*kernelTok) (*libpepper.Complex, error) {
	type opener struct {
		loc libpepper.Loc
		dom *libpepper.Domain
	}

	var (
		strands []*libpepper.Strand
		current []*libpepper.Domain
		pairs   []libpepper.PairLoc
		open    []opener
	)
	endStrand := func() error {
		if len(current) == 0 {
			return errors.New("empty strand")
		}
		strands = append(strands, libpepper.NewStrand(current...))
		current = nil
		return nil
	}

	for _, tok := range toks {
		here := libpepper.Loc{Strand: len(strands), Domain: len(current)}
		switch {
		case tok.Break:
			if err := endStrand(); err != nil {
				return nil, err
			}
		case tok.Close:
			top := len(open) - 1
			if top < 0 {
				return nil, errors.New("unmatched ')'")
			}
			pairs = append(pairs, libpepper.PairLoc{A: open[top].loc, B: here})
			current = append(current, open[top].dom.Complement())
			open = open[:top]
		default:
			d, err := domains.Resolve(tok.Domain)
			if err != nil {
				return nil, err
			}
			if tok.Open {
				open = append(open, opener{loc: here, dom: d})
			}
			current = append(current, d)
		}
	}
	if len(open) > 0 {
		return nil, errors.Errorf("%d unmatched '('", len(open))
	}
	if err := endStrand(); err != nil {
		return nil, err
	}
	return libpepper.NewComplex(strands, pairs)
}
