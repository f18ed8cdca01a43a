package pil

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/2x3systems/peppercorn/libpepper/condense"
	"github.com/2x3systems/peppercorn/pepper"
	"github.com/pkg/errors"
)

// VDSDOpts configures WriteVDSD.
type VDSDOpts struct {
	Condensed bool   // write resting macrostates and condensed reactions instead of the detailed network
	Generator string // named in the header comment
	Toehold   int    // domains up to this length (nt) are written as toeholds; 0 for pepper.DefaultReleaseCutoff

	// Concentrations of seed complexes by name (optional); other species start at 1 nM.
	Concentrations map[string]*Concentration
}

var vdsdUnits = Units{Molarity: "nM", Time: "s"}

// WriteVDSD writes net for Visual DSD: species in LogicDSD notation, initial concentrations in nM and
// reactions with rate constants in /nM/s.
func WriteVDSD(w io.Writer, net *libpepper.Network, res *condense.Result, opts VDSDOpts) error {
	if opts.Condensed && res == nil {
		return errors.Wrap(pepper.ErrBadOpts, "condensed Visual DSD output needs a condensed network")
	}
	if opts.Toehold <= 0 {
		opts.Toehold = pepper.DefaultReleaseCutoff
	}
	generator := opts.Generator
	if generator == "" {
		generator = "pepper"
	}

	type species struct {
		name string
		rep  *libpepper.Complex
		conc float64
	}
	var all []species
	if opts.Condensed {
		for _, ms := range res.Resting {
			sp := species{name: ms.Name, rep: ms.Representative()}
			for _, X := range ms.Complexes {
				if conc := opts.Concentrations[X.Name()]; conc != nil {
					nM, err := vdsdUnits.Concentration(conc)
					if err != nil {
						return err
					}
					sp.conc += nM
				}
			}
			all = append(all, sp)
		}
	} else {
		for _, X := range append(sortedCopy(net.Resting), sortedCopy(net.Transient)...) {
			sp := species{name: X.Name(), rep: X}
			if conc := opts.Concentrations[X.Name()]; conc != nil {
				nM, err := vdsdUnits.Concentration(conc)
				if err != nil {
					return err
				}
				sp.conc = nM
			}
			all = append(all, sp)
		}
	}

	pw := &printer{w: w}
	pw.printf("(* File autogenerated by %s *)\n\n", generator)
	names := make([]string, len(all))
	for i, sp := range all {
		names[i] = sp.name
	}
	pw.printf("directive simulation {\n   plots=[%s];\n}\n\n", strings.Join(names, "; "))

	pw.printf("(* LogicDSD species:\n")
	for _, sp := range all {
		pw.printf("%s = %s\n", sp.name, logicDSD(sp.rep, opts.Toehold))
	}
	pw.printf("*)\n\n")

	pw.printf("(* Initial concentrations (%d) *)\n", len(all))
	for _, sp := range all {
		conc := int64(math.Round(sp.conc))
		if conc <= 0 {
			conc = 1
		}
		pw.printf("| %d %s\n", conc, sp.name)
	}

	if opts.Condensed {
		pw.printf("\n(* Condensed reactions (%d) *)\n", len(res.Reactions))
		for _, rxn := range res.Reactions {
			pw.printf("| %s -> {%g} %s\n",
				strings.Join(macrostateNames(rxn.Reactants), " + "),
				vdsdUnits.Rate(rxn.Rate, rxn.Arity()),
				strings.Join(macrostateNames(rxn.Products), " + "))
		}
		return pw.err
	}

	rxns := sortedReactions(net.Reactions)
	pw.printf("\n(* Detailed reactions (%d) *)\n", len(rxns))
	for _, rxn := range rxns {
		pw.printf("| %s -> {%g} %s\n",
			strings.Join(complexNames(rxn.Reactants), " + "),
			vdsdUnits.Rate(rxn.Rate, rxn.Arity()),
			strings.Join(complexNames(rxn.Products), " + "))
	}
	return pw.err
}

// logicDSD renders X in LogicDSD notation, e.g. "< t^ x!1 > | < x*!1 >".
func logicDSD(X *libpepper.Complex, toehold int) string {
	pt := X.PairTable()
	bonds := make([]int, len(pt))
	next := 1
	var parts []string
	p := 0
	for _, s := range X.Strands() {
		doms := make([]string, 0, s.Len())
		for _, d := range s.Domains() {
			name := d.Name()
			if d.Len() <= toehold {
				if d.IsComplement() {
					name = strings.TrimSuffix(name, "*") + "^*"
				} else {
					name += "^"
				}
			}
			if q := pt[p]; q >= 0 {
				if q > p {
					bonds[p], bonds[q] = next, next
					next++
				}
				name += "!" + strconv.Itoa(bonds[p])
			}
			doms = append(doms, name)
			p++
		}
		parts = append(parts, "< "+strings.Join(doms, " ")+" >")
	}
	return strings.Join(parts, " | ")
}
