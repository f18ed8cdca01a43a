package pil

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/2x3systems/peppercorn/libpepper/condense"
	"github.com/maruel/natural"
	"gopkg.in/yaml.v3"
)

// PrintOpts selects the sections written for a network.
type PrintOpts struct {
	Detailed  bool   // detailed reactions and transient complexes
	Condensed bool   // resting macrostates and condensed reactions (needs a condense.Result)
	Generator string // named in the header comment, e.g. "pepper v1.2"
	Units     Units  // of rate constants

	// Concentrations of seed complexes by name (optional), printed as @initial / @constant annotations.
	Concentrations map[string]*Concentration
}

// WritePIL writes net (and res, if given) in PIL format.
func WritePIL(w io.Writer, net *libpepper.Network, res *condense.Result, opts PrintOpts) error {
	if err := opts.Units.Validate(); err != nil {
		return err
	}
	pw := &printer{w: w}
	units := opts.Units

	generator := opts.Generator
	if generator == "" {
		generator = "pepper"
	}
	pw.printf("# File generated by %s (run %v)\n", generator, net.RunID)
	if !net.Complete {
		for _, rep := range net.Cutoffs {
			pw.printf("# WARNING: incomplete enumeration: %v\n", rep)
		}
	}

	domains := domainsOf(net)
	pw.printf("\n# Domains (%d)\n", len(domains))
	for _, d := range domains {
		pw.printf("length %s = %d\n", d.Name(), d.Len())
	}

	resting := sortedCopy(net.Resting)
	pw.printf("\n# Resting complexes (%d)\n", len(resting))
	for _, X := range resting {
		pw.complex(X, opts.Concentrations)
	}

	if opts.Condensed && res != nil {
		pw.printf("\n# Resting macrostates (%d)\n", len(res.Resting))
		for _, ms := range res.Resting {
			pw.printf("macrostate %s = [%s]\n", ms.Name, strings.Join(complexNames(ms.Complexes), ", "))
		}

		pw.printf("\n# Condensed reactions (%d)\n", len(res.Reactions))
		for _, rxn := range res.Reactions {
			pw.printf("reaction [%-13s = %12.6g %-4s ] %s\n",
				"condensed", units.Rate(rxn.Rate, rxn.Arity()), units.RateUnit(rxn.Arity()), rxn)
		}
	}

	if opts.Detailed {
		transient := sortedCopy(net.Transient)
		pw.printf("\n# Transient complexes (%d)\n", len(transient))
		for _, X := range transient {
			pw.complex(X, opts.Concentrations)
		}

		rxns := sortedReactions(net.Reactions)
		pw.printf("\n# Detailed reactions (%d)\n", len(rxns))
		for _, rxn := range rxns {
			pw.printf("reaction [%-13s = %12.6g %-4s ] %s -> %s\n",
				rxn.Label(), units.Rate(rxn.Rate, rxn.Arity()), units.RateUnit(rxn.Arity()),
				strings.Join(complexNames(rxn.Reactants), " + "),
				strings.Join(complexNames(rxn.Products), " + "))
		}
	}
	return pw.err
}

// WriteCRN writes one "A + B -> C [k = 3e+06]" line per reaction: condensed reactions if res is given, detailed ones otherwise.
func WriteCRN(w io.Writer, net *libpepper.Network, res *condense.Result, units Units) error {
	if err := units.Validate(); err != nil {
		return err
	}
	pw := &printer{w: w}
	if res != nil {
		pw.printf("# Condensed reactions: concentration = %s, time = %s\n", units.molarity(), units.time())
		for _, rxn := range res.Reactions {
			pw.printf("%s [k = %g]\n", rxn, units.Rate(rxn.Rate, rxn.Arity()))
		}
		return pw.err
	}
	pw.printf("# Detailed reactions: concentration = %s, time = %s\n", units.molarity(), units.time())
	for _, rxn := range sortedReactions(net.Reactions) {
		pw.printf("%s -> %s [k = %g]\n",
			strings.Join(complexNames(rxn.Reactants), " + "),
			strings.Join(complexNames(rxn.Products), " + "),
			units.Rate(rxn.Rate, rxn.Arity()))
	}
	return pw.err
}

type yamlDomain struct {
	Name   string `yaml:"name"`
	Length int    `yaml:"length"`
}

type yamlComplex struct {
	Name    string `yaml:"name"`
	Kernel  string `yaml:"kernel"`
	Resting bool   `yaml:"resting"`
	Frozen  bool   `yaml:"frozen,omitempty"`
}

type yamlReaction struct {
	Kind      string   `yaml:"kind"`
	Reactants []string `yaml:"reactants,flow"`
	Products  []string `yaml:"products,flow"`
	Rate      float64  `yaml:"rate"`
}

type yamlMacrostate struct {
	Name       string    `yaml:"name"`
	Complexes  []string  `yaml:"complexes,flow"`
	Stationary []float64 `yaml:"stationary,flow"`
	Resting    bool      `yaml:"resting"`
}

type yamlDoc struct {
	Run         string           `yaml:"run"`
	Complete    bool             `yaml:"complete"`
	Cutoffs     []string         `yaml:"cutoffs,omitempty"`
	Dropped     int64            `yaml:"dropped,omitempty"`
	Domains     []yamlDomain     `yaml:"domains"`
	Complexes   []yamlComplex    `yaml:"complexes"`
	Reactions   []yamlReaction   `yaml:"reactions"`
	Macrostates []yamlMacrostate `yaml:"macrostates,omitempty"`
	Condensed   []yamlReaction   `yaml:"condensed,omitempty"`
}

// WriteYAML writes net (and res, if given) as a single YAML document.
func WriteYAML(w io.Writer, net *libpepper.Network, res *condense.Result) error {
	doc := yamlDoc{
		Run:      net.RunID.String(),
		Complete: net.Complete,
		Dropped:  net.Dropped,
	}
	for _, rep := range net.Cutoffs {
		doc.Cutoffs = append(doc.Cutoffs, rep.String())
	}
	for _, d := range domainsOf(net) {
		doc.Domains = append(doc.Domains, yamlDomain{Name: d.Name(), Length: d.Len()})
	}

	resting := make(map[*libpepper.Complex]bool, len(net.Resting))
	for _, X := range net.Resting {
		resting[X] = true
	}
	for _, X := range net.Complexes {
		doc.Complexes = append(doc.Complexes, yamlComplex{
			Name:    X.String(),
			Kernel:  X.KernelString(),
			Resting: resting[X],
			Frozen:  net.IsFrozen(X),
		})
	}
	for _, rxn := range net.Reactions {
		doc.Reactions = append(doc.Reactions, yamlReaction{
			Kind:      rxn.Label(),
			Reactants: complexNames(rxn.Reactants),
			Products:  complexNames(rxn.Products),
			Rate:      rxn.Rate,
		})
	}

	if res != nil {
		for _, ms := range res.Macrostates {
			doc.Macrostates = append(doc.Macrostates, yamlMacrostate{
				Name:       ms.Name,
				Complexes:  complexNames(ms.Complexes),
				Stationary: ms.Stationary,
				Resting:    ms.Resting,
			})
		}
		for _, rxn := range res.Reactions {
			doc.Condensed = append(doc.Condensed, yamlReaction{
				Kind:      "condensed",
				Reactants: macrostateNames(rxn.Reactants),
				Products:  macrostateNames(rxn.Products),
				Rate:      rxn.Rate,
			})
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return err
	}
	return enc.Close()
}

type printer struct {
	w   io.Writer
	err error
}

func (pw *printer) printf(format string, args ...interface{}) {
	if pw.err == nil {
		_, pw.err = fmt.Fprintf(pw.w, format, args...)
	}
}

func (pw *printer) complex(X *libpepper.Complex, concs map[string]*Concentration) {
	if conc := concs[X.Name()]; conc != nil {
		pw.printf("%s = %s @%s %g %s\n", X, X.KernelString(), conc.Mode, conc.Value, conc.Unit)
		return
	}
	pw.printf("%s = %s\n", X, X.KernelString())
}

// domainsOf returns the unstarred domains of net in natural name order.
func domainsOf(net *libpepper.Network) []*libpepper.Domain {
	if net.Domains != nil {
		return net.Domains.SortedDomains()
	}
	seen := make(map[*libpepper.Domain]bool)
	var doms []*libpepper.Domain
	for _, X := range net.Complexes {
		for _, s := range X.Strands() {
			for _, d := range s.Domains() {
				if d.IsComplement() {
					d = d.Complement()
				}
				if !seen[d] {
					seen[d] = true
					doms = append(doms, d)
				}
			}
		}
	}
	sort.SliceStable(doms, func(i, j int) bool {
		return natural.Less(doms[i].Name(), doms[j].Name())
	})
	return doms
}

func sortedCopy(cs []*libpepper.Complex) []*libpepper.Complex {
	out := append([]*libpepper.Complex(nil), cs...)
	libpepper.SortByName(out)
	return out
}

// sortedReactions orders reactions by label, then reactant and product names.
func sortedReactions(rxns []*libpepper.Reaction) []*libpepper.Reaction {
	out := append([]*libpepper.Reaction(nil), rxns...)
	key := func(rxn *libpepper.Reaction) string {
		return strings.Join(complexNames(rxn.Reactants), " + ") + " -> " + strings.Join(complexNames(rxn.Products), " + ")
	}
	sort.SliceStable(out, func(i, j int) bool {
		if li, lj := out[i].Label(), out[j].Label(); li != lj {
			return li < lj
		}
		return natural.Less(key(out[i]), key(out[j]))
	})
	return out
}

func complexNames(cs []*libpepper.Complex) []string {
	names := make([]string, len(cs))
	for i, X := range cs {
		names[i] = X.String()
	}
	return names
}

func macrostateNames(ms []*condense.Macrostate) []string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return names
}
