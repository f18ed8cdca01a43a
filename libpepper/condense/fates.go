package condense

import (
	"sort"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/2x3systems/peppercorn/pepper"
	"github.com/maruel/natural"
	"gonum.org/v1/gonum/mat"
)

// fateEpsilon is the smallest fate probability kept.
const fateEpsilon = 1e-15

// Fate is one multiset of resting macrostates a complex can end up in, with its probability.
type Fate struct {
	Macrostates []*Macrostate // sorted by name
	Prob        float64
}

func (f Fate) String() string {
	return multisetKey(f.Macrostates)
}

// fateDist maps multiset keys to fates.
type fateDist map[string]*Fate

func (d fateDist) addOutcome(ms []*Macrostate, p float64) {
	key := multisetKey(ms)
	if f := d[key]; f != nil {
		f.Prob += p
		return
	}
	d[key] = &Fate{
		Macrostates: ms,
		Prob:        p,
	}
}

// combine returns the distribution of the union of independent outcomes from d and other.
func (d fateDist) combine(other fateDist) fateDist {
	out := make(fateDist, len(d)*len(other))
	for _, a := range d {
		for _, b := range other {
			out.addOutcome(mergeMacrostates(a.Macrostates, b.Macrostates), a.Prob*b.Prob)
		}
	}
	return out
}

// list returns the fates sorted by multiset.
func (d fateDist) list() []Fate {
	keys := make([]string, 0, len(d))
	for key := range d {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]Fate, len(keys))
	for i, key := range keys {
		out[i] = *d[key]
	}
	return out
}

func mergeMacrostates(a, b []*Macrostate) []*Macrostate {
	out := make([]*Macrostate, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if macrostateLess(b[j], a[i]) {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

func macrostateLess(a, b *Macrostate) bool {
	return natural.Less(a.Name, b.Name)
}

func sortMacrostates(ms []*Macrostate) {
	sort.SliceStable(ms, func(i, j int) bool {
		return macrostateLess(ms[i], ms[j])
	})
}

// sortNodes orders node indexes by the natural order of their complex names.
func sortNodes(nodes []*libpepper.Complex, idx []int) {
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := nodes[idx[i]], nodes[idx[j]]
		if an, bn := a.String(), b.String(); an != bn {
			return natural.Less(an, bn)
		}
		return a.Key() < b.Key()
	})
}

// computeFates assigns every complex its absorption distribution over resting macrostate multisets.
// Components are visited in emission order, so the fates of every component a component reaches are already known.
func (cn *condenser) computeFates() error {
	cn.fates = make([]fateDist, len(cn.nodes))

	for si, ms := range cn.sccs {
		members := cn.members[si]
		if ms.Resting {
			for _, v := range members {
				cn.fates[v] = fateDist{}
				cn.fates[v].addOutcome([]*Macrostate{ms}, 1)
			}
			continue
		}
		if err := cn.transientFates(si); err != nil {
			return err
		}
	}
	return nil
}

// transientFates solves (I - P) F = E for the members of transient component si,
// where P holds the branching probabilities of internal reactions and E the fates reached by leaving reactions.
func (cn *condenser) transientFates(si int) error {
	members := cn.members[si]
	m := len(members)
	local := make(map[int]int, m)
	for i, v := range members {
		local[v] = i
	}

	A := mat.NewDense(m, m, nil)
	exits := make([]fateDist, m)
	outcomes := fateDist{}

	for i, v := range members {
		A.Set(i, i, 1)
		exits[i] = fateDist{}

		total := 0.0
		for _, rxn := range cn.fast[v] {
			total += rxn.Rate
		}
		for _, rxn := range cn.fast[v] {
			p := rxn.Rate / total
			if len(rxn.Products) == 1 {
				if j, inside := local[cn.index[rxn.Products[0]]]; inside {
					A.Set(i, j, A.At(i, j)-p)
					continue
				}
			}

			dist := fateDist{}
			dist.addOutcome(nil, 1)
			for _, P := range rxn.Products {
				w := cn.index[P]
				if cn.sccOf[w] == si {
					return &pepper.ConsistencyError{
						Macrostate: cn.sccs[si].Name,
						Detail:     "reaction " + rxn.String() + " splits into its own component",
					}
				}
				dist = dist.combine(cn.fates[w])
			}
			for key, f := range dist {
				exits[i].addOutcome(f.Macrostates, p*f.Prob)
				if outcomes[key] == nil {
					outcomes.addOutcome(f.Macrostates, 0)
				}
			}
		}
	}

	cols := outcomes.list()
	if len(cols) == 0 {
		return &pepper.ConsistencyError{
			Macrostate: cn.sccs[si].Name,
			Detail:     "no exit from a transient component",
		}
	}
	colOf := make(map[string]int, len(cols))
	for c, f := range cols {
		colOf[f.String()] = c
	}
	B := mat.NewDense(m, len(cols), nil)
	for i := range members {
		for key, f := range exits[i] {
			B.Set(i, colOf[key], f.Prob)
		}
	}

	X, err := solve(A, B)
	if err != nil {
		return &pepper.ConsistencyError{
			Macrostate: cn.sccs[si].Name,
			Detail:     "no exit from a transient component",
		}
	}
	for i, v := range members {
		cn.fates[v] = fateDist{}
		for c, f := range cols {
			if p := X.At(i, c); p > fateEpsilon {
				cn.fates[v].addOutcome(f.Macrostates, p)
			}
		}
	}
	return nil
}
