package libpepper

import (
	"sort"
	"strings"

	"github.com/2x3systems/peppercorn/pepper"
)

// Reaction is an elementary domain-level reaction between whole complexes.
//
// Reactants and Products are multisets stored sorted by canonical key.
type Reaction struct {
	Kind      pepper.Kind
	Reactants []*Complex
	Products  []*Complex
	Rate      float64 // /s for unimolecular, /M/s for bimolecular
	Move      pepper.Move
}

// NewReaction builds a reaction with sorted reactant and product multisets.
func NewReaction(kind pepper.Kind, reactants, products []*Complex, rate float64) *Reaction {
	rxn := &Reaction{
		Kind:      kind,
		Reactants: sortComplexes(reactants),
		Products:  sortComplexes(products),
		Rate:      rate,
	}
	rxn.Move.Kind = kind
	rxn.Move.Arity = len(reactants)
	return rxn
}

func sortComplexes(in []*Complex) []*Complex {
	out := append([]*Complex(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].key < out[j].key
	})
	return out
}

// Arity returns the number of reactants.
func (rxn *Reaction) Arity() int {
	return len(rxn.Reactants)
}

// Label returns the reaction label, e.g. "bind21" or "branch-3way".
func (rxn *Reaction) Label() string {
	return rxn.Kind.Label(rxn.Arity())
}

// IsFast returns true for unimolecular reactions faster than kFast.
func (rxn *Reaction) IsFast(kFast float64) bool {
	return rxn.Arity() == 1 && rxn.Rate > kFast
}

// Key identifies a reaction by kind and its canonical reactant and product multisets.
func (rxn *Reaction) Key() string {
	b := strings.Builder{}
	b.WriteString(rxn.Kind.String())
	b.WriteByte('|')
	for i, X := range rxn.Reactants {
		if i > 0 {
			b.WriteString(" & ")
		}
		b.WriteString(X.key)
	}
	b.WriteString(" | ")
	for i, X := range rxn.Products {
		if i > 0 {
			b.WriteString(" & ")
		}
		b.WriteString(X.key)
	}
	return b.String()
}

// String renders the reaction as "[kind] A + B -> C".
func (rxn *Reaction) String() string {
	names := func(cs []*Complex) string {
		s := make([]string, len(cs))
		for i, X := range cs {
			s[i] = X.String()
		}
		return strings.Join(s, " + ")
	}
	return "[" + rxn.Label() + "] " + names(rxn.Reactants) + " -> " + names(rxn.Products)
}

// reactionSet collects reactions, keeping the fastest of duplicates.
type reactionSet struct {
	byKey map[string]*Reaction
	order []*Reaction
}

func newReactionSet() *reactionSet {
	return &reactionSet{
		byKey: make(map[string]*Reaction),
	}
}

func (set *reactionSet) add(rxn *Reaction) {
	key := rxn.Key()
	if prev, exists := set.byKey[key]; exists {
		if rxn.Rate > prev.Rate {
			prev.Rate = rxn.Rate
			prev.Move = rxn.Move
		}
		return
	}
	set.byKey[key] = rxn
	set.order = append(set.order, rxn)
}

func (set *reactionSet) list() []*Reaction {
	return set.order
}
