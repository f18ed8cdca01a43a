package libpepper

import (
	"github.com/2x3systems/peppercorn/pepper"
	"github.com/google/uuid"
)

// Network is a detailed reaction graph: every discovered complex and elementary reaction.
//
// A Network returned by an Enumerator is read-only.
type Network struct {
	RunID     uuid.UUID
	Domains   *DomainTable
	Seeds     []*Complex
	Complexes []*Complex  // discovery order
	Reactions []*Reaction // discovery order
	Resting   []*Complex  // complexes in terminal fast-reaction components (frozen complexes included)
	Transient []*Complex
	Frozen    []*Complex // recorded but never expanded
	KFast     float64
	Complete  bool                  // false if any cutoff was hit
	Cutoffs   []pepper.CutoffReport // completeness warnings
	Dropped   int64                 // reactions dropped because the rate model failed

	index  map[*Complex]int
	frozen map[*Complex]bool
}

// NewNetwork assembles a network from existing complexes and reactions (e.g. a reaction list read from a file).
// Reactant and product complexes missing from complexes are appended.
func NewNetwork(complexes []*Complex, reactions []*Reaction, kFast float64) *Network {
	net := &Network{
		RunID:    uuid.New(),
		KFast:    kFast,
		Complete: true,
	}
	for _, X := range complexes {
		net.addComplex(X)
	}
	for _, rxn := range reactions {
		for _, X := range rxn.Reactants {
			net.addComplex(X)
		}
		for _, X := range rxn.Products {
			net.addComplex(X)
		}
		net.Reactions = append(net.Reactions, rxn)
	}
	return net
}

func (net *Network) addComplex(X *Complex) int {
	if net.index == nil {
		net.index = make(map[*Complex]int)
	}
	if i, exists := net.index[X]; exists {
		return i
	}
	i := len(net.Complexes)
	net.index[X] = i
	net.Complexes = append(net.Complexes, X)
	return i
}

func (net *Network) markFrozen(X *Complex) {
	if net.frozen == nil {
		net.frozen = make(map[*Complex]bool)
	}
	net.frozen[X] = true
	net.Frozen = append(net.Frozen, X)
}

// IndexOf returns the discovery index of X.
func (net *Network) IndexOf(X *Complex) (int, bool) {
	i, ok := net.index[X]
	return i, ok
}

// IsFrozen returns true if X was recorded but not expanded.
func (net *Network) IsFrozen(X *Complex) bool {
	return net.frozen[X]
}

// Lookup returns the complex with the given name.
func (net *Network) Lookup(name string) (*Complex, bool) {
	for _, X := range net.Complexes {
		if X.name == name {
			return X, true
		}
	}
	return nil, false
}

// ReactionsOf returns the reactions having X as a reactant.
func (net *Network) ReactionsOf(X *Complex) []*Reaction {
	var out []*Reaction
	for _, rxn := range net.Reactions {
		for _, Xi := range rxn.Reactants {
			if Xi == X {
				out = append(out, rxn)
				break
			}
		}
	}
	return out
}
