package libpepper

import (
	"context"
	"fmt"

	"github.com/2x3systems/peppercorn/pepper"
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/stacks/arraystack"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

// listing says which enumeration list a complex is in.
type listing byte

const (
	listedNone      listing = iota
	listedB                 // awaiting its neighborhood
	listedF                 // pending in the current neighborhood
	listedN                 // processed in the current neighborhood
	listedS                 // resting, awaiting slow reactions
	listedE                 // resting, fully expanded
	listedT                 // transient
	listedFrozen            // recorded but never expanded
)

type entry struct {
	X     *Complex
	list  listing
	steps int         // unimolecular steps from the nearest seed or bimolecular product
	fast  []*Reaction // fast unimolecular reactions from X
	slow  []*Reaction // slow unimolecular reactions from X
}

// Enumerator discovers the reaction network reachable from a set of seed complexes.
//
// An Enumerator is single use: add seeds then call Enumerate once.
type Enumerator struct {
	opts    pepper.EnumOpts
	store   ComplexStore
	rules   *RuleSet
	metrics *Metrics

	net     *Network
	entries map[*Complex]*entry
	rxns    *reactionSet
	halted  bool
	started bool

	B *arraystack.Stack
	S *linkedlistqueue.Queue
	E []*entry
}

// NewEnumerator validates opts and returns an Enumerator interning complexes into store.
// If store is nil, a new MemStore is used.  metrics may be nil.
func NewEnumerator(store ComplexStore, opts pepper.EnumOpts, metrics *Metrics) (*Enumerator, error) {
	if opts.Rates == nil {
		opts.Rates = pepper.DefaultRates
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		store = NewMemStore()
	}
	en := &Enumerator{
		opts:    opts,
		store:   store,
		rules:   NewRuleSet(store, opts, metrics),
		metrics: metrics,
		entries: make(map[*Complex]*entry),
		rxns:    newReactionSet(),
		B:       arraystack.New(),
		S:       linkedlistqueue.New(),
		net: &Network{
			RunID:    uuid.New(),
			KFast:    opts.KFast,
			Complete: true,
		},
	}
	return en, nil
}

// Store returns the complex store used by this enumerator.
func (en *Enumerator) Store() ComplexStore {
	return en.store
}

// SetDomains attaches the domain table to the resulting network.
func (en *Enumerator) SetDomains(domains *DomainTable) {
	en.net.Domains = domains
}

// AddSeed interns X under the given name ("" for an automatic name) and schedules it for expansion.
func (en *Enumerator) AddSeed(X *Complex, name string) *Complex {
	el := en.discover(X, name, 0)
	for _, seed := range en.net.Seeds {
		if seed == el.X {
			return el.X
		}
	}
	en.net.Seeds = append(en.net.Seeds, el.X)
	if el.list == listedNone {
		el.list = listedB
		en.B.Push(el)
	}
	return el.X
}

// Enumerate expands every seed and returns the detailed network.
//
// Cutoffs never fail the call: they are reported in Network.Cutoffs and clear Network.Complete.
func (en *Enumerator) Enumerate(ctx context.Context) (*Network, error) {
	if en.started {
		return nil, errors.New("enumerator already used")
	}
	en.started = true

	klog.V(1).Infof("enumerating from %d seed complexes (run %v)", len(en.net.Seeds), en.net.RunID)

	if err := en.drainB(ctx); err != nil {
		return nil, err
	}

	for !en.S.Empty() {
		val, _ := en.S.Dequeue()
		el := val.(*entry)

		if en.halted {
			el.list = listedE
			en.E = append(en.E, el)
			continue
		}

		var slow []*Reaction
		slow = append(slow, el.slow...)
		slow = append(slow, en.rules.Bimolecular(el.X, el.X)...)
		for _, partner := range en.E {
			slow = append(slow, en.rules.Bimolecular(el.X, partner.X)...)
		}
		el.list = listedE
		en.E = append(en.E, el)

		for _, rxn := range slow {
			en.acceptReaction(rxn, func(P *entry) {
				if P.list == listedNone {
					P.list = listedB
					en.B.Push(P)
				}
			}, 0)
		}

		if err := en.drainB(ctx); err != nil {
			return nil, err
		}
	}

	return en.finish(), nil
}

func (en *Enumerator) drainB(ctx context.Context) error {
	for !en.B.Empty() {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "enumeration interrupted")
		}
		val, _ := en.B.Pop()
		el := val.(*entry)
		if el.list != listedB {
			continue
		}
		en.processNeighborhood(el)
	}
	return nil
}

// discover interns X and returns its entry, creating one on first sight.
func (en *Enumerator) discover(X *Complex, name string, steps int) *entry {
	canon, added := en.store.Intern(X, name)
	el := en.entries[canon]
	if el == nil {
		el = &entry{
			X:     canon,
			steps: steps,
		}
		en.entries[canon] = el
		en.net.addComplex(canon)
		en.metrics.complexAdded()
		if added {
			klog.V(3).Infof("new complex %s = %s", canon.name, canon.key)
		}
		en.checkLimits()
	}
	return el
}

// acceptReaction interns the products of rxn, records it, and calls onProduct for each product entry.
func (en *Enumerator) acceptReaction(rxn *Reaction, onProduct func(P *entry), steps int) {
	for i, P := range rxn.Products {
		el := en.discover(P, "", steps)
		rxn.Products[i] = el.X
		onProduct(el)
	}
	for i, R := range rxn.Reactants {
		rxn.Reactants[i] = en.entries[R].X
	}
	before := len(en.rxns.order)
	en.rxns.add(rxn)
	if len(en.rxns.order) > before {
		en.metrics.reactionAdded(rxn)
		en.checkLimits()
	}
}

func (en *Enumerator) checkLimits() {
	if en.halted {
		return
	}
	switch {
	case len(en.entries) > en.opts.MaxComplexCount:
		en.halt(pepper.CutoffComplexCount, fmt.Sprintf("more than %d complexes", en.opts.MaxComplexCount))
	case len(en.rxns.order) > en.opts.MaxReactionCount:
		en.halt(pepper.CutoffReactionCount, fmt.Sprintf("more than %d reactions", en.opts.MaxReactionCount))
	}
}

func (en *Enumerator) halt(c pepper.Cutoff, detail string) {
	en.halted = true
	en.report(pepper.CutoffReport{Cutoff: c, Detail: detail})
}

func (en *Enumerator) report(rep pepper.CutoffReport) {
	klog.Warningf("enumeration cutoff: %v", rep)
	en.metrics.cutoffHit(rep.Cutoff)
	en.net.Cutoffs = append(en.net.Cutoffs, rep)
	en.net.Complete = false
}

// freezeReason returns the cutoff preventing el from being expanded, if any.
func (en *Enumerator) freezeReason(el *entry) (pepper.Cutoff, string) {
	switch {
	case en.halted:
		return pepper.CutoffComplexCount, ""
	case el.X.Size() > en.opts.MaxComplexSize:
		return pepper.CutoffComplexSize, fmt.Sprintf("%d strands", el.X.Size())
	case el.steps >= en.opts.MaxUnimolecularSteps:
		return pepper.CutoffUnimolecularSteps, fmt.Sprintf("%d steps", el.steps)
	}
	return 0, ""
}

// processNeighborhood expands the fast unimolecular closure of source and partitions it into resting and transient complexes.
func (en *Enumerator) processNeighborhood(source *entry) {
	F := arraystack.New()
	source.list = listedF
	F.Push(source)

	var N []*entry
	for !F.Empty() {
		val, _ := F.Pop()
		el := val.(*entry)
		el.list = listedN
		N = append(N, el)

		if cutoff, detail := en.freezeReason(el); cutoff != 0 {
			el.fast, el.slow = nil, nil
			en.net.markFrozen(el.X)
			if !en.halted {
				en.report(pepper.CutoffReport{Cutoff: cutoff, Complex: el.X.String(), Detail: detail})
			}
			continue
		}

		for _, rxn := range en.rules.Unimolecular(el.X) {
			if rxn.IsFast(en.opts.KFast) {
				el.fast = append(el.fast, rxn)
			} else {
				el.slow = append(el.slow, rxn)
			}
		}
		for _, rxn := range el.fast {
			en.acceptReaction(rxn, func(P *entry) {
				switch P.list {
				case listedNone, listedB:
					P.list = listedF
					F.Push(P)
				}
			}, el.steps+1)
		}
	}

	en.segment(N)
	klog.V(2).Infof("neighborhood of %v: %d complexes, %d reactions so far", source.X, len(N), len(en.rxns.order))
}

// segment splits a finished neighborhood into resting and transient complexes.
// A component of the fast graph is resting iff no fast reaction leaves it.
func (en *Enumerator) segment(N []*entry) {
	local := make(map[*entry]int, len(N))
	for i, el := range N {
		local[el] = i
	}
	succ := func(v int) []int {
		var out []int
		for _, rxn := range N[v].fast {
			for _, P := range rxn.Products {
				if w, ok := local[en.entries[P]]; ok {
					out = append(out, w)
				}
			}
		}
		return out
	}

	for _, scc := range StronglyConnected(len(N), succ) {
		inSCC := make(map[*Complex]bool, len(scc))
		for _, v := range scc {
			inSCC[N[v].X] = true
		}
		resting := true
		for _, v := range scc {
			for _, rxn := range N[v].fast {
				for _, P := range rxn.Products {
					if !inSCC[P] {
						resting = false
					}
				}
			}
		}

		for _, v := range scc {
			el := N[v]
			switch {
			case en.net.IsFrozen(el.X):
				el.list = listedFrozen
			case resting:
				el.list = listedS
				en.S.Enqueue(el)
			default:
				el.list = listedT
				el.slow = nil
			}
		}
	}
}

// finish assembles the network once no work remains.
func (en *Enumerator) finish() *Network {
	net := en.net
	net.Reactions = en.rxns.list()
	net.Dropped = en.rules.Dropped()
	net.Resting = net.Resting[:0]
	net.Transient = net.Transient[:0]

	for _, X := range net.Complexes {
		el := en.entries[X]
		switch el.list {
		case listedE, listedFrozen:
			net.Resting = append(net.Resting, X)
		case listedT:
			net.Transient = append(net.Transient, X)
		default:
			// never reached by a neighborhood, only possible after a halt
			el.list = listedFrozen
			net.markFrozen(X)
			net.Resting = append(net.Resting, X)
		}
	}
	en.metrics.setPartition(len(net.Resting), len(net.Transient))

	klog.V(1).Infof("enumerated %d complexes (%d resting, %d transient) and %d reactions",
		len(net.Complexes), len(net.Resting), len(net.Transient), len(net.Reactions))
	return net
}

// Enumerate is a convenience wrapper running a fresh Enumerator over seeds in a new MemStore.
// Seeds keep names already assigned to them.
func Enumerate(ctx context.Context, seeds []*Complex, opts pepper.EnumOpts) (*Network, error) {
	en, err := NewEnumerator(nil, opts, nil)
	if err != nil {
		return nil, err
	}
	for _, X := range seeds {
		en.AddSeed(X, X.name)
	}
	return en.Enumerate(ctx)
}
