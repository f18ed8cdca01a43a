// Package condense reduces a detailed reaction network to reactions between resting macrostates.
package condense

import (
	"context"
	"runtime"
	"strings"

	"github.com/2x3systems/peppercorn/libpepper"
	"github.com/2x3systems/peppercorn/pepper"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// MacrostatePrefix prefixes macrostate names.
const MacrostatePrefix = "r"

// Opts configures condensation.
type Opts struct {
	Workers int // concurrent stationary solves; 0 means GOMAXPROCS
}

// Macrostate is a strongly connected component of the fast unimolecular reaction graph.
type Macrostate struct {
	Name       string
	Complexes  []*libpepper.Complex // natural name order
	Stationary []float64            // aligned with Complexes, sums to 1
	Resting    bool                 // no fast reaction leaves the component

	index int // emission order
}

func (ms *Macrostate) String() string {
	return ms.Name
}

// Representative returns the first member in natural name order.
func (ms *Macrostate) Representative() *libpepper.Complex {
	return ms.Complexes[0]
}

// StationaryOf returns the stationary probability of X within the macrostate (0 if X is not a member).
func (ms *Macrostate) StationaryOf(X *libpepper.Complex) float64 {
	for i, Xi := range ms.Complexes {
		if Xi == X {
			return ms.Stationary[i]
		}
	}
	return 0
}

// Reaction is a condensed reaction between resting macrostates.
type Reaction struct {
	Reactants []*Macrostate // sorted by name
	Products  []*Macrostate // sorted by name
	Rate      float64
}

func (rxn *Reaction) Arity() int {
	return len(rxn.Reactants)
}

func (rxn *Reaction) String() string {
	return multisetKey(rxn.Reactants) + " -> " + multisetKey(rxn.Products)
}

// Result is a condensed network.
type Result struct {
	Network     *libpepper.Network
	Macrostates []*Macrostate // every SCC, by name
	Resting     []*Macrostate // resting macrostates, by name
	Reactions   []*Reaction   // sorted by reactants then products

	of    map[*libpepper.Complex]*Macrostate
	fates map[*libpepper.Complex][]Fate
}

// MacrostateOf returns the macrostate containing X.
func (res *Result) MacrostateOf(X *libpepper.Complex) (*Macrostate, bool) {
	ms, ok := res.of[X]
	return ms, ok
}

// Fates returns the distribution of resting macrostate multisets X eventually reaches through fast reactions.
func (res *Result) Fates(X *libpepper.Complex) []Fate {
	return res.fates[X]
}

// Lookup returns the macrostate with the given name.
func (res *Result) Lookup(name string) (*Macrostate, bool) {
	for _, ms := range res.Macrostates {
		if ms.Name == name {
			return ms, true
		}
	}
	return nil, false
}

// condenser holds the working state of one Condense call.
type condenser struct {
	net     *libpepper.Network
	nodes   []*libpepper.Complex
	index   map[*libpepper.Complex]int
	fast    [][]*libpepper.Reaction // fast reactions by reactant node
	sccOf   []int
	sccs    []*Macrostate
	members [][]int
	fates   []fateDist
}

// Condense partitions net into macrostates and computes the condensed reactions between resting ones.
func Condense(ctx context.Context, net *libpepper.Network, opts Opts) (*Result, error) {
	cn := &condenser{
		net:   net,
		nodes: net.Complexes,
		index: make(map[*libpepper.Complex]int, len(net.Complexes)),
	}
	for i, X := range cn.nodes {
		cn.index[X] = i
	}

	if err := cn.partition(); err != nil {
		return nil, err
	}
	if err := cn.solveStationary(ctx, opts); err != nil {
		return nil, err
	}
	if err := cn.computeFates(); err != nil {
		return nil, err
	}

	res := &Result{
		Network: net,
		of:      make(map[*libpepper.Complex]*Macrostate, len(cn.nodes)),
		fates:   make(map[*libpepper.Complex][]Fate, len(cn.nodes)),
	}
	for v, X := range cn.nodes {
		res.of[X] = cn.sccs[cn.sccOf[v]]
		res.fates[X] = cn.fates[v].list()
	}
	res.Macrostates = append(res.Macrostates, cn.sccs...)
	sortMacrostates(res.Macrostates)
	for _, ms := range res.Macrostates {
		if ms.Resting {
			res.Resting = append(res.Resting, ms)
		}
	}

	res.Reactions = cn.condense()
	klog.V(1).Infof("condensed %d complexes into %d resting macrostates and %d reactions",
		len(cn.nodes), len(res.Resting), len(res.Reactions))
	return res, nil
}

// partition builds the fast graph and its strongly connected components.
func (cn *condenser) partition() error {
	cn.fast = make([][]*libpepper.Reaction, len(cn.nodes))
	for _, rxn := range cn.net.Reactions {
		if !rxn.IsFast(cn.net.KFast) {
			continue
		}
		v, ok := cn.index[rxn.Reactants[0]]
		if !ok {
			return errors.Errorf("reaction %v has an unknown reactant", rxn)
		}
		for _, P := range rxn.Products {
			if _, ok := cn.index[P]; !ok {
				return errors.Errorf("reaction %v has an unknown product", rxn)
			}
		}
		cn.fast[v] = append(cn.fast[v], rxn)
	}

	succ := func(v int) []int {
		var out []int
		for _, rxn := range cn.fast[v] {
			for _, P := range rxn.Products {
				out = append(out, cn.index[P])
			}
		}
		return out
	}

	components := libpepper.StronglyConnected(len(cn.nodes), succ)
	cn.sccOf = make([]int, len(cn.nodes))
	cn.sccs = make([]*Macrostate, len(components))
	cn.members = make([][]int, len(components))
	for si, comp := range components {
		for _, v := range comp {
			cn.sccOf[v] = si
		}
	}

	for si, comp := range components {
		members := append([]int(nil), comp...)
		sortNodes(cn.nodes, members)
		cn.members[si] = members

		ms := &Macrostate{
			Resting: true,
			index:   si,
		}
		for _, v := range members {
			ms.Complexes = append(ms.Complexes, cn.nodes[v])
			for _, rxn := range cn.fast[v] {
				for _, P := range rxn.Products {
					if cn.sccOf[cn.index[P]] != si {
						ms.Resting = false
					}
				}
			}
		}
		ms.Name = MacrostatePrefix + ms.Complexes[0].String()
		cn.sccs[si] = ms
	}
	return nil
}

// solveStationary computes the stationary distribution of every macrostate.
func (cn *condenser) solveStationary(ctx context.Context, opts Opts) error {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)

	for si := range cn.sccs {
		si := si
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pi, err := cn.stationary(si)
			if err != nil {
				return err
			}
			cn.sccs[si].Stationary = pi
			return nil
		})
	}
	return grp.Wait()
}

// stationary solves πQ = 0, Σπ = 1 over the fast reactions internal to component si.
func (cn *condenser) stationary(si int) ([]float64, error) {
	members := cn.members[si]
	m := len(members)
	if m == 1 {
		return []float64{1}, nil
	}
	local := make(map[int]int, m)
	for i, v := range members {
		local[v] = i
	}

	// A = Qᵀ with the last equation replaced by normalization.
	A := mat.NewDense(m, m, nil)
	for i, v := range members {
		for _, rxn := range cn.fast[v] {
			if len(rxn.Products) != 1 {
				continue
			}
			j, inside := local[cn.index[rxn.Products[0]]]
			if !inside {
				continue
			}
			A.Set(j, i, A.At(j, i)+rxn.Rate)
			A.Set(i, i, A.At(i, i)-rxn.Rate)
		}
	}
	for i := 0; i < m; i++ {
		A.Set(m-1, i, 1)
	}
	B := mat.NewDense(m, 1, nil)
	B.Set(m-1, 0, 1)

	X, err := solve(A, B)
	if err != nil {
		klog.V(2).Infof("macrostate %s: %v", cn.sccs[si].Name, err)
		return nil, &pepper.ConsistencyError{
			Macrostate: cn.sccs[si].Name,
			Detail:     "singular fast-reaction generator",
		}
	}
	pi := make([]float64, m)
	for i := range pi {
		pi[i] = X.At(i, 0)
		if pi[i] < 0 {
			if pi[i] < -probEpsilon {
				return nil, &pepper.ConsistencyError{
					Macrostate: cn.sccs[si].Name,
					Detail:     "negative stationary probability",
				}
			}
			pi[i] = 0
		}
	}
	return pi, nil
}

// condense aggregates every slow reaction between resting complexes into condensed reactions.
func (cn *condenser) condense() []*Reaction {
	merged := redblacktree.NewWithStringComparator()

	for _, rxn := range cn.net.Reactions {
		if rxn.IsFast(cn.net.KFast) {
			continue
		}
		weight := rxn.Rate
		reactants := make([]*Macrostate, 0, len(rxn.Reactants))
		products := fateDist{}
		products.addOutcome(nil, 1)
		resting := true
		for _, R := range rxn.Reactants {
			v := cn.index[R]
			ms := cn.sccs[cn.sccOf[v]]
			if !ms.Resting {
				resting = false
				break
			}
			reactants = append(reactants, ms)
			weight *= ms.Stationary[memberIndex(cn.members[ms.index], v)]
		}
		if !resting {
			klog.V(2).Infof("skipping slow reaction %v: a reactant is transient", rxn)
			continue
		}
		for _, P := range rxn.Products {
			products = products.combine(cn.fates[cn.index[P]])
		}
		sortMacrostates(reactants)
		reactantKey := multisetKey(reactants)

		for _, fate := range products.list() {
			productKey := multisetKey(fate.Macrostates)
			if productKey == reactantKey {
				continue
			}
			key := reactantKey + " -> " + productKey
			if val, found := merged.Get(key); found {
				val.(*Reaction).Rate += weight * fate.Prob
				continue
			}
			merged.Put(key, &Reaction{
				Reactants: reactants,
				Products:  fate.Macrostates,
				Rate:      weight * fate.Prob,
			})
		}
	}

	out := make([]*Reaction, 0, merged.Size())
	for it := merged.Iterator(); it.Next(); {
		out = append(out, it.Value().(*Reaction))
	}
	return out
}

func memberIndex(members []int, v int) int {
	for i, w := range members {
		if w == v {
			return i
		}
	}
	return -1
}

func multisetKey(ms []*Macrostate) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Name
	}
	return strings.Join(names, " + ")
}
