package libpepper

import (
	"sync/atomic"

	"github.com/2x3systems/peppercorn/pepper"
	"github.com/plan-systems/klog"
)

// uniRule enumerates every unimolecular move of one kind from X.
type uniRule func(rs *RuleSet, X *Complex, out *reactionSet)

// uniRules has exactly one handler per reaction kind.
var uniRules = [pepper.NumKinds]uniRule{
	pepper.Bind:          bind11,
	pepper.Unbind:        openPairs,
	pepper.ThreeWay:      branch3way,
	pepper.FourWay:       branch4way,
	pepper.RemoteToehold: branchRemote,
}

// RuleSet applies the domain-level reaction rules.
//
// Products equal to a complex already in the store resolve to the stored complex; new products are not interned.
type RuleSet struct {
	opts     pepper.EnumOpts
	store    ComplexStore
	metrics  *Metrics
	dropped  atomic.Int64
	rejected atomic.Int64
}

// NewRuleSet returns a RuleSet resolving products through store (which may be nil).
func NewRuleSet(store ComplexStore, opts pepper.EnumOpts, metrics *Metrics) *RuleSet {
	if opts.Rates == nil {
		opts.Rates = pepper.DefaultRates
	}
	return &RuleSet{
		opts:    opts,
		store:   store,
		metrics: metrics,
	}
}

// Dropped returns the number of reactions dropped because the rate model failed.
func (rs *RuleSet) Dropped() int64 {
	return rs.dropped.Load()
}

// Rejected returns the number of candidate moves that did not yield valid complexes.
func (rs *RuleSet) Rejected() int64 {
	return rs.rejected.Load()
}

// Apply returns the unimolecular reactions of the given kind from X with rate above KSlow.
func (rs *RuleSet) Apply(kind pepper.Kind, X *Complex) []*Reaction {
	out := newReactionSet()
	if rule := uniRules[kind]; rule != nil {
		rule(rs, X, out)
	}
	return out.list()
}

// Unimolecular returns all unimolecular reactions from X with rate above KSlow.
func (rs *RuleSet) Unimolecular(X *Complex) []*Reaction {
	out := newReactionSet()
	for _, rule := range uniRules {
		rule(rs, X, out)
	}
	return out.list()
}

// Bimolecular returns every bind between an exterior unpaired domain of A and one of B.
// A and B may be the same complex, denoting two copies of one species.
func (rs *RuleSet) Bimolecular(A, B *Complex) []*Reaction {
	out := newReactionSet()
	bind21(rs, A, B, out)
	return out.list()
}

func (rs *RuleSet) reject(err error) {
	rs.rejected.Add(1)
	rs.metrics.moveRejected()
	klog.V(4).Infof("discarded move: %v", err)
}

// emit rates a move and adds the resulting reaction to out.
func (rs *RuleSet) emit(out *reactionSet, reactants, products []*Complex, move pepper.Move) {
	k, err := pepper.CheckedRate(rs.opts.Rates, &move)
	if err != nil {
		rs.dropped.Add(1)
		rs.metrics.reactionDropped()
		klog.Warningf("dropping %v reaction from %v: %v", move.Kind.Label(move.Arity), reactants, err)
		return
	}
	if k <= rs.opts.KSlow {
		return
	}

	if rs.store != nil {
		for i, X := range products {
			if known, ok := rs.store.Lookup(X.key); ok {
				products[i] = known
			}
		}
	}

	rxn := NewReaction(move.Kind, reactants, products, k)
	rxn.Move = move
	out.add(rxn)
}

// exteriorFree returns the unpaired positions not enclosed by any pair of the layout.
func (lay *Layout) exteriorFree() []int {
	var free []int
	depth := 0
	for p, q := range lay.pt {
		switch {
		case q < 0:
			if depth == 0 {
				free = append(free, p)
			}
		case q > p:
			depth++
		default:
			depth--
		}
	}
	return free
}

// join concatenates two layouts and pairs position a of A with position b of B.
func join(A, B *Layout, a, b int) *Layout {
	NA := len(A.pt)
	strands := make([]*Strand, 0, len(A.strands)+len(B.strands))
	strands = append(strands, A.strands...)
	strands = append(strands, B.strands...)

	pt := make([]int, 0, NA+len(B.pt))
	pt = append(pt, A.pt...)
	for _, q := range B.pt {
		if q >= 0 {
			q += NA
		}
		pt = append(pt, q)
	}
	pt[a] = NA + b
	pt[NA+b] = a
	return newLayout(strands, pt)
}

func bind21(rs *RuleSet, A, B *Complex, out *reactionSet) {
	rotsB := B.Rotations()
	extB := make([][]int, len(rotsB))
	for k, rb := range rotsB {
		extB[k] = rb.exteriorFree()
	}

	for _, ra := range A.Rotations() {
		extA := ra.exteriorFree()
		for k, rb := range rotsB {
			for _, a := range extA {
				da := ra.doms[a]
				for _, b := range extB[k] {
					if !da.Pairs(rb.doms[b]) {
						continue
					}
					joined := join(ra, rb, a, b)
					lengths := []int{da.length}
					if rs.opts.MaxHelix {
						lengths = append(lengths, joined.zip(joined.pt, a, len(ra.pt)+b)...)
					}
					X, err := newComplexFromLayout(joined)
					if err != nil {
						rs.reject(err)
						continue
					}
					rs.emit(out, []*Complex{A, B}, []*Complex{X}, pepper.Move{
						Kind:    pepper.Bind,
						Arity:   2,
						Lengths: lengths,
					})
				}
			}
		}
	}
}

func bind11(rs *RuleSet, X *Complex, out *reactionSet) {
	lay := &X.Layout
	for _, loop := range X.Loops() {
		sites := loop.Sites
		for i, si := range sites {
			if si.Kind != SiteFree {
				continue
			}
			di := lay.doms[si.Pos]
			for j := i + 1; j < len(sites); j++ {
				sj := sites[j]
				if sj.Kind != SiteFree || !di.Pairs(lay.doms[sj.Pos]) {
					continue
				}
				p, q := si.Pos, sj.Pos
				if p > q {
					p, q = q, p
				}
				if lay.contiguous(p, q) {
					continue
				}
				pt := lay.PairTable()
				pt[p], pt[q] = q, p
				lengths := []int{di.length}
				if rs.opts.MaxHelix {
					lengths = append(lengths, lay.zip(pt, p, q)...)
				}
				products, err := lay.withPairTable(pt)
				if err != nil {
					rs.reject(err)
					continue
				}
				rs.emit(out, []*Complex{X}, products, pepper.Move{
					Kind:    pepper.Bind,
					Arity:   1,
					Lengths: lengths,
					Before:  loop.Segment(lay, i, j),
					After:   loop.Segment(lay, j, i),
				})
			}
		}
	}
}

// openPairs removes single pairs whose stacked helix is short enough to release.
// With MaxHelix set, the whole stacked helix is removed instead.
func openPairs(rs *RuleSet, X *Complex, out *reactionSet) {
	lay := &X.Layout
	for p, q := range lay.pt {
		if q <= p {
			continue
		}
		helix := lay.helixAround(p, q)
		if helix > rs.opts.ReleaseCutoff11 && helix > rs.opts.ReleaseCutoff1N {
			continue
		}
		opened := [][2]int{{p, q}}
		if rs.opts.MaxHelix {
			opened = lay.helixPairs(p, q)
			if opened[0][0] != p {
				continue
			}
		}

		pt := lay.PairTable()
		lengths := make([]int, 0, len(opened))
		for _, pair := range opened {
			pt[pair[0]], pt[pair[1]] = -1, -1
			lengths = append(lengths, lay.doms[pair[0]].length)
		}
		products, err := lay.withPairTable(pt)
		if err != nil {
			rs.reject(err)
			continue
		}
		cutoff := rs.opts.ReleaseCutoff11
		if len(products) > 1 {
			cutoff = rs.opts.ReleaseCutoff1N
		}
		if helix > cutoff {
			continue
		}
		rs.emit(out, []*Complex{X}, products, pepper.Move{
			Kind:    pepper.Unbind,
			Arity:   1,
			Lengths: lengths,
			Helix:   helix,
		})
	}
}
