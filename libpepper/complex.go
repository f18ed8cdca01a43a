package libpepper

import (
	"strings"
	"sync"

	"github.com/2x3systems/peppercorn/pepper"
)

// Loc addresses a domain instance by strand index and domain index within a complex.
type Loc struct {
	Strand int
	Domain int
}

// PairLoc is a base-paired pair of domain instances.
type PairLoc struct {
	A, B Loc
}

// Layout is one rotation of a complex: a strand order and a flat pair table over it.
//
// Positions are numbered 0..N-1 through the strands in order; Pairs[i] is the position paired with i, or -1.
type Layout struct {
	strands  []*Strand
	pt       []int
	doms     []*Domain
	strandOf []int
	starts   []int // len(strands)+1 offsets
}

func newLayout(strands []*Strand, pt []int) *Layout {
	lay := &Layout{
		strands: strands,
		pt:      pt,
		starts:  make([]int, len(strands)+1),
	}
	N := 0
	for si, s := range strands {
		lay.starts[si] = N
		N += s.Len()
	}
	lay.starts[len(strands)] = N

	lay.doms = make([]*Domain, 0, N)
	lay.strandOf = make([]int, 0, N)
	for si, s := range strands {
		for _, d := range s.domains {
			lay.doms = append(lay.doms, d)
			lay.strandOf = append(lay.strandOf, si)
		}
	}
	return lay
}

// Len returns the number of domain positions.
func (lay *Layout) Len() int {
	return len(lay.doms)
}

// Size returns the number of strands.
func (lay *Layout) Size() int {
	return len(lay.strands)
}

func (lay *Layout) Strands() []*Strand {
	return lay.strands
}

func (lay *Layout) DomainAt(pos int) *Domain {
	return lay.doms[pos]
}

func (lay *Layout) PartnerOf(pos int) int {
	return lay.pt[pos]
}

func (lay *Layout) IsPaired(pos int) bool {
	return lay.pt[pos] >= 0
}

func (lay *Layout) StrandOf(pos int) int {
	return lay.strandOf[pos]
}

// LocOf converts a flat position to a (strand, domain) address.
func (lay *Layout) LocOf(pos int) Loc {
	si := lay.strandOf[pos]
	return Loc{Strand: si, Domain: pos - lay.starts[si]}
}

// PosOf converts a (strand, domain) address to a flat position, or -1 if out of range.
func (lay *Layout) PosOf(loc Loc) int {
	if loc.Strand < 0 || loc.Strand >= len(lay.strands) {
		return -1
	}
	if loc.Domain < 0 || loc.Domain >= lay.strands[loc.Strand].Len() {
		return -1
	}
	return lay.starts[loc.Strand] + loc.Domain
}

// contiguous returns true if j directly follows i on the same strand.
func (lay *Layout) contiguous(i, j int) bool {
	return j == i+1 && j < len(lay.doms) && lay.strandOf[i] == lay.strandOf[j]
}

// PairTable returns a copy of the flat pair table.
func (lay *Layout) PairTable() []int {
	return append([]int(nil), lay.pt...)
}

// Rotate returns the layout with strand k placed first.
func (lay *Layout) Rotate(k int) *Layout {
	S := len(lay.strands)
	k = ((k % S) + S) % S
	if k == 0 {
		return lay
	}
	N := len(lay.doms)
	shift := lay.starts[k]
	strands := make([]*Strand, 0, S)
	strands = append(strands, lay.strands[k:]...)
	strands = append(strands, lay.strands[:k]...)

	pt := make([]int, N)
	for p, q := range lay.pt {
		np := (p - shift + N) % N
		if q < 0 {
			pt[np] = -1
		} else {
			pt[np] = (q - shift + N) % N
		}
	}
	return newLayout(strands, pt)
}

// KernelString renders the layout, e.g. "a( b + c* ) d".
func (lay *Layout) KernelString() string {
	b := strings.Builder{}
	b.Grow(4 * len(lay.doms))
	for p, d := range lay.doms {
		if p > 0 {
			if lay.strandOf[p] != lay.strandOf[p-1] {
				b.WriteString(" + ")
			} else {
				b.WriteByte(' ')
			}
		}
		switch q := lay.pt[p]; {
		case q < 0:
			b.WriteString(d.name)
		case q > p:
			b.WriteString(d.name)
			b.WriteByte('(')
		default:
			b.WriteByte(')')
		}
	}
	return b.String()
}

// check verifies the pair table invariants of a complex.
func (lay *Layout) check() error {
	N := len(lay.doms)
	if len(lay.strands) == 0 || N == 0 {
		return pepper.ErrEmptyComplex
	}
	if len(lay.pt) != N {
		return pepper.ErrBadPairTable
	}

	stack := make([]int, 0, 8)
	for p, q := range lay.pt {
		if q < -1 || q >= N || q == p || (q >= 0 && lay.pt[q] != p) {
			return pepper.ErrBadPairTable
		}
		if q < 0 {
			continue
		}
		if !lay.doms[p].Pairs(lay.doms[q]) {
			return pepper.ErrNotComplementary
		}
		if q > p {
			if lay.contiguous(p, q) {
				return pepper.ErrHairpin
			}
			stack = append(stack, p)
		} else {
			top := len(stack) - 1
			if top < 0 || stack[top] != q {
				return pepper.ErrPseudoknot
			}
			stack = stack[:top]
		}
	}

	if comps := lay.components(); len(comps) != 1 {
		return pepper.ErrDisconnected
	}
	return nil
}

// components groups strand indexes joined by pairs; each group is in ascending (circular) order.
func (lay *Layout) components() [][]int {
	S := len(lay.strands)
	parent := make([]int, S)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for p, q := range lay.pt {
		if q > p {
			a, b := find(lay.strandOf[p]), find(lay.strandOf[q])
			if a != b {
				if a > b {
					a, b = b, a
				}
				parent[b] = a
			}
		}
	}

	var comps [][]int
	index := make(map[int]int, S)
	for si := 0; si < S; si++ {
		root := find(si)
		ci, ok := index[root]
		if !ok {
			ci = len(comps)
			index[root] = ci
			comps = append(comps, nil)
		}
		comps[ci] = append(comps[ci], si)
	}
	return comps
}

// subLayout restricts the layout to the given strands, keeping their circular order.
func (lay *Layout) subLayout(strandIdx []int) *Layout {
	newPos := make(map[int]int, len(lay.doms))
	strands := make([]*Strand, 0, len(strandIdx))
	N := 0
	for _, si := range strandIdx {
		strands = append(strands, lay.strands[si])
		for p := lay.starts[si]; p < lay.starts[si+1]; p++ {
			newPos[p] = N
			N++
		}
	}
	pt := make([]int, N)
	for _, si := range strandIdx {
		for p := lay.starts[si]; p < lay.starts[si+1]; p++ {
			q := lay.pt[p]
			if q < 0 {
				pt[newPos[p]] = -1
			} else {
				pt[newPos[p]] = newPos[q]
			}
		}
	}
	return newLayout(strands, pt)
}

// Complex is an immutable, canonically rotated, non-pseudoknotted secondary structure over one or more strands.
type Complex struct {
	Layout

	key      string
	name     string
	nt       int
	loops    []*Loop
	loopOnce sync.Once
}

// NewComplex validates and canonicalizes a complex built from strands in circular order and their pairs.
func NewComplex(strands []*Strand, pairs []PairLoc) (*Complex, error) {
	if len(strands) == 0 {
		return nil, &pepper.StructuralError{Err: pepper.ErrEmptyComplex}
	}
	N := 0
	for _, s := range strands {
		N += s.Len()
	}
	pt := make([]int, N)
	for i := range pt {
		pt[i] = -1
	}
	lay := newLayout(append([]*Strand(nil), strands...), pt)
	for _, pair := range pairs {
		a, b := lay.PosOf(pair.A), lay.PosOf(pair.B)
		if a < 0 || b < 0 || a == b || pt[a] >= 0 || pt[b] >= 0 {
			return nil, &pepper.StructuralError{Err: pepper.ErrBadPairTable}
		}
		pt[a], pt[b] = b, a
	}
	return newComplexFromLayout(lay)
}

// NewComplexFromPairTable is NewComplex for a flat pair table over the given strand order.
func NewComplexFromPairTable(strands []*Strand, pt []int) (*Complex, error) {
	return newComplexFromLayout(newLayout(append([]*Strand(nil), strands...), append([]int(nil), pt...)))
}

func newComplexFromLayout(lay *Layout) (*Complex, error) {
	if err := lay.check(); err != nil {
		serr := &pepper.StructuralError{Err: err}
		if len(lay.pt) == len(lay.doms) {
			serr.Complex = lay.KernelString()
		}
		return nil, serr
	}

	best := lay
	bestKey := lay.KernelString()
	for k := 1; k < len(lay.strands); k++ {
		rot := lay.Rotate(k)
		if key := rot.KernelString(); key < bestKey {
			best, bestKey = rot, key
		}
	}

	c := &Complex{
		Layout: *best,
		key:    bestKey,
	}
	for _, s := range c.strands {
		c.nt += s.nt
	}
	return c, nil
}

// Canonical returns c in canonical form; complexes are always stored canonically so this is c itself.
func Canonical(c *Complex) *Complex {
	return c
}

// Key is the canonical kernel string; two complexes are equal iff their keys are equal.
func (c *Complex) Key() string {
	return c.key
}

// Name returns the name assigned when the complex was first interned, or "" if it was never interned.
func (c *Complex) Name() string {
	return c.name
}

func (c *Complex) String() string {
	if c.name != "" {
		return c.name
	}
	return c.key
}

// KernelString returns the canonical kernel notation.
func (c *Complex) KernelString() string {
	return c.key
}

// NT returns the total length in nt.
func (c *Complex) NT() int {
	return c.nt
}

// Equal compares canonical forms.
func (c *Complex) Equal(other *Complex) bool {
	return other != nil && c.key == other.key
}

// CanonicalLayout returns the canonical rotation.
func (c *Complex) CanonicalLayout() *Layout {
	return &c.Layout
}

// Rotations returns every rotation of the canonical layout (index k puts strand k first).
func (c *Complex) Rotations() []*Layout {
	rots := make([]*Layout, len(c.strands))
	for k := range rots {
		rots[k] = c.Layout.Rotate(k)
	}
	return rots
}

// Pairs returns every pair (lower position first) of the canonical layout.
func (c *Complex) Pairs() []PairLoc {
	var pairs []PairLoc
	for p, q := range c.pt {
		if q > p {
			pairs = append(pairs, PairLoc{A: c.LocOf(p), B: c.LocOf(q)})
		}
	}
	return pairs
}

// FreeDomains returns all unpaired positions.
func (c *Complex) FreeDomains() []int {
	var free []int
	for p, q := range c.pt {
		if q < 0 {
			free = append(free, p)
		}
	}
	return free
}

// OpenDomains returns the unpaired positions lying in a loop that contains a strand break,
// i.e. the positions available to an intermolecular bind.
func (c *Complex) OpenDomains() []int {
	var open []int
	for _, loop := range c.Loops() {
		if !loop.HasBreak() {
			continue
		}
		for _, site := range loop.Sites {
			if site.Kind == SiteFree {
				open = append(open, site.Pos)
			}
		}
	}
	return open
}

// DomainCounts returns the multiset of domain names across all strands.
func (c *Complex) DomainCounts() map[string]int {
	counts := make(map[string]int)
	for _, d := range c.doms {
		counts[d.name]++
	}
	return counts
}

// withPairTable builds the product complexes of a modified pair table over this layout, split by connectivity.
func (lay *Layout) withPairTable(pt []int) ([]*Complex, error) {
	next := newLayout(lay.strands, pt)
	comps := next.components()
	products := make([]*Complex, 0, len(comps))
	for _, comp := range comps {
		sub := next
		if len(comps) > 1 {
			sub = next.subLayout(comp)
		}
		X, err := newComplexFromLayout(sub)
		if err != nil {
			return nil, err
		}
		products = append(products, X)
	}
	return products, nil
}
