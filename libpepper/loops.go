package libpepper

import "github.com/2x3systems/peppercorn/pepper"

// SiteKind says how a loop touches a domain instance.
type SiteKind byte

const (
	SiteFree  SiteKind = iota // unpaired domain
	SiteEnter                 // loop arrives at the 5' end of a paired domain and crosses its helix
	SiteExit                  // loop leaves from the 3' end of a paired domain
)

// Site is one element of a loop.
type Site struct {
	Pos  int
	Kind SiteKind
}

// Loop is a cyclic sequence of sites; every SiteEnter is immediately followed by the SiteExit of its partner.
type Loop struct {
	Sites   []Site
	Breaks  []bool // Breaks[i] is set if a strand break precedes Sites[i]
	Closing int    // 5' side of the closing pair, or -1 for the exterior loop
}

// IsExterior returns true for the exterior loop.
func (loop *Loop) IsExterior() bool {
	return loop.Closing < 0
}

// HasBreak returns true if the loop contains a strand break.
func (loop *Loop) HasBreak() bool {
	for _, b := range loop.Breaks {
		if b {
			return true
		}
	}
	return false
}

func (loop *Loop) next(i int) int {
	i++
	if i == len(loop.Sites) {
		i = 0
	}
	return i
}

// Segment summarizes the sites strictly between site indexes from and to (walking forward),
// counting the strand breaks in every gap crossed from 'from' up to and including the gap preceding 'to'.
func (loop *Loop) Segment(lay *Layout, from, to int) pepper.LoopInfo {
	var info pepper.LoopInfo
	prevEnter := false
	for i := loop.next(from); ; i = loop.next(i) {
		if loop.Breaks[i] {
			info.Breaks++
		}
		if i == to {
			break
		}
		site := loop.Sites[i]
		switch site.Kind {
		case SiteFree:
			info.Bases += lay.doms[site.Pos].length
			prevEnter = false
		case SiteEnter:
			info.Stems++
			prevEnter = true
		case SiteExit:
			if !prevEnter {
				info.Stems++
			}
			prevEnter = false
		}
	}
	return info
}

// Loops returns the loop decomposition of the canonical layout: the exterior loop first, then one loop per pair.
func (c *Complex) Loops() []*Loop {
	c.loopOnce.Do(func() {
		c.loops = c.Layout.loops()
	})
	return c.loops
}

func (lay *Layout) loops() []*Loop {
	N := len(lay.pt)
	out := make([]*Loop, 0, 1+N/2)

	scan := func(loop *Loop, lo, hi int) {
		for i := lo; i <= hi; {
			if j := lay.pt[i]; j < 0 {
				loop.Sites = append(loop.Sites, Site{i, SiteFree})
				i++
			} else {
				loop.Sites = append(loop.Sites, Site{i, SiteEnter}, Site{j, SiteExit})
				i = j + 1
			}
		}
	}

	ext := &Loop{Closing: -1}
	scan(ext, 0, N-1)
	out = append(out, ext)

	for q, r := range lay.pt {
		if r <= q {
			continue
		}
		loop := &Loop{Closing: q}
		scan(loop, q+1, r-1)
		loop.Sites = append(loop.Sites, Site{r, SiteEnter}, Site{q, SiteExit})
		out = append(out, loop)
	}

	for _, loop := range out {
		n := len(loop.Sites)
		loop.Breaks = make([]bool, n)
		for i, site := range loop.Sites {
			prev := loop.Sites[(i+n-1)%n]
			if prev.Kind == SiteEnter {
				continue
			}
			loop.Breaks[i] = !lay.contiguous(prev.Pos, site.Pos)
		}
	}
	return out
}

// helixPairs returns the pairs of the maximal stacked helix containing pair (i, j), i < j, outermost first.
func (lay *Layout) helixPairs(i, j int) [][2]int {
	var outer [][2]int
	for a, b := i, j; ; {
		na, nb := a-1, b+1
		if na < 0 || nb >= len(lay.pt) || lay.pt[na] != nb || !lay.contiguous(na, a) || !lay.contiguous(b, nb) {
			break
		}
		outer = append(outer, [2]int{na, nb})
		a, b = na, nb
	}

	pairs := make([][2]int, 0, len(outer)+1)
	for k := len(outer) - 1; k >= 0; k-- {
		pairs = append(pairs, outer[k])
	}
	pairs = append(pairs, [2]int{i, j})
	for a, b := i, j; ; {
		na, nb := a+1, b-1
		if na >= nb || lay.pt[na] != nb || !lay.contiguous(a, na) || !lay.contiguous(nb, b) {
			break
		}
		pairs = append(pairs, [2]int{na, nb})
		a, b = na, nb
	}
	return pairs
}

// helixAround returns the total length of the maximal stacked helix containing pair (i, j), i < j.
func (lay *Layout) helixAround(i, j int) int {
	L := 0
	for _, pair := range lay.helixPairs(i, j) {
		L += lay.doms[pair[0]].length
	}
	return L
}
