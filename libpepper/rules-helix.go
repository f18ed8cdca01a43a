package libpepper

// Max-helix moves: with EnumOpts.MaxHelix set, a bind or branch migration continues domain by domain
// until its helix cannot grow further, and an open releases a whole stacked helix at once.
//
// A pair (a, b) stacks with (a+s, b-s) for s = +1 or -1 when both steps stay on a strand.

// adjacent returns true if positions i and j are neighbors on the same strand.
func (lay *Layout) adjacent(i, j int) bool {
	if i > j {
		i, j = j, i
	}
	return i >= 0 && lay.contiguous(i, j)
}

// canStack returns true if (na, nb) would form a valid pair stacked on the pair (a, b).
func (lay *Layout) canStack(a, na, b, nb int) bool {
	N := len(lay.doms)
	switch {
	case na < 0 || nb < 0 || na >= N || nb >= N:
		return false
	case na == nb || na == b || nb == a:
		return false
	case lay.adjacent(na, nb):
		return false
	}
	return lay.adjacent(a, na) && lay.adjacent(b, nb) && lay.doms[na].Pairs(lay.doms[nb])
}

// zip grows the new pair (p, q) of pt in both directions over unpaired complementary domains.
// It returns the lengths of the domains it paired.
func (lay *Layout) zip(pt []int, p, q int) []int {
	var added []int
	for _, s := range [2]int{1, -1} {
		for a, b := p, q; ; {
			na, nb := a+s, b-s
			if !lay.canStack(a, na, b, nb) || pt[na] >= 0 || pt[nb] >= 0 {
				break
			}
			pt[na], pt[nb] = nb, na
			added = append(added, lay.doms[na].length)
			a, b = na, nb
		}
	}
	return added
}

// loopPositions returns the set of positions that are sites of loop.
func loopPositions(loop *Loop) map[int]bool {
	on := make(map[int]bool, len(loop.Sites))
	for _, site := range loop.Sites {
		on[site.Pos] = true
	}
	return on
}

// migrate continues a branch migration in pt after invader d has paired with e, displacing e's partner p in loop.
// Each step pairs the next invader domain with the next template domain away from the loop, displacing the
// incumbent's stacked domain or zipping where the template is unpaired. It returns the lengths of the added pairs.
func (lay *Layout) migrate(pt []int, loop *Loop, d, e, p int) []int {
	on := loopPositions(loop)
	var added []int
	for _, s := range [2]int{1, -1} {
		if on[e-s] {
			continue
		}
		for a, b, x := d, e, p; ; {
			na, nb, nx := a+s, b-s, x+s
			if !lay.canStack(a, na, b, nb) || pt[na] >= 0 {
				break
			}
			if pt[nb] >= 0 {
				if x < 0 || pt[nb] != nx || !lay.adjacent(x, nx) {
					break
				}
				pt[nx] = -1
			} else {
				nx = -1
			}
			pt[na], pt[nb] = nb, na
			added = append(added, lay.doms[na].length)
			a, b, x = na, nb, nx
		}
	}
	return added
}

// migrate4way continues a 4-way branch migration in pt after stems (a1, b1) and (a2, b2) of loop swapped partners.
// It returns the lengths of the further domains that swapped.
func (lay *Layout) migrate4way(pt []int, loop *Loop, a1, b1, a2, b2 int) []int {
	on := loopPositions(loop)
	N := len(lay.doms)
	inRange := func(ps ...int) bool {
		for _, p := range ps {
			if p < 0 || p >= N {
				return false
			}
		}
		return true
	}

	var added []int
	for _, s := range [2]int{1, -1} {
		if on[a1+s] || on[a2+s] {
			continue
		}
		for c1, d1, c2, d2 := a1, b1, a2, b2; ; {
			na1, nb1, na2, nb2 := c1+s, d1-s, c2+s, d2-s
			if !inRange(na1, nb1, na2, nb2) || pt[na1] != nb1 || pt[na2] != nb2 {
				break
			}
			if !lay.adjacent(c1, na1) || !lay.adjacent(d1, nb1) || !lay.adjacent(c2, na2) || !lay.adjacent(d2, nb2) {
				break
			}
			if lay.doms[na1] != lay.doms[na2] {
				break
			}
			pt[na1], pt[nb2] = nb2, na1
			pt[nb1], pt[na2] = na2, nb1
			added = append(added, lay.doms[na1].length)
			c1, d1, c2, d2 = na1, nb1, na2, nb2
		}
	}
	return added
}
