package libpepper

import "github.com/2x3systems/peppercorn/pepper"

func branch3way(rs *RuleSet, X *Complex, out *reactionSet) {
	branchMigrations(rs, X, out, false)
}

func branchRemote(rs *RuleSet, X *Complex, out *reactionSet) {
	if rs.opts.RejectRemote {
		return
	}
	branchMigrations(rs, X, out, true)
}

// branchMigrations finds unpaired domains d complementary to a paired domain e in the same loop.
// The invader must reach the end of e's helix the loop touches: if the loop leaves e's 3' end,
// the path runs forward from e to d; if the loop arrives at e's 5' end, it runs forward from d to e.
// A path without unpaired domains is a 3-way branch migration, otherwise a remote toehold migration.
func branchMigrations(rs *RuleSet, X *Complex, out *reactionSet, remote bool) {
	lay := &X.Layout
	kind := pepper.ThreeWay
	if remote {
		kind = pepper.RemoteToehold
	}

	for _, loop := range X.Loops() {
		sites := loop.Sites
		for di, sd := range sites {
			if sd.Kind != SiteFree {
				continue
			}
			dd := lay.doms[sd.Pos]
			for ei, se := range sites {
				if se.Kind == SiteFree || !dd.Pairs(lay.doms[se.Pos]) {
					continue
				}

				var path, rest pepper.LoopInfo
				if se.Kind == SiteExit {
					path, rest = loop.Segment(lay, ei, di), loop.Segment(lay, di, ei)
				} else {
					path, rest = loop.Segment(lay, di, ei), loop.Segment(lay, ei, di)
				}
				if (path.Bases > 0) != remote {
					continue
				}

				d, e := sd.Pos, se.Pos
				p := lay.pt[e]
				lo, hi := d, e
				if lo > hi {
					lo, hi = hi, lo
				}
				if lay.contiguous(lo, hi) {
					continue
				}

				pt := lay.PairTable()
				pt[p] = -1
				pt[d], pt[e] = e, d
				lengths := []int{dd.length}
				if rs.opts.MaxHelix {
					lengths = append(lengths, lay.migrate(pt, loop, d, e, p)...)
				}
				products, err := lay.withPairTable(pt)
				if err != nil {
					rs.reject(err)
					continue
				}
				rs.emit(out, []*Complex{X}, products, pepper.Move{
					Kind:    kind,
					Arity:   1,
					Lengths: lengths,
					Spacer:  path.Bases,
					Before:  path,
					After:   rest,
				})
			}
		}
	}
}

// branch4way swaps the partners of two consecutive stems (A1, B1) (A2, B2) of a loop
// when no unpaired domain separates B1 from A2 and A1 and A2 are the same domain.
func branch4way(rs *RuleSet, X *Complex, out *reactionSet) {
	lay := &X.Layout
	for _, loop := range X.Loops() {
		sites := loop.Sites
		for i, s1 := range sites {
			if s1.Kind != SiteEnter {
				continue
			}
			j := loop.next(i)
			k := loop.next(j)
			if k == i || sites[k].Kind != SiteEnter {
				continue
			}
			l := loop.next(k)

			a1, b1 := s1.Pos, sites[j].Pos
			a2, b2 := sites[k].Pos, sites[l].Pos
			if lay.doms[a1] != lay.doms[a2] {
				continue
			}

			pt := lay.PairTable()
			pt[a1], pt[b2] = b2, a1
			pt[b1], pt[a2] = a2, b1
			lengths := []int{lay.doms[a1].length}
			if rs.opts.MaxHelix {
				lengths = append(lengths, lay.migrate4way(pt, loop, a1, b1, a2, b2)...)
			}
			products, err := lay.withPairTable(pt)
			if err != nil {
				rs.reject(err)
				continue
			}
			rs.emit(out, []*Complex{X}, products, pepper.Move{
				Kind:    pepper.FourWay,
				Arity:   1,
				Lengths: lengths,
				Before:  loop.Segment(lay, j, k),
				After:   loop.Segment(lay, l, i),
			})
		}
	}
}
