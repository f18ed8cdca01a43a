package libpepper

import (
	"sort"

	"github.com/maruel/natural"
)

// SortByName sorts complexes in natural name order ("e2" before "e10"), falling back to canonical keys.
func SortByName(cs []*Complex) {
	sort.SliceStable(cs, func(i, j int) bool {
		ni, nj := cs[i].name, cs[j].name
		if ni != nj {
			return natural.Less(ni, nj)
		}
		return cs[i].key < cs[j].key
	})
}
