package libpepper

import "github.com/emirpasic/gods/stacks/arraystack"

// StronglyConnected returns the strongly connected components of the directed graph over nodes 0..n-1 (Tarjan).
//
// Components are returned in emission order: a component appears only after every component reachable from it.
func StronglyConnected(n int, succ func(v int) []int) [][]int {
	const unvisited = -1

	index := 0
	indices := make([]int, n)
	lowlinks := make([]int, n)
	onStack := make([]bool, n)
	for i := range indices {
		indices[i] = unvisited
	}
	stack := arraystack.New()
	var sccs [][]int

	var strongConnect func(v int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlinks[v] = index
		index++
		stack.Push(v)
		onStack[v] = true

		for _, w := range succ(v) {
			if indices[w] == unvisited {
				strongConnect(w)
				if lowlinks[w] < lowlinks[v] {
					lowlinks[v] = lowlinks[w]
				}
			} else if onStack[w] && indices[w] < lowlinks[v] {
				lowlinks[v] = indices[w]
			}
		}

		if lowlinks[v] == indices[v] {
			var scc []int
			for {
				top, _ := stack.Pop()
				w := top.(int)
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < n; v++ {
		if indices[v] == unvisited {
			strongConnect(v)
		}
	}
	return sccs
}
