package alloc

import "math"

// constraints restrict the exact solver to allocations that use every
// included edge and none of the excluded ones.
type constraints struct {
	include []Edge
	exclude []Edge
}

// solve returns the cheapest allocation satisfying c, or the exhausted
// sentinel. The dynamic program walks agents in order; within an agent the
// state is (visited goal mask, last node) as in Held-Karp, with "last" equal
// to n meaning the agent has not left its start yet.
func (o *Oracle) solve(c constraints) Allocation {
	o.calls++
	m, n := len(o.starts), len(o.goals)

	succ := make([]int, m+n)
	pred := make([]int, m+n)
	for i := range succ {
		succ[i], pred[i] = -1, -1
	}
	for _, e := range c.include {
		if (succ[e.From] != -1 && succ[e.From] != e.To) || (pred[e.To] != -1 && pred[e.To] != e.From) {
			return exhausted()
		}
		succ[e.From], pred[e.To] = e.To, e.From
	}
	banned := make(map[Edge]bool, len(c.exclude))
	for _, e := range c.exclude {
		banned[e] = true
	}

	width := n + 1
	full := 1<<n - 1
	size := (full + 1) * width
	const inf = math.MaxInt32

	node := func(agent, last int) int {
		if last == n {
			return agent
		}
		return m + last
	}

	dp := make([][]int32, m)
	parent := make([][]int8, m)
	for a := 0; a < m; a++ {
		cur := make([]int32, size)
		par := make([]int8, size)
		for i := range cur {
			cur[i] = inf
			par[i] = -1
		}
		if a == 0 {
			cur[n] = 0
		} else {
			prev := dp[a-1]
			for mask := 0; mask <= full; mask++ {
				for last := 0; last <= n; last++ {
					v := prev[mask*width+last]
					if v == inf || succ[node(a-1, last)] != -1 {
						continue
					}
					if idx := mask*width + n; v < cur[idx] {
						cur[idx] = v
						par[idx] = int8(last)
					}
				}
			}
		}
		for mask := 0; mask <= full; mask++ {
			for last := 0; last <= n; last++ {
				v := cur[mask*width+last]
				if v == inf {
					continue
				}
				from := node(a, last)
				for j := 0; j < n; j++ {
					if mask&(1<<j) != 0 {
						continue
					}
					to := m + j
					if (succ[from] != -1 && succ[from] != to) || (pred[to] != -1 && pred[to] != from) {
						continue
					}
					w := o.cost[from][j]
					if w == inf || banned[Edge{From: from, To: to}] {
						continue
					}
					idx := (mask|1<<j)*width + j
					if v+w < cur[idx] {
						cur[idx] = v + w
						par[idx] = int8(last)
					}
				}
			}
		}
		dp[a], parent[a] = cur, par
	}

	best, bestLast := int32(inf), -1
	for last := 0; last <= n; last++ {
		v := dp[m-1][full*width+last]
		if v < best && succ[node(m-1, last)] == -1 {
			best, bestLast = v, last
		}
	}
	if bestLast < 0 {
		return exhausted()
	}
	return o.reconstruct(parent, bestLast, int(best))
}

func (o *Oracle) reconstruct(parent [][]int8, last, cost int) Allocation {
	m, n := len(o.starts), len(o.goals)
	width := n + 1
	mask := 1<<n - 1
	perAgent := make([][]int, m)
	for a := m - 1; a >= 0; a-- {
		var rev []int
		for last != n {
			rev = append(rev, last)
			p := int(parent[a][mask*width+last])
			mask &^= 1 << last
			last = p
		}
		order := make([]int, len(rev))
		for i, g := range rev {
			order[len(rev)-1-i] = g
		}
		perAgent[a] = order
		if a > 0 {
			last = int(parent[a][mask*width+n])
		}
	}

	alloc := Allocation{Sequences: make([][]int, m), Cost: cost}
	for a, order := range perAgent {
		seq := make([]int, 0, len(order)+1)
		seq = append(seq, o.starts[a].Loc)
		from := a
		for _, j := range order {
			seq = append(seq, o.goals[j])
			alloc.Edges = append(alloc.Edges, Edge{From: from, To: m + j})
			from = m + j
		}
		alloc.Sequences[a] = seq
	}
	return alloc
}
