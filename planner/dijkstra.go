package planner

import (
	"container/heap"
	"math"

	"github.com/golang/geo/r3"

	"github.com/ridgeline-robotics/graphplan/graphview"
)

// sssp is the Dijkstra single-source-shortest-paths result of spec.md
// §4.4 step 4: path_cost and predecessor for every vertex, plus the
// direction the winning path arrived from (used to evaluate the turning
// term of the next edge, spec.md §4.3).
type sssp struct {
	pathCost    []float64
	predecessor []int
	incomingDir []r3.Vector
}

type pqItem struct {
	v    int
	cost float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].cost < pq[j].cost }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// dijkstra runs single-source shortest paths from vStart over g. size is
// the vertex count snapshotted once by the caller (under the Map Store's
// locks, held for the whole planning tick — spec.md §4.1/§5), not
// resampled via g.Size() mid-search: a concurrent Merge appending points
// between OutNeighbors calls would otherwise hand back an index beyond
// sp's fixed-length slices and panic. All edge costs are nonnegative
// (graphview.Graph.EdgeCost never returns a negative finite value), so a
// standard binary-heap Dijkstra suffices (spec.md §9, "Dijkstra
// termination").
func dijkstra(g *graphview.Graph, size int, vStart int) *sssp {
	n := size
	sp := &sssp{
		pathCost:    make([]float64, n),
		predecessor: make([]int, n),
		incomingDir: make([]r3.Vector, n),
	}
	for i := range sp.pathCost {
		sp.pathCost[i] = math.Inf(1)
		sp.predecessor[i] = -1
	}
	sp.pathCost[vStart] = 0

	visited := make([]bool, n)
	pq := &priorityQueue{{v: vStart, cost: 0}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(pqItem)
		v := item.v
		if visited[v] {
			continue
		}
		visited[v] = true

		for _, u := range g.OutNeighbors(v) {
			if visited[u] {
				continue
			}
			cost := g.EdgeCost(v, u, sp.incomingDir[v])
			if math.IsInf(cost, 1) {
				continue
			}
			alt := sp.pathCost[v] + cost
			if alt < sp.pathCost[u] {
				sp.pathCost[u] = alt
				sp.predecessor[u] = v
				sp.incomingDir[u] = g.Position(u).Sub(g.Position(v))
				heap.Push(pq, pqItem{v: u, cost: alt})
			}
		}
	}
	return sp
}
