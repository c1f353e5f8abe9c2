package graphbuilder

import (
	"container/heap"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/policygraph"
)

// Distances computes single-source shortest paths from source over g's
// non-negative edge costs. Every reachable node's PreviousIndex
// must come out in range; otherwise the graph is no longer connected from
// source and ErrInternal is returned. The source node itself is exempt
// from that check — it has no predecessor by definition.
func Distances[C any](g *policygraph.Graph[C], source int) (policygraph.ShortestPathResult, error) {
	n := g.Size()
	result := policygraph.NewShortestPathResult(n)
	result.Distance[source] = 0

	pq := &nodeHeap{{index: source, dist: 0}}
	heap.Init(pq)
	visited := make([]bool, n)

	for pq.Len() > 0 {
		item := heap.Pop(pq).(nodeItem)
		u := item.index
		if visited[u] {
			continue
		}
		visited[u] = true

		out, err := g.OutEdges(u)
		if err != nil {
			return policygraph.ShortestPathResult{}, err
		}
		for _, e := range out {
			if visited[e.To] {
				continue
			}
			nd := result.Distance[u] + e.Weight
			if nd < result.Distance[e.To] {
				result.Distance[e.To] = nd
				result.PreviousIndex[e.To] = u
				heap.Push(pq, nodeItem{index: e.To, dist: nd})
			}
		}
	}

	for i := 0; i < n; i++ {
		if i == source {
			continue
		}
		if result.Reachable(i) && result.PreviousIndex[i] == policygraph.NoPrevious {
			return policygraph.ShortestPathResult{}, ErrInternal
		}
	}
	return result, nil
}

type nodeItem struct {
	index int
	dist  float64
}

// nodeHeap implements container/heap.Interface, ordering by smallest
// distance first.
type nodeHeap []nodeItem

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(nodeItem)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}
