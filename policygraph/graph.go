// Package policygraph holds PolicyGraph, the directed weighted graph built
// from a PlannerTree plus a synthetic goal sink, and ShortestPathResult,
// the single-source shortest-path result computed over it.
//
// The graph mirrors the adjacency-list shape of this codebase's ancestor
// graph library, generalized from string vertex ids to dense integer node
// indices (one per tree slot, plus the sink) and from integer edge weights
// to float64 costs in [0, +Inf].
package policygraph

import (
	"errors"
	"math"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
)

// ErrIndexOutOfRange indicates a node index outside [0, Graph.Size()).
var ErrIndexOutOfRange = errors.New("policygraph: index out of range")

// Edge is a directed (from, to, weight) triple. Weight is a raw
// probability in [0,1] until GraphBuilder.Weighten converts it to a cost.
type Edge struct {
	From   int
	To     int
	Weight float64
}

// Node is one slot of the graph: the planner state payload plus the
// out/in edge lists incident to it. The graph does not dedupe parallel
// edges — GraphBuilder.Build can add both directions between the same
// pair of nodes, and callers may add more.
type Node[C any] struct {
	Value state.PlannerState[C]
	Out   []Edge
	In    []Edge
}

// Graph is an ordered sequence of Nodes. The last node is always the
// synthetic goal sink.
type Graph[C any] struct {
	nodes []Node[C]
}

// New allocates a Graph with n empty nodes.
func New[C any](n int) *Graph[C] {
	return &Graph[C]{nodes: make([]Node[C], n)}
}

// Size returns the number of nodes, including the sink.
func (g *Graph[C]) Size() int { return len(g.nodes) }

// SinkIndex returns the index of the synthetic goal sink (the last node).
func (g *Graph[C]) SinkIndex() int { return len(g.nodes) - 1 }

// SetValue stores the state payload for node i.
func (g *Graph[C]) SetValue(i int, v state.PlannerState[C]) error {
	if i < 0 || i >= len(g.nodes) {
		return ErrIndexOutOfRange
	}
	g.nodes[i].Value = v
	return nil
}

// Node returns the node at index i.
func (g *Graph[C]) Node(i int) (Node[C], error) {
	if i < 0 || i >= len(g.nodes) {
		return Node[C]{}, ErrIndexOutOfRange
	}
	return g.nodes[i], nil
}

// Value returns the state payload stored at index i.
func (g *Graph[C]) Value(i int) (state.PlannerState[C], error) {
	if i < 0 || i >= len(g.nodes) {
		return state.PlannerState[C]{}, ErrIndexOutOfRange
	}
	return g.nodes[i].Value, nil
}

// AddEdge appends a directed edge from→to with the given weight to from's
// out list and to's in list. It does not check for duplicates.
func (g *Graph[C]) AddEdge(from, to int, weight float64) error {
	if from < 0 || from >= len(g.nodes) || to < 0 || to >= len(g.nodes) {
		return ErrIndexOutOfRange
	}
	g.nodes[from].Out = append(g.nodes[from].Out, Edge{From: from, To: to, Weight: weight})
	g.nodes[to].In = append(g.nodes[to].In, Edge{From: from, To: to, Weight: weight})
	return nil
}

// OutEdges returns node i's outgoing edges.
func (g *Graph[C]) OutEdges(i int) ([]Edge, error) {
	if i < 0 || i >= len(g.nodes) {
		return nil, ErrIndexOutOfRange
	}
	return g.nodes[i].Out, nil
}

// InEdges returns node i's incoming edges.
func (g *Graph[C]) InEdges(i int) ([]Edge, error) {
	if i < 0 || i >= len(g.nodes) {
		return nil, ErrIndexOutOfRange
	}
	return g.nodes[i].In, nil
}

// SetOutEdgeWeight overwrites the weight of out-edge outIdx of node i. Used
// by GraphBuilder.Weighten to replace raw probabilities with costs.
func (g *Graph[C]) SetOutEdgeWeight(i, outIdx int, weight float64) error {
	if i < 0 || i >= len(g.nodes) {
		return ErrIndexOutOfRange
	}
	if outIdx < 0 || outIdx >= len(g.nodes[i].Out) {
		return ErrIndexOutOfRange
	}
	g.nodes[i].Out[outIdx].Weight = weight
	return nil
}

// SetInEdgeWeight overwrites the weight of in-edge inIdx of node i.
func (g *Graph[C]) SetInEdgeWeight(i, inIdx int, weight float64) error {
	if i < 0 || i >= len(g.nodes) {
		return ErrIndexOutOfRange
	}
	if inIdx < 0 || inIdx >= len(g.nodes[i].In) {
		return ErrIndexOutOfRange
	}
	g.nodes[i].In[inIdx].Weight = weight
	return nil
}

// CheckLinkage verifies that every out-edge of a node has a matching
// in-edge at its target, and vice versa (not assuming dedup — counts of
// matching (from,to) pairs must agree).
func (g *Graph[C]) CheckLinkage() bool {
	outCount := make(map[[2]int]int)
	inCount := make(map[[2]int]int)
	for i, n := range g.nodes {
		for _, e := range n.Out {
			if e.From != i {
				return false
			}
			if e.To < 0 || e.To >= len(g.nodes) {
				return false
			}
			outCount[[2]int{e.From, e.To}]++
		}
		for _, e := range n.In {
			if e.To != i {
				return false
			}
			if e.From < 0 || e.From >= len(g.nodes) {
				return false
			}
			inCount[[2]int{e.From, e.To}]++
		}
	}
	if len(outCount) != len(inCount) {
		return false
	}
	for k, v := range outCount {
		if inCount[k] != v {
			return false
		}
	}
	return true
}

// NoPrevious is the sentinel previous-index value for the source itself
// and for unreachable nodes.
const NoPrevious = -1

// Unreachable is the sentinel cumulative distance for nodes not reached by
// the shortest-path search.
const Unreachable = math.MaxFloat64

// ShortestPathResult holds, for every node index, the predecessor on the
// shortest path from the search source and the cumulative distance to it.
type ShortestPathResult struct {
	PreviousIndex []int
	Distance      []float64
}

// NewShortestPathResult allocates a result sized for n nodes, with every
// entry set to the unreachable sentinels.
func NewShortestPathResult(n int) ShortestPathResult {
	r := ShortestPathResult{
		PreviousIndex: make([]int, n),
		Distance:      make([]float64, n),
	}
	for i := range r.PreviousIndex {
		r.PreviousIndex[i] = NoPrevious
		r.Distance[i] = Unreachable
	}
	return r
}

// Reachable reports whether node i was reached by the search (the source
// node itself is reachable with PreviousIndex == NoPrevious and
// Distance == 0).
func (r ShortestPathResult) Reachable(i int) bool {
	return r.Distance[i] < Unreachable
}
