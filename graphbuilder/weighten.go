package graphbuilder

import (
	"math"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/policygraph"
)

// EstimateAttempts returns the number of attempts needed to reach the edge
// from→to, accounting for its split siblings.
//
// Reverse edges (from > to) have no retry model and always return 1.
// from == to is a caller error.
func EstimateAttempts[C any](g *policygraph.Graph[C], from, to int, conformantThreshold float64, edgeAttemptCap uint32) (uint32, error) {
	if from == to {
		return 0, ErrSameIndex
	}
	if from > to {
		return 1, nil
	}

	toValue, err := g.Value(to)
	if err != nil {
		return 0, err
	}
	outEdges, err := g.OutEdges(from)
	if err != nil {
		return 0, err
	}

	var siblings []Sibling
	for _, e := range outEdges {
		if e.To == to {
			continue
		}
		childValue, err := g.Value(e.To)
		if err != nil {
			return 0, err
		}
		if childValue.TransitionID != toValue.TransitionID {
			continue
		}
		if childValue.StateID == toValue.StateID {
			continue
		}
		siblings = append(siblings, Sibling{
			RawPFeasibility:     childValue.RawEdgePFeasibility,
			ReversePFeasibility: childValue.ReverseEdgePFeasibility,
			Independent:         childValue.ActionOutcomesNominallyIndependent,
		})
	}
	if len(siblings) == 0 {
		return 1, nil
	}

	_, attempts := SimulateRetries(toValue.RawEdgePFeasibility, siblings, edgeAttemptCap, conformantThreshold)
	return attempts, nil
}

// Weighten replaces every edge's raw probability weight with a cost:
// (1/p)*marginalEdgeWeight*EstimateAttempts(edge) for p>0 (p<epsilon is
// treated as p==0 to avoid the 1/p blow-up), and +Inf for p==0 edges (kept
// for linkage, excluded from shortest-path search).
//
// Both the outgoing and incoming edge lists of every node are updated in
// parallel, since the graph does not assume its edge lists are deduped.
func Weighten[C any](g *policygraph.Graph[C], marginalEdgeWeight, conformantThreshold float64, edgeAttemptCap uint32) (*policygraph.Graph[C], error) {
	for i := 0; i < g.Size(); i++ {
		out, err := g.OutEdges(i)
		if err != nil {
			return nil, err
		}
		for j, e := range out {
			w, err := weightenEdge(g, e, conformantThreshold, edgeAttemptCap, marginalEdgeWeight)
			if err != nil {
				return nil, err
			}
			if err := g.SetOutEdgeWeight(i, j, w); err != nil {
				return nil, err
			}
		}
		in, err := g.InEdges(i)
		if err != nil {
			return nil, err
		}
		for j, e := range in {
			w, err := weightenEdge(g, e, conformantThreshold, edgeAttemptCap, marginalEdgeWeight)
			if err != nil {
				return nil, err
			}
			if err := g.SetInEdgeWeight(i, j, w); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func weightenEdge[C any](g *policygraph.Graph[C], e policygraph.Edge, conformantThreshold float64, edgeAttemptCap uint32, marginalEdgeWeight float64) (float64, error) {
	if e.Weight <= 0 {
		return math.Inf(1), nil
	}
	attempts, err := EstimateAttempts(g, e.From, e.To, conformantThreshold, edgeAttemptCap)
	if err != nil {
		return 0, err
	}
	probabilityWeight := math.Inf(1)
	if e.Weight >= probabilityEpsilon {
		probabilityWeight = 1.0 / e.Weight
	}
	attemptWeight := marginalEdgeWeight * float64(attempts)
	return probabilityWeight * attemptWeight, nil
}
