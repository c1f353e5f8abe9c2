// Package graphbuilder turns a PlannerTree into a PolicyGraph and computes
// true edge weights: the Build/Weighten/Distances pipeline that PolicyCore
// runs on every rebuild.
//
// Build lays out raw probability edges; Weighten replaces them with
// retry-aware expected costs; Distances runs single-source shortest
// paths from the synthetic goal sink. SimulateRetries is the
// split-sibling retry recurrence shared between EstimateAttempts (used by
// Weighten) and the probmaint package.
package graphbuilder

import (
	"errors"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/policygraph"
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/tree"
)

// ErrInvalidInput indicates the tree was empty or failed its linkage check.
var ErrInvalidInput = errors.New("graphbuilder: invalid input tree")

// ErrInternal indicates a built graph failed its own linkage check, or the
// shortest-path search left a reachable node without a valid predecessor.
var ErrInternal = errors.New("graphbuilder: internal invariant violated")

// ErrSameIndex indicates EstimateAttempts was called with from==to.
var ErrSameIndex = errors.New("graphbuilder: from and to indices are equal")

// probabilityEpsilon is the smallest positive edge probability that is
// inverted directly rather than treated as zero (avoids a 1/p blow-up).
const probabilityEpsilon = 1e-12

// Build constructs a PolicyGraph with tree.Size()+1 nodes: one per tree
// slot, in order, plus a trailing synthetic goal sink carrying goalState.
//
// For each slot i: a reverse edge i→parent weighted by the slot's
// ReverseEdgePFeasibility, a forward edge i→child weighted by the child's
// EffectiveEdgePFeasibility, and — for childless slots with positive
// GoalPFeasibility — both i→sink and sink→i weighted by that probability.
func Build[C any](t *tree.PlannerTree[C], goalState state.PlannerState[C]) (*policygraph.Graph[C], error) {
	if t.Empty() || !t.CheckLinkage() {
		return nil, ErrInvalidInput
	}

	n := t.Size()
	g := policygraph.New[C](n + 1)
	sink := g.SinkIndex()

	t.Walk(func(i int, slot tree.Slot[C]) {
		_ = g.SetValue(i, slot.Value)
	})
	_ = g.SetValue(sink, goalState)

	var walkErr error
	t.Walk(func(i int, slot tree.Slot[C]) {
		if walkErr != nil {
			return
		}
		if slot.ParentIndex >= 0 {
			if err := g.AddEdge(i, slot.ParentIndex, slot.Value.ReverseEdgePFeasibility); err != nil {
				walkErr = err
				return
			}
		}
		for _, c := range slot.ChildIndices {
			childSlot, err := t.At(c)
			if err != nil {
				walkErr = err
				return
			}
			if err := g.AddEdge(i, c, childSlot.Value.EffectiveEdgePFeasibility); err != nil {
				walkErr = err
				return
			}
		}
		if len(slot.ChildIndices) == 0 && slot.Value.GoalPFeasibility > 0 {
			if err := g.AddEdge(i, sink, slot.Value.GoalPFeasibility); err != nil {
				walkErr = err
				return
			}
			if err := g.AddEdge(sink, i, slot.Value.GoalPFeasibility); err != nil {
				walkErr = err
				return
			}
		}
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if !g.CheckLinkage() {
		return nil, ErrInternal
	}
	return g, nil
}
