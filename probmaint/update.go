// Package probmaint re-derives effective edge probabilities and goal-reach
// probabilities across a PlannerTree after attempt/reached counts change.
// It is invoked by PolicyCore after every counter update, before the
// graph is rebuilt.
package probmaint

import (
	"errors"
	"fmt"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/graphbuilder"
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/tree"
)

// ErrOutOfRange indicates a probability landed outside the tolerated
// [0, 1.001] band and could not be clamped.
var ErrOutOfRange = errors.New("probmaint: probability out of range")

// clampTolerance is the numerical-error allowance granted above 1.0
// before a value is treated as a hard error.
const clampTolerance = 1.001

// Logger receives warnings about clamped probabilities. level follows the
// same convention as policy.LoggingSink (1=warn).
type Logger func(message string, level int)

// Update runs the full three-pass maintenance over t: forward split-
// probability propagation, reverse goal-reachability propagation, and
// forward non-goal-branch propagation. edgeAttemptCap bounds both retry
// simulations, as in GraphBuilder.Weighten.
func Update[C any](t *tree.PlannerTree[C], edgeAttemptCap uint32, log Logger) error {
	if log == nil {
		log = func(string, int) {}
	}
	if t.Empty() {
		return nil
	}
	if err := updateChildTransitionProbabilities(t, t.RootIndex(), edgeAttemptCap, log); err != nil {
		return err
	}
	for i := t.Size() - 1; i >= 0; i-- {
		if err := updateStateGoalReachedProbability(t, i, edgeAttemptCap, log); err != nil {
			return err
		}
	}
	for i := 1; i < t.Size(); i++ {
		if err := propagateNonGoalBranch(t, i); err != nil {
			return err
		}
	}
	return nil
}

// updateChildTransitionProbabilities groups index's children by transition
// id and re-derives each group's EffectiveEdgePFeasibility, then recurses.
func updateChildTransitionProbabilities[C any](t *tree.PlannerTree[C], index int, cap uint32, log Logger) error {
	slot, err := t.At(index)
	if err != nil {
		return err
	}
	groups := make(map[uint64][]int)
	var order []uint64
	for _, c := range slot.ChildIndices {
		childSlot, err := t.At(c)
		if err != nil {
			return err
		}
		tid := childSlot.Value.TransitionID
		if _, ok := groups[tid]; !ok {
			order = append(order, tid)
		}
		groups[tid] = append(groups[tid], c)
	}
	for _, tid := range order {
		if err := updateEstimatedEffectiveProbabilities(t, groups[tid], cap, log); err != nil {
			return err
		}
	}
	for _, c := range slot.ChildIndices {
		if err := updateChildTransitionProbabilities(t, c, cap, log); err != nil {
			return err
		}
	}
	return nil
}

// updateEstimatedEffectiveProbabilities re-derives EffectiveEdgePFeasibility
// for every index in transitionChildren, which all share one transition id
// (possibly a singleton with no split siblings at all).
func updateEstimatedEffectiveProbabilities[C any](t *tree.PlannerTree[C], transitionChildren []int, cap uint32, log Logger) error {
	for _, idx := range transitionChildren {
		current, err := t.MutableState(idx)
		if err != nil {
			return err
		}
		var siblings []graphbuilder.Sibling
		for _, otherIdx := range transitionChildren {
			if otherIdx == idx {
				continue
			}
			other, err := t.At(otherIdx)
			if err != nil {
				return err
			}
			siblings = append(siblings, graphbuilder.Sibling{
				RawPFeasibility:     other.Value.RawEdgePFeasibility,
				ReversePFeasibility: other.Value.ReverseEdgePFeasibility,
				Independent:         other.Value.ActionOutcomesNominallyIndependent,
			})
		}
		reached, _ := graphbuilder.SimulateRetries(current.RawEdgePFeasibility, siblings, cap, -1)
		clamped, err := clampProbability(reached, log, "effective edge p(feasibility)")
		if err != nil {
			return err
		}
		current.EffectiveEdgePFeasibility = clamped
	}
	return nil
}

// clampProbability clamps p into [0,1], logging a warning for the
// tolerated (1, 1.001] overshoot and erroring outside that band.
func clampProbability(p float64, log Logger, what string) (float64, error) {
	if p >= 0 && p <= 1.0 {
		return p, nil
	}
	if p >= 0 && p <= clampTolerance {
		log(fmt.Sprintf("%s = %f > 1.0 (probably numerical error)", what, p), 1)
		return 1.0, nil
	}
	return 0, fmt.Errorf("%w: %s = %f", ErrOutOfRange, what, p)
}
