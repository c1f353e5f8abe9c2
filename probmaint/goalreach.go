package probmaint

import (
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/tree"
)

// updateStateGoalReachedProbability recomputes GoalPFeasibility for the
// state at index from its children's goal-reach transitions, taking the
// max over transitions (each commanded action is an alternative). States
// with no children keep their current value — they are either a leaf goal
// state (pre-set positive) or genuinely terminal with no recorded goal
// probability.
func updateStateGoalReachedProbability[C any](t *tree.PlannerTree[C], index int, cap uint32, log Logger) error {
	slot, err := t.At(index)
	if err != nil {
		return err
	}
	if len(slot.ChildIndices) == 0 {
		return nil
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

	best := 0.0
	haveBest := false
	for _, tid := range order {
		p, err := computeTransitionGoalProbability(t, groups[tid], cap, log)
		if err != nil {
			return err
		}
		if !haveBest || p > best {
			best = p
			haveBest = true
		}
	}

	current, err := t.MutableState(index)
	if err != nil {
		return err
	}
	current.GoalPFeasibility = best
	return nil
}

// computeTransitionGoalProbability computes the probability of eventually
// reaching the goal via this one commanded transition, whose possible
// result states are childIndices (a singleton for non-split transitions).
func computeTransitionGoalProbability[C any](t *tree.PlannerTree[C], childIndices []int, cap uint32, log Logger) (float64, error) {
	if len(childIndices) == 0 {
		return 0, nil
	}
	if len(childIndices) == 1 {
		child, err := t.At(childIndices[0])
		if err != nil {
			return 0, err
		}
		return child.Value.GoalPFeasibility * child.Value.EffectiveEdgePFeasibility, nil
	}

	var dependent []float64
	var independent []float64

	for i, idx := range childIndices {
		self, err := t.At(idx)
		if err != nil {
			return 0, err
		}

		active := 1.0
		weReached := 0.0
		othersReached := 0.0
		for attempt := uint32(0); attempt < cap; attempt++ {
			reached := active * self.Value.RawEdgePFeasibility
			selfGoal := self.Value.GoalPFeasibility
			if selfGoal <= 0 {
				selfGoal = 0
			}
			weReached += reached * selfGoal

			updated := 0.0
			othersThisAttempt := 0.0
			for j, otherIdx := range childIndices {
				if j == i {
					continue
				}
				other, err := t.At(otherIdx)
				if err != nil {
					return 0, err
				}
				if !other.Value.ActionOutcomesNominallyIndependent {
					continue
				}
				reachedOther := active * other.Value.RawEdgePFeasibility
				stuckAtOther := reachedOther * (1.0 - other.Value.ReverseEdgePFeasibility)
				otherGoal := other.Value.GoalPFeasibility
				if otherGoal <= 0 {
					otherGoal = 0
				}
				othersThisAttempt += stuckAtOther * otherGoal
				updated += reachedOther * other.Value.ReverseEdgePFeasibility
			}
			othersReached += othersThisAttempt
			active = updated
		}

		reachedGoal, err := clampProbability(weReached+othersReached, log, "p(reached goal) via child")
		if err != nil {
			return 0, err
		}

		if self.Value.ActionOutcomesNominallyIndependent {
			independent = append(independent, reachedGoal)
		} else {
			dependent = append(dependent, reachedGoal)
		}
	}

	dependentSum := 0.0
	for _, v := range dependent {
		dependentSum += v
	}
	independentMax := 0.0
	for i, v := range independent {
		if i == 0 || v > independentMax {
			independentMax = v
		}
	}

	return clampProbability(independentMax+dependentSum, log, "total p(reached goal)")
}

// propagateNonGoalBranch sets GoalPFeasibility to a negative
// "reachable-only-by-reversal" value for any non-root state whose current
// GoalPFeasibility is non-positive but whose parent's is positive.
func propagateNonGoalBranch[C any](t *tree.PlannerTree[C], index int) error {
	slot, err := t.At(index)
	if err != nil {
		return err
	}
	if slot.Value.GoalPFeasibility > 0 {
		return nil
	}
	parent, err := t.At(slot.ParentIndex)
	if err != nil {
		return err
	}
	if parent.Value.GoalPFeasibility <= 0 {
		return nil
	}
	current, err := t.MutableState(index)
	if err != nil {
		return err
	}
	current.GoalPFeasibility = -(parent.Value.GoalPFeasibility * slot.Value.ReverseEdgePFeasibility)
	return nil
}
