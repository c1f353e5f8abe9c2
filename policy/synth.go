package policy

import (
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
)

// synthesizeRuntimeState appends a new runtime-learned state when no
// expected result or expected-result-child matched the observed
// configuration. It returns the new state's tree index; the caller is
// responsible for rebuilding and re-querying.
func (p *Policy[C]) synthesizeRuntimeState(
	previousIndex int,
	possible []candidate,
	performedTransitionID uint64,
	linkRuntimeStatesToPlannedParent bool,
) (int, error) {
	t := p.tree
	previousSlot, err := t.At(previousIndex)
	if err != nil {
		return 0, err
	}

	newStateID := uint64(t.Size()) + state.PlannedStateIDThreshold
	reverseTransitionID := uint64(t.Size()) + state.PlannedStateIDThreshold
	isReversal := performedTransitionID == previousSlot.Value.ReverseTransitionID

	newState := state.PlannerState[C]{
		StateID:                            newStateID,
		ReachedCount:                       0,
		EffectiveEdgePFeasibility:          0,
		ReverseAttemptCount:                1,
		ReverseReachedCount:                1,
		MotionPFeasibility:                 previousSlot.Value.MotionPFeasibility,
		StepSize:                           previousSlot.Value.StepSize,
		TransitionID:                       performedTransitionID,
		ReverseTransitionID:                reverseTransitionID,
		ActionOutcomesNominallyIndependent: true,
	}

	actingParentIndex := previousIndex

	if isReversal {
		if linkRuntimeStatesToPlannedParent {
			working := previousIndex
			for {
				slot, err := t.At(working)
				if err != nil {
					return 0, err
				}
				if slot.Value.IsPlanned() {
					actingParentIndex = working
					break
				}
				working = slot.ParentIndex
			}
		} else {
			actingParentIndex = previousSlot.ParentIndex
		}
		parentSlot, err := t.At(actingParentIndex)
		if err != nil {
			return 0, err
		}
		newState.Command = parentSlot.Value.Expectation
		newState.AttemptCount = previousSlot.Value.ReverseAttemptCount
		newState.SplitID = performedTransitionID
		newState.RawEdgePFeasibility = previousSlot.Value.RawEdgePFeasibility
		newState.ReverseEdgePFeasibility = previousSlot.Value.ReverseEdgePFeasibility
		p.log("adding a new reversed state", 2)
	} else {
		if len(possible) == 0 {
			return 0, newError(InternalError, "no expected result to synthesize a forward state from", nil)
		}
		first := possible[0]
		if first.Reverse {
			return 0, newError(InternalError, "reversals cannot result in a parent index lookup", nil)
		}
		firstSlot, err := t.At(first.StateIndex)
		if err != nil {
			return 0, err
		}
		newState.Command = firstSlot.Value.Command
		newState.AttemptCount = firstSlot.Value.AttemptCount
		newState.SplitID = firstSlot.Value.SplitID
		newState.RawEdgePFeasibility = firstSlot.Value.RawEdgePFeasibility
		newState.ReverseEdgePFeasibility = firstSlot.Value.ReverseEdgePFeasibility
		p.log("adding a new forward state", 2)
	}

	newState.Configuration = p.lastObservedConfig
	newState.Expectation = p.lastObservedConfig
	newState.ParticlePositions = []C{p.lastObservedConfig}

	newIndex, err := t.Append(newState, actingParentIndex)
	if err != nil {
		return 0, err
	}
	return newIndex, nil
}
