package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
)

func TestSynthesizeRuntimeStateForwardAppendsChild(t *testing.T) {
	p := newLinearPolicy(t)
	p.lastObservedConfig = 1.4

	possible := []candidate{{StateIndex: 1, Reverse: false}}
	newIndex, err := p.synthesizeRuntimeState(0, possible, 101, true)
	require.NoError(t, err)

	slot, err := p.tree.At(newIndex)
	require.NoError(t, err)
	assert.True(t, slot.Value.IsRuntimeLearned())
	assert.Equal(t, 0, slot.ParentIndex)
	assert.Equal(t, 1.4, slot.Value.Configuration)
	assert.Equal(t, 1.4, slot.Value.Expectation)
	assert.Equal(t, []float64{1.4}, slot.Value.ParticlePositions)
	assert.Equal(t, uint64(101), slot.Value.TransitionID)
	// Inherits the template candidate's feasibility estimates so the new
	// state is reachable before any online observation refines them.
	assert.Equal(t, 1.0, slot.Value.RawEdgePFeasibility)
	assert.Equal(t, 1.0, slot.Value.ReverseEdgePFeasibility)
}

func TestSynthesizeRuntimeStateForwardRejectsEmptyCandidates(t *testing.T) {
	p := newLinearPolicy(t)
	p.lastObservedConfig = 1.4

	_, err := p.synthesizeRuntimeState(0, nil, 101, true)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, InternalError, kind)
}

func TestSynthesizeRuntimeStateReversalLinksToPlannedParent(t *testing.T) {
	p := newLinearPolicy(t)
	p.lastObservedConfig = 0.6

	// previousIndex=1 is itself a planned state, so the walk up to the
	// nearest planned ancestor stops immediately at 1.
	possible := []candidate{{StateIndex: 1, Reverse: true}}
	newIndex, err := p.synthesizeRuntimeState(1, possible, 201, true)
	require.NoError(t, err)

	slot, err := p.tree.At(newIndex)
	require.NoError(t, err)
	assert.Equal(t, 1, slot.ParentIndex)
	assert.Equal(t, uint64(201), slot.Value.TransitionID)
	// Copied from node 1's ReverseAttemptCount, which the fixture leaves at 0.
	assert.Equal(t, uint32(0), slot.Value.AttemptCount)

	parent, err := p.tree.At(1)
	require.NoError(t, err)
	assert.Equal(t, parent.Value.Expectation, slot.Value.Command)
	assert.Equal(t, 1.0, slot.Value.RawEdgePFeasibility)
	assert.Equal(t, 1.0, slot.Value.ReverseEdgePFeasibility)
}

func TestSynthesizeRuntimeStateReversalWalksUpMultipleRuntimeLevels(t *testing.T) {
	p := newLinearPolicy(t)

	// Build a runtime-learned grandchild of the planned node 1: node1 ->
	// runtimeA (index 3) -> runtimeB (index 4), both with ids above the
	// threshold.
	runtimeA := state.PlannerState[float64]{
		StateID:             state.PlannedStateIDThreshold,
		ReverseTransitionID: 301,
	}
	idxA, err := p.tree.Append(runtimeA, 1)
	require.NoError(t, err)

	runtimeB := state.PlannerState[float64]{
		StateID:             state.PlannedStateIDThreshold + 1,
		ReverseTransitionID: 302,
	}
	idxB, err := p.tree.Append(runtimeB, idxA)
	require.NoError(t, err)

	p.lastObservedConfig = 0.9
	possible := []candidate{{StateIndex: idxB, Reverse: true}}
	newIndex, err := p.synthesizeRuntimeState(idxB, possible, 302, true)
	require.NoError(t, err)

	slot, err := p.tree.At(newIndex)
	require.NoError(t, err)
	// link_runtime_states_to_planned_parent walks past both runtime
	// levels and attaches the new state to node 1, the nearest planned
	// ancestor, not to idxB itself.
	assert.Equal(t, 1, slot.ParentIndex)
}

func TestSynthesizeRuntimeStateNewIDIsAboveThreshold(t *testing.T) {
	p := newLinearPolicy(t)
	p.lastObservedConfig = 1.4

	possible := []candidate{{StateIndex: 1, Reverse: false}}
	newIndex, err := p.synthesizeRuntimeState(0, possible, 101, true)
	require.NoError(t, err)

	slot, err := p.tree.At(newIndex)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, slot.Value.StateID, state.PlannedStateIDThreshold)
}
