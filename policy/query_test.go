package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBestActionForwardMatchAdvancesTowardGoal(t *testing.T) {
	p := newLinearPolicy(t)

	result, err := p.QueryBestAction(101, 1.0, false, true, withinHalf)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CurrentIndex)
	assert.False(t, result.IsReverse)
	assert.Equal(t, uint64(102), result.TransitionID)
	assert.Equal(t, 2.0, result.Command)
	assert.Equal(t, 2.0, result.ExpectedResult)
}

func TestQueryBestActionBranchJumpFindsDistantMatch(t *testing.T) {
	p := newLinearPolicy(t)

	// 0.1 matches no candidate of transition 101 (node 1) or its children
	// (node 2), so this only succeeds by scanning the whole tree.
	result, err := p.QueryBestAction(101, 0.1, true, true, withinHalf)
	require.NoError(t, err)

	assert.Equal(t, 0, result.CurrentIndex)
	assert.False(t, result.IsReverse)
	assert.Equal(t, uint64(101), result.TransitionID)
	assert.Equal(t, 1.0, result.Command)
	assert.Equal(t, 1.0, result.ExpectedResult)
}

func TestQueryBestActionSynthesizesRuntimeStateWhenNothingMatches(t *testing.T) {
	p := newLinearPolicy(t)

	// 5.0 matches no existing state anywhere in the tree, and branch
	// jumping is disabled, forcing synthesis of a new runtime-learned
	// child of node 0 and a recursive re-query that must now match it.
	result, err := p.QueryBestAction(101, 5.0, false, true, withinHalf)
	require.NoError(t, err)

	assert.Equal(t, 3, result.CurrentIndex)
	// The synthesized state's id sits far above node 0's, so unwinding
	// back to it is classified as a reverse action regardless of how the
	// state was created.
	assert.True(t, result.IsReverse)
	assert.Equal(t, 0.0, result.Command)
	assert.Equal(t, 0.0, result.ExpectedResult)

	slot, err := p.tree.At(3)
	require.NoError(t, err)
	assert.True(t, slot.Value.IsRuntimeLearned())
	assert.Equal(t, uint64(101), slot.Value.TransitionID)
	assert.Equal(t, result.TransitionID, slot.Value.ReverseTransitionID)
}

func TestQueryBestActionColdStartDelegatesToStartQuery(t *testing.T) {
	p := newLinearPolicy(t)

	result, err := p.QueryBestAction(0, 0.0, false, true, withinHalf)
	require.NoError(t, err)
	assert.Equal(t, 0, result.CurrentIndex)
}

func TestQueryNormalBestActionFailsWhenTransitionIDIsUnknown(t *testing.T) {
	p := newLinearPolicy(t)

	_, err := p.QueryBestAction(999, 1.0, false, true, withinHalf)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, InternalError, kind)
}

func TestQueryNextActionRejectsOutOfRangeIndex(t *testing.T) {
	p := newLinearPolicy(t)
	_, err := p.queryNextAction(p.graph.Size())
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, InvalidInput, kind)
}

func TestQueryNextActionAtGoalRepeatsExpectation(t *testing.T) {
	p := newLinearPolicy(t)
	result, err := p.queryNextAction(2)
	require.NoError(t, err)
	assert.Equal(t, 2, result.CurrentIndex)
	assert.False(t, result.IsReverse)
	assert.Equal(t, 2.0, result.Command)
	assert.Equal(t, 2.0, result.ExpectedResult)
}

func TestQueryOutputIsIdenticalAfterSerializeRoundTrip(t *testing.T) {
	p := newLinearPolicy(t)

	before, err := p.QueryBestAction(0, 0.0, false, true, withinHalf)
	require.NoError(t, err)

	buf, _ := p.Serialize(nil, serializeFloat64ForTest)
	restored, _, err := Deserialize[float64](buf, 0, deserializeFloat64ForTest, nil)
	require.NoError(t, err)

	after, err := restored.QueryBestAction(0, 0.0, false, true, withinHalf)
	require.NoError(t, err)

	assert.Equal(t, before, after)
}

func TestMatchCandidatesUsesParentParticlesForReverseEntries(t *testing.T) {
	p := newLinearPolicy(t)
	// Reverse candidate at index 2 should be matched against node 1's
	// particle positions (its parent), not node 2's own.
	matches, err := p.matchCandidates([]candidate{{StateIndex: 2, Reverse: true}}, 1.0, withinHalf)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].StateIndex)

	noMatches, err := p.matchCandidates([]candidate{{StateIndex: 2, Reverse: true}}, 5.0, withinHalf)
	require.NoError(t, err)
	assert.Empty(t, noMatches)
}
