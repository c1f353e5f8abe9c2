package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvedIndexForwardIsStateIndexItself(t *testing.T) {
	p := newLinearPolicy(t)
	idx, err := p.resolvedIndex(candidate{StateIndex: 2, Reverse: false})
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestResolvedIndexReverseIsParentIndex(t *testing.T) {
	p := newLinearPolicy(t)
	idx, err := p.resolvedIndex(candidate{StateIndex: 2, Reverse: true})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestIncrementSingletonUpdatesForwardCounters(t *testing.T) {
	p := newLinearPolicy(t)
	resolved, err := p.incrementSingleton(candidate{StateIndex: 1, Reverse: false})
	require.NoError(t, err)
	assert.Equal(t, 1, resolved)

	slot, err := p.tree.At(1)
	require.NoError(t, err)
	assert.Equal(t, p.params.PolicyActionAttemptCount, slot.Value.AttemptCount)
	assert.Equal(t, p.params.PolicyActionAttemptCount, slot.Value.ReachedCount)
}

func TestIncrementSingletonUpdatesReverseCounters(t *testing.T) {
	p := newLinearPolicy(t)
	_, err := p.incrementSingleton(candidate{StateIndex: 1, Reverse: true})
	require.NoError(t, err)

	slot, err := p.tree.At(1)
	require.NoError(t, err)
	assert.Equal(t, p.params.PolicyActionAttemptCount, slot.Value.ReverseAttemptCount)
	assert.Equal(t, p.params.PolicyActionAttemptCount, slot.Value.ReverseReachedCount)
}

func TestUpdateCountsAndPickFavorsClosestMatch(t *testing.T) {
	p := newLinearPolicy(t)
	possible := []candidate{
		{StateIndex: 1, Reverse: false},
		{StateIndex: 2, Reverse: false},
	}
	matches := possible
	best, err := p.updateCountsAndPick(possible, matches)
	require.NoError(t, err)
	// Node 2 is closer to the goal sink than node 1, so it wins.
	assert.Equal(t, 2, best)
}
