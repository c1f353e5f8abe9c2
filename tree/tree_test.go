package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
)

func linearTree() *PlannerTree[float64] {
	return New([]Slot[float64]{
		{Value: state.PlannerState[float64]{StateID: 0}, ParentIndex: -1, ChildIndices: []int{1}},
		{Value: state.PlannerState[float64]{StateID: 1}, ParentIndex: 0, ChildIndices: nil},
	})
}

func TestCheckLinkageValid(t *testing.T) {
	tr := linearTree()
	assert.True(t, tr.CheckLinkage())
}

func TestCheckLinkageEmptyTreeIsInvalid(t *testing.T) {
	tr := New[float64](nil)
	assert.False(t, tr.CheckLinkage())
}

func TestCheckLinkageRejectsSelfParent(t *testing.T) {
	tr := New([]Slot[float64]{
		{Value: state.PlannerState[float64]{StateID: 0}, ParentIndex: 0},
	})
	assert.False(t, tr.CheckLinkage())
}

func TestCheckLinkageRejectsMismatchedChildren(t *testing.T) {
	tr := New([]Slot[float64]{
		{Value: state.PlannerState[float64]{StateID: 0}, ParentIndex: -1, ChildIndices: []int{}},
		{Value: state.PlannerState[float64]{StateID: 1}, ParentIndex: 0},
	})
	assert.False(t, tr.CheckLinkage())
}

func TestAppendAddsChildAndKeepsLinkage(t *testing.T) {
	tr := linearTree()
	idx, err := tr.Append(state.PlannerState[float64]{StateID: 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 3, tr.Size())
	assert.True(t, tr.CheckLinkage())

	slot, err := tr.At(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, slot.ChildIndices)
}

func TestAppendRejectsOutOfRangeParent(t *testing.T) {
	tr := linearTree()
	_, err := tr.Append(state.PlannerState[float64]{StateID: 2}, 99)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestAtOutOfRange(t *testing.T) {
	tr := linearTree()
	_, err := tr.At(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = tr.At(tr.Size())
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestMutableStateAllowsInPlaceUpdate(t *testing.T) {
	tr := linearTree()
	st, err := tr.MutableState(1)
	require.NoError(t, err)
	st.AttemptCount = 7

	slot, err := tr.At(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), slot.Value.AttemptCount)
}

func TestWalkVisitsEveryIndexInOrder(t *testing.T) {
	tr := linearTree()
	var visited []int
	tr.Walk(func(index int, _ Slot[float64]) {
		visited = append(visited, index)
	})
	assert.Equal(t, []int{0, 1}, visited)
}

func TestRootIndexIsZero(t *testing.T) {
	tr := linearTree()
	assert.Equal(t, 0, tr.RootIndex())
}
