package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlannedVsRuntimeLearned(t *testing.T) {
	assert.True(t, IsPlanned(0))
	assert.True(t, IsPlanned(PlannedStateIDThreshold-1))
	assert.False(t, IsPlanned(PlannedStateIDThreshold))
	assert.True(t, IsRuntimeLearned(PlannedStateIDThreshold))
	assert.False(t, IsRuntimeLearned(PlannedStateIDThreshold-1))
}

func TestCloneDeepCopiesParticles(t *testing.T) {
	original := PlannerState[float64]{
		StateID:           1,
		ParticlePositions: []float64{1.0, 2.0},
	}
	clone := original.Clone()
	clone.ParticlePositions[0] = 99.0

	assert.Equal(t, 1.0, original.ParticlePositions[0])
	assert.Equal(t, 99.0, clone.ParticlePositions[0])
}

func TestCloneNilParticles(t *testing.T) {
	original := PlannerState[float64]{StateID: 1}
	clone := original.Clone()
	assert.Nil(t, clone.ParticlePositions)
}

func TestGoalReachableDirectly(t *testing.T) {
	assert.True(t, PlannerState[float64]{GoalPFeasibility: 0.5}.GoalReachableDirectly())
	assert.False(t, PlannerState[float64]{GoalPFeasibility: 0}.GoalReachableDirectly())
	assert.False(t, PlannerState[float64]{GoalPFeasibility: -0.5}.GoalReachableDirectly())
}

func TestSaturatingAddUint32(t *testing.T) {
	sum, clamped := SaturatingAddUint32(1, 2)
	assert.Equal(t, uint32(3), sum)
	assert.False(t, clamped)

	max := ^uint32(0)
	sum, clamped = SaturatingAddUint32(max-1, 5)
	assert.Equal(t, max, sum)
	assert.True(t, clamped)

	sum, clamped = SaturatingAddUint32(max, 0)
	assert.Equal(t, max, sum)
	assert.False(t, clamped)
}
