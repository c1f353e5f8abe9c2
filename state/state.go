// Package state defines PlannerState, the value type carried at every slot
// of a PlannerTree: identity, the belief particles used for matching, the
// probabilities that drive edge weighting, and the attempt/reached counters
// that online adaptation mutates.
//
// A PlannerState is generic over the configuration type C — the core never
// looks inside a configuration beyond passing it to caller-supplied
// callbacks (clustering, serialization), so C is left fully opaque.
package state

// PlannedStateIDThreshold is the boundary between planned (offline) state
// ids and runtime-learned state ids. IDs below this were produced by the
// planner; ids at or above it were synthesised during execution.
const PlannedStateIDThreshold uint64 = 1_000_000_000

// IsPlanned reports whether id identifies a state produced offline.
func IsPlanned(id uint64) bool { return id < PlannedStateIDThreshold }

// IsRuntimeLearned reports whether id identifies a state synthesised during
// execution.
func IsRuntimeLearned(id uint64) bool { return id >= PlannedStateIDThreshold }

// PlannerState is a single node of the input planner tree. It is
// value-typed and cloneable: callers may copy it freely, and the tree
// stores it by value in its slots.
type PlannerState[C any] struct {
	StateID uint64

	Configuration C
	Expectation   C
	Command       C

	// ParticlePositions are the belief particles consumed by the caller's
	// cluster predicate during matching.
	ParticlePositions []C

	RawEdgePFeasibility       float64
	EffectiveEdgePFeasibility float64
	ReverseEdgePFeasibility   float64

	// GoalPFeasibility may be negative: the sign marks "reachable only by
	// reversing to a goal-branch ancestor", the magnitude is the probability.
	GoalPFeasibility float64

	MotionPFeasibility float64
	StepSize           float64

	AttemptCount uint32
	ReachedCount uint32

	ReverseAttemptCount uint32
	ReverseReachedCount uint32

	TransitionID        uint64
	ReverseTransitionID uint64

	// SplitID is >0 iff this state is one of several outcomes of a single
	// commanded action. The value itself carries no meaning beyond that.
	SplitID uint64

	// ActionOutcomesNominallyIndependent marks that returning to the parent
	// after a wrong split outcome resamples the outcome distribution on the
	// next attempt.
	ActionOutcomesNominallyIndependent bool
}

// Clone returns a deep-enough copy: ParticlePositions gets its own backing
// array so mutating the clone's slice never aliases the original's.
func (s PlannerState[C]) Clone() PlannerState[C] {
	clone := s
	if s.ParticlePositions != nil {
		clone.ParticlePositions = append([]C(nil), s.ParticlePositions...)
	}
	return clone
}

// IsPlanned reports whether this state was produced offline.
func (s PlannerState[C]) IsPlanned() bool { return IsPlanned(s.StateID) }

// IsRuntimeLearned reports whether this state was synthesised during
// execution.
func (s PlannerState[C]) IsRuntimeLearned() bool { return IsRuntimeLearned(s.StateID) }

// GoalReachableDirectly reports whether GoalPFeasibility encodes a direct
// (non-reversal) path to the goal. A non-positive value means either
// "unreachable" (zero) or "reachable only by reversal" (negative).
func (s PlannerState[C]) GoalReachableDirectly() bool { return s.GoalPFeasibility > 0 }

// SaturatingAddUint32 returns a+b clamped to the 32-bit unsigned maximum,
// and whether clamping occurred. Used by counter updates throughout policy
// adaptation; callers that clamp should log a warning through their
// LoggingSink.
func SaturatingAddUint32(a, b uint32) (sum uint32, clamped bool) {
	if b == 0 {
		return a, false
	}
	const max = ^uint32(0)
	if a > max-b {
		return max, true
	}
	return a + b, false
}
