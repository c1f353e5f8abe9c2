package policy

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/tree"
)

// errShortBuffer marks a buffer that ran out of bytes mid-field.
var errShortBuffer = errors.New("policy: buffer too short")

// Serialize writes: initialized flag, planner tree (length-prefixed
// slots with parent/child arrays and the caller's state serializer),
// goal configuration, then the four tunables, every integer and float
// using the primitive little-endian contract of encoding/binary. It
// appends to buf and returns the extended buffer together with the
// number of bytes written.
func (p *Policy[C]) Serialize(buf []byte, serializer ConfigSerialize[C]) ([]byte, uint64) {
	start := len(buf)
	buf = putBool(buf, p.initialized)

	buf = putUint64(buf, uint64(p.tree.Size()))
	for i := 0; i < p.tree.Size(); i++ {
		slot, _ := p.tree.At(i)
		buf = serializeSlot(buf, slot, serializer)
	}

	buf = serializeState(buf, p.goalState, serializer)

	buf = putFloat64(buf, p.params.MarginalEdgeWeight)
	buf = putFloat64(buf, p.params.ConformantThreshold)
	buf = putUint32(buf, p.params.EdgeAttemptCap)
	buf = putUint32(buf, p.params.PolicyActionAttemptCount)

	return buf, uint64(len(buf) - start)
}

// Deserialize reconstructs a Policy from a buffer produced by Serialize.
// The graph and shortest-path result are not persisted; Deserialize
// rebuilds both before returning. It returns the policy, the number of
// bytes consumed, and any error.
func Deserialize[C any](buf []byte, offset uint64, deserializer ConfigDeserialize[C], log LoggingSink) (*Policy[C], uint64, error) {
	if log == nil {
		log = NopLogger
	}
	start := offset

	initialized, offset, err := getBool(buf, offset)
	if err != nil {
		return nil, 0, newError(InvalidInput, "truncated buffer reading initialized flag", err)
	}

	size, offset, err := getUint64(buf, offset)
	if err != nil {
		return nil, 0, newError(InvalidInput, "truncated buffer reading tree size", err)
	}

	slots := make([]tree.Slot[C], size)
	for i := range slots {
		slots[i], offset, err = deserializeSlot[C](buf, offset, deserializer)
		if err != nil {
			return nil, 0, err
		}
	}
	t := tree.New(slots)

	goalState, offset, err := deserializeState[C](buf, offset, deserializer)
	if err != nil {
		return nil, 0, err
	}

	marginalEdgeWeight, offset, err := getFloat64(buf, offset)
	if err != nil {
		return nil, 0, newError(InvalidInput, "truncated buffer reading marginal_edge_weight", err)
	}
	conformantThreshold, offset, err := getFloat64(buf, offset)
	if err != nil {
		return nil, 0, newError(InvalidInput, "truncated buffer reading conformant_threshold", err)
	}
	edgeAttemptCap, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, 0, newError(InvalidInput, "truncated buffer reading edge_attempt_cap", err)
	}
	policyActionAttemptCount, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, 0, newError(InvalidInput, "truncated buffer reading policy_action_attempt_count", err)
	}

	p := &Policy[C]{
		tree:      t,
		goalState: goalState,
		params: Parameters{
			MarginalEdgeWeight:       marginalEdgeWeight,
			ConformantThreshold:      conformantThreshold,
			EdgeAttemptCap:           edgeAttemptCap,
			PolicyActionAttemptCount: policyActionAttemptCount,
		},
		log: log,
	}

	if initialized {
		if t.Empty() || !t.CheckLinkage() {
			return nil, 0, newError(InvalidInput, "deserialised tree is empty or has invalid linkage", nil)
		}
		if err := p.Rebuild(); err != nil {
			return nil, 0, err
		}
		p.initialized = true
	}

	return p, offset - start, nil
}

func serializeSlot[C any](buf []byte, slot tree.Slot[C], serializer ConfigSerialize[C]) []byte {
	buf = serializeState(buf, slot.Value, serializer)
	buf = putInt64(buf, int64(slot.ParentIndex))
	buf = putUint64(buf, uint64(len(slot.ChildIndices)))
	for _, c := range slot.ChildIndices {
		buf = putInt64(buf, int64(c))
	}
	return buf
}

func deserializeSlot[C any](buf []byte, offset uint64, deserializer ConfigDeserialize[C]) (tree.Slot[C], uint64, error) {
	value, offset, err := deserializeState[C](buf, offset, deserializer)
	if err != nil {
		return tree.Slot[C]{}, 0, err
	}
	parentIndex, offset, err := getInt64(buf, offset)
	if err != nil {
		return tree.Slot[C]{}, 0, newError(InvalidInput, "truncated buffer reading parent index", err)
	}
	childCount, offset, err := getUint64(buf, offset)
	if err != nil {
		return tree.Slot[C]{}, 0, newError(InvalidInput, "truncated buffer reading child count", err)
	}
	children := make([]int, childCount)
	for i := range children {
		var c int64
		c, offset, err = getInt64(buf, offset)
		if err != nil {
			return tree.Slot[C]{}, 0, newError(InvalidInput, "truncated buffer reading child index", err)
		}
		children[i] = int(c)
	}
	return tree.Slot[C]{Value: value, ParentIndex: int(parentIndex), ChildIndices: children}, offset, nil
}

func serializeState[C any](buf []byte, s state.PlannerState[C], serializer ConfigSerialize[C]) []byte {
	buf = putUint64(buf, s.StateID)

	buf, _ = serializer(s.Configuration, buf)
	buf, _ = serializer(s.Expectation, buf)
	buf, _ = serializer(s.Command, buf)

	buf = putUint64(buf, uint64(len(s.ParticlePositions)))
	for _, particle := range s.ParticlePositions {
		buf, _ = serializer(particle, buf)
	}

	buf = putFloat64(buf, s.RawEdgePFeasibility)
	buf = putFloat64(buf, s.EffectiveEdgePFeasibility)
	buf = putFloat64(buf, s.ReverseEdgePFeasibility)
	buf = putFloat64(buf, s.GoalPFeasibility)
	buf = putFloat64(buf, s.MotionPFeasibility)
	buf = putFloat64(buf, s.StepSize)

	buf = putUint32(buf, s.AttemptCount)
	buf = putUint32(buf, s.ReachedCount)
	buf = putUint32(buf, s.ReverseAttemptCount)
	buf = putUint32(buf, s.ReverseReachedCount)

	buf = putUint64(buf, s.TransitionID)
	buf = putUint64(buf, s.ReverseTransitionID)
	buf = putUint64(buf, s.SplitID)

	buf = putBool(buf, s.ActionOutcomesNominallyIndependent)
	return buf
}

func deserializeState[C any](buf []byte, offset uint64, deserializer ConfigDeserialize[C]) (state.PlannerState[C], uint64, error) {
	var s state.PlannerState[C]
	var err error

	s.StateID, offset, err = getUint64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading state_id", err)
	}

	s.Configuration, offset, err = deserializer(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "configuration deserializer failed", err)
	}
	s.Expectation, offset, err = deserializer(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "expectation deserializer failed", err)
	}
	s.Command, offset, err = deserializer(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "command deserializer failed", err)
	}

	particleCount, offset, err := getUint64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading particle count", err)
	}
	if particleCount > 0 {
		s.ParticlePositions = make([]C, particleCount)
	}
	for i := range s.ParticlePositions {
		s.ParticlePositions[i], offset, err = deserializer(buf, offset)
		if err != nil {
			return s, 0, newError(InvalidInput, "particle deserializer failed", err)
		}
	}

	s.RawEdgePFeasibility, offset, err = getFloat64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading raw_edge_Pfeasibility", err)
	}
	s.EffectiveEdgePFeasibility, offset, err = getFloat64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading effective_edge_Pfeasibility", err)
	}
	s.ReverseEdgePFeasibility, offset, err = getFloat64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading reverse_edge_Pfeasibility", err)
	}
	s.GoalPFeasibility, offset, err = getFloat64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading goal_Pfeasibility", err)
	}
	s.MotionPFeasibility, offset, err = getFloat64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading motion_Pfeasibility", err)
	}
	s.StepSize, offset, err = getFloat64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading step_size", err)
	}

	s.AttemptCount, offset, err = getUint32(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading attempt_count", err)
	}
	s.ReachedCount, offset, err = getUint32(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading reached_count", err)
	}
	s.ReverseAttemptCount, offset, err = getUint32(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading reverse_attempt_count", err)
	}
	s.ReverseReachedCount, offset, err = getUint32(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading reverse_reached_count", err)
	}

	s.TransitionID, offset, err = getUint64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading transition_id", err)
	}
	s.ReverseTransitionID, offset, err = getUint64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading reverse_transition_id", err)
	}
	s.SplitID, offset, err = getUint64(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading split_id", err)
	}

	s.ActionOutcomesNominallyIndependent, offset, err = getBool(buf, offset)
	if err != nil {
		return s, 0, newError(InvalidInput, "truncated buffer reading action_outcomes_nominally_independent", err)
	}

	return s, offset, nil
}

func putUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func putInt64(buf []byte, v int64) []byte {
	return putUint64(buf, uint64(v))
}

func putUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func putFloat64(buf []byte, v float64) []byte {
	return putUint64(buf, math.Float64bits(v))
}

func putBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func getUint64(buf []byte, offset uint64) (uint64, uint64, error) {
	if offset+8 > uint64(len(buf)) {
		return 0, offset, errShortBuffer
	}
	return binary.LittleEndian.Uint64(buf[offset : offset+8]), offset + 8, nil
}

func getInt64(buf []byte, offset uint64) (int64, uint64, error) {
	v, offset, err := getUint64(buf, offset)
	return int64(v), offset, err
}

func getUint32(buf []byte, offset uint64) (uint32, uint64, error) {
	if offset+4 > uint64(len(buf)) {
		return 0, offset, errShortBuffer
	}
	return binary.LittleEndian.Uint32(buf[offset : offset+4]), offset + 4, nil
}

func getFloat64(buf []byte, offset uint64) (float64, uint64, error) {
	bits, offset, err := getUint64(buf, offset)
	return math.Float64frombits(bits), offset, err
}

func getBool(buf []byte, offset uint64) (bool, uint64, error) {
	if offset+1 > uint64(len(buf)) {
		return false, offset, errShortBuffer
	}
	return buf[offset] != 0, offset + 1, nil
}
