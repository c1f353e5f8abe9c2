package policy

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// TransitionIDAllocator hands out collision-resistant transition ids for
// callers who would rather not rely on the deterministic
// tree.Size()+state.PlannedStateIDThreshold counter that synthesizeRuntimeState
// uses by default. Both schemes are valid: a transition id only needs to be
// unique within one policy's lifetime and nonzero (0 is reserved by
// QueryBestAction to mean "no action performed yet").
type TransitionIDAllocator struct{}

// NewTransitionIDAllocator returns a ready-to-use allocator. It carries no
// state: every id is derived fresh from a random UUID.
func NewTransitionIDAllocator() *TransitionIDAllocator {
	return &TransitionIDAllocator{}
}

// Next returns a new transition id, guaranteed nonzero.
func (a *TransitionIDAllocator) Next() uint64 {
	for {
		id := uuid.New()
		v := binary.LittleEndian.Uint64(id[:8])
		if v != 0 {
			return v
		}
	}
}
