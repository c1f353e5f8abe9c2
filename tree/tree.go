// Package tree holds PlannerTree, the densely indexed ordered sequence of
// PlannerState slots produced by the planner and extended at runtime.
//
// A tree never reorders or deletes slots: indices are stable for the
// lifetime of the tree, and runtime-learned states are only ever appended.
package tree

import (
	"errors"
	"sort"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
)

// ErrEmptyTree indicates an operation required a non-empty tree.
var ErrEmptyTree = errors.New("tree: tree is empty")

// ErrBadLinkage indicates the parent/child indices of the tree are
// inconsistent: a non-root parent index out of range, or child lists not
// consistent with parent links.
var ErrBadLinkage = errors.New("tree: invalid parent/child linkage")

// ErrIndexOutOfRange indicates a slot index outside [0, tree.Size()).
var ErrIndexOutOfRange = errors.New("tree: index out of range")

// Slot is one node of the tree: a state plus its linkage to the rest of
// the tree. ParentIndex is -1 for the root. ChildIndices is kept sorted.
type Slot[C any] struct {
	Value        state.PlannerState[C]
	ParentIndex  int
	ChildIndices []int
}

// PlannerTree is the ordered sequence of Slots.
type PlannerTree[C any] struct {
	slots []Slot[C]
}

// New builds a PlannerTree from already-linked slots, exactly as received
// from the planner. The slice is copied defensively.
func New[C any](slots []Slot[C]) *PlannerTree[C] {
	t := &PlannerTree[C]{slots: append([]Slot[C](nil), slots...)}
	for i := range t.slots {
		t.slots[i].ChildIndices = append([]int(nil), t.slots[i].ChildIndices...)
	}
	return t
}

// Size returns the number of slots in the tree.
func (t *PlannerTree[C]) Size() int { return len(t.slots) }

// Empty reports whether the tree has no slots.
func (t *PlannerTree[C]) Empty() bool { return len(t.slots) == 0 }

// At returns the slot at index i.
func (t *PlannerTree[C]) At(i int) (Slot[C], error) {
	if i < 0 || i >= len(t.slots) {
		return Slot[C]{}, ErrIndexOutOfRange
	}
	return t.slots[i], nil
}

// MutableState returns a pointer to the state stored at index i, allowing
// in-place counter/probability updates without reallocating the slot.
func (t *PlannerTree[C]) MutableState(i int) (*state.PlannerState[C], error) {
	if i < 0 || i >= len(t.slots) {
		return nil, ErrIndexOutOfRange
	}
	return &t.slots[i].Value, nil
}

// ParentIndex returns the parent index of slot i, or -1 for the root.
func (t *PlannerTree[C]) ParentIndex(i int) (int, error) {
	if i < 0 || i >= len(t.slots) {
		return 0, ErrIndexOutOfRange
	}
	return t.slots[i].ParentIndex, nil
}

// ChildIndices returns the (sorted) child indices of slot i.
func (t *PlannerTree[C]) ChildIndices(i int) ([]int, error) {
	if i < 0 || i >= len(t.slots) {
		return nil, ErrIndexOutOfRange
	}
	return t.slots[i].ChildIndices, nil
}

// Append adds a new slot as a child of parentIndex, updating the parent's
// child list, and returns the new slot's index. Existing indices are never
// invalidated.
func (t *PlannerTree[C]) Append(value state.PlannerState[C], parentIndex int) (int, error) {
	if parentIndex < -1 || parentIndex >= len(t.slots) {
		return 0, ErrIndexOutOfRange
	}
	newIndex := len(t.slots)
	t.slots = append(t.slots, Slot[C]{Value: value, ParentIndex: parentIndex})
	if parentIndex >= 0 {
		t.slots[parentIndex].ChildIndices = append(t.slots[parentIndex].ChildIndices, newIndex)
		sort.Ints(t.slots[parentIndex].ChildIndices)
	}
	return newIndex, nil
}

// CheckLinkage verifies that every non-root parent index is in range, and
// that child lists are exactly the set of slots that name this slot as
// parent.
func (t *PlannerTree[C]) CheckLinkage() bool {
	if len(t.slots) == 0 {
		return false
	}
	childSets := make([][]int, len(t.slots))
	for i, s := range t.slots {
		if s.ParentIndex < -1 || s.ParentIndex >= len(t.slots) {
			return false
		}
		if s.ParentIndex == i {
			return false
		}
		if s.ParentIndex >= 0 {
			childSets[s.ParentIndex] = append(childSets[s.ParentIndex], i)
		}
	}
	for i, s := range t.slots {
		want := append([]int(nil), childSets[i]...)
		got := append([]int(nil), s.ChildIndices...)
		sort.Ints(want)
		sort.Ints(got)
		if len(want) != len(got) {
			return false
		}
		for j := range want {
			if want[j] != got[j] {
				return false
			}
		}
	}
	return true
}

// Walk invokes fn for every slot index in tree order (root first, then
// appended order). fn may read but must not mutate the tree's shape.
func (t *PlannerTree[C]) Walk(fn func(index int, slot Slot[C])) {
	for i, s := range t.slots {
		fn(i, s)
	}
}

// RootIndex returns the index of the root slot (always 0 for a non-empty
// tree, since the planner always emits the root first and runtime states
// are only appended).
func (t *PlannerTree[C]) RootIndex() int { return 0 }
