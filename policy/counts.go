package policy

import (
	"errors"
	"fmt"

	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/probmaint"
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
)

// resolvedIndex returns the tree index a candidate refers to for distance
// comparisons and counter updates: the state itself for a forward
// candidate, its parent for a reverse candidate.
func (p *Policy[C]) resolvedIndex(c candidate) (int, error) {
	if !c.Reverse {
		return c.StateIndex, nil
	}
	slot, err := p.tree.At(c.StateIndex)
	if err != nil {
		return 0, err
	}
	return slot.ParentIndex, nil
}

// updateCountsAndPick updates attempt/reached counters for every possible
// outcome of the performed transition, and returns the tree index of the
// chosen best result.
func (p *Policy[C]) updateCountsAndPick(possible, matches []candidate) (int, error) {
	if len(possible) == 1 && len(matches) == 1 {
		return p.incrementSingleton(possible[0])
	}

	bestIdx, bestDistIdx := -1, -1
	bestDist := 0.0
	for _, m := range matches {
		resolved, err := p.resolvedIndex(m)
		if err != nil {
			return 0, err
		}
		d := p.dist.Distance[resolved]
		if bestDistIdx < 0 || d < bestDist {
			bestIdx, bestDistIdx, bestDist = resolved, resolved, d
		}
	}
	if bestIdx < 0 {
		return 0, newError(InternalError, "could not identify best result state", nil)
	}

	isBest := func(c candidate) (bool, error) {
		resolved, err := p.resolvedIndex(c)
		if err != nil {
			return false, err
		}
		return resolved == bestIdx, nil
	}

	for _, c := range possible {
		best, err := isBest(c)
		if err != nil {
			return 0, err
		}
		reachedIncrement := uint32(0)
		if best {
			reachedIncrement = p.params.PolicyActionAttemptCount
		}
		if err := p.addCounts(c, p.params.PolicyActionAttemptCount, reachedIncrement); err != nil {
			return 0, err
		}
	}

	if err := probmaint.Update(p.tree, p.params.EdgeAttemptCap, probmaint.Logger(p.log)); err != nil {
		return 0, translateProbErr(err)
	}
	return bestIdx, nil
}

func (p *Policy[C]) incrementSingleton(c candidate) (int, error) {
	resolved, err := p.resolvedIndex(c)
	if err != nil {
		return 0, err
	}
	if err := p.addCounts(c, p.params.PolicyActionAttemptCount, p.params.PolicyActionAttemptCount); err != nil {
		return 0, err
	}
	return resolved, nil
}

// addCounts applies attemptIncrement/reachedIncrement to the appropriate
// (forward or reverse) counters of the state the candidate denotes, and
// re-derives that direction's edge feasibility as reached/attempt once the
// attempt counter is nonzero.
func (p *Policy[C]) addCounts(c candidate, attemptIncrement, reachedIncrement uint32) error {
	st, err := p.tree.MutableState(c.StateIndex)
	if err != nil {
		return err
	}
	if !c.Reverse {
		attempt, clamped := state.SaturatingAddUint32(st.AttemptCount, attemptIncrement)
		if clamped {
			p.log(fmt.Sprintf("attempt_count overflow for state %d", c.StateIndex), 1)
		}
		reached, clamped := state.SaturatingAddUint32(st.ReachedCount, reachedIncrement)
		if clamped {
			p.log(fmt.Sprintf("reached_count overflow for state %d", c.StateIndex), 1)
		}
		st.AttemptCount, st.ReachedCount = attempt, reached
		if attempt > 0 {
			st.RawEdgePFeasibility = float64(reached) / float64(attempt)
		}
		return nil
	}
	attempt, clamped := state.SaturatingAddUint32(st.ReverseAttemptCount, attemptIncrement)
	if clamped {
		p.log(fmt.Sprintf("reverse_attempt_count overflow for state %d", c.StateIndex), 1)
	}
	reached, clamped := state.SaturatingAddUint32(st.ReverseReachedCount, reachedIncrement)
	if clamped {
		p.log(fmt.Sprintf("reverse_reached_count overflow for state %d", c.StateIndex), 1)
	}
	st.ReverseAttemptCount, st.ReverseReachedCount = attempt, reached
	if attempt > 0 {
		st.ReverseEdgePFeasibility = float64(reached) / float64(attempt)
	}
	return nil
}

func translateProbErr(err error) error {
	if errors.Is(err, probmaint.ErrOutOfRange) {
		return newError(InternalError, "probability maintenance produced an out-of-range value", err)
	}
	return newError(InternalError, "probability maintenance failed", err)
}
