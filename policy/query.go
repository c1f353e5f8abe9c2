package policy

import (
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/policygraph"
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
)

// QueryResult is the outcome of a query: the chosen current tree index,
// the transition to command next, the command and expected-result
// configurations, the expected remaining cost to goal, and whether the
// commanded action is a reversal.
type QueryResult[C any] struct {
	CurrentIndex       int
	TransitionID       uint64
	Command            C
	ExpectedResult     C
	ExpectedCostToGoal float64
	IsReverse          bool
}

// QueryBestAction decides the next action to command given the outcome of
// the previously commanded transition. performedTransitionID==0 means
// "we have not yet performed any action" and triggers the cold-start
// scan; any other value triggers the normal candidate-harvest query.
func (p *Policy[C]) QueryBestAction(
	performedTransitionID uint64,
	currentConfig C,
	allowBranchJumping bool,
	linkRuntimeStatesToPlannedParent bool,
	predicate ClusterPredicate[C],
) (QueryResult[C], error) {
	if err := p.checkInitialized(); err != nil {
		return QueryResult[C]{}, err
	}
	p.lastObservedConfig = currentConfig
	if performedTransitionID == 0 {
		return p.queryStartBestAction(currentConfig, predicate)
	}
	return p.queryNormalBestAction(performedTransitionID, currentConfig, allowBranchJumping, linkRuntimeStatesToPlannedParent, predicate)
}

func (p *Policy[C]) queryStartBestAction(currentConfig C, predicate ClusterPredicate[C]) (QueryResult[C], error) {
	best := p.findBestMatchingState(currentConfig, predicate)
	if best < 0 {
		return QueryResult[C]{}, newError(NotCovered, "starting configuration matches no state in the policy", nil)
	}
	p.log("starting configuration best matches node", 2)
	return p.queryNextAction(best)
}

// candidate is one possible result state of a performed transition:
// StateIndex names the tree slot, Reverse marks whether this candidate
// represents reversing out of StateIndex back to its parent.
type candidate struct {
	StateIndex int
	Reverse    bool
}

func (p *Policy[C]) queryNormalBestAction(
	performedTransitionID uint64,
	currentConfig C,
	allowBranchJumping bool,
	linkRuntimeStatesToPlannedParent bool,
	predicate ClusterPredicate[C],
) (QueryResult[C], error) {
	possibleByPrevious := make(map[int][]candidate)
	previousStateID := make(map[int]uint64)

	t := p.tree
	for i := 0; i < t.Size(); i++ {
		slot, err := t.At(i)
		if err != nil {
			return QueryResult[C]{}, newError(InternalError, "tree walk failed", err)
		}
		switch {
		case slot.Value.TransitionID == performedTransitionID:
			parentIdx := slot.ParentIndex
			parentSlot, err := t.At(parentIdx)
			if err != nil {
				return QueryResult[C]{}, newError(InternalError, "forward candidate has no parent", err)
			}
			possibleByPrevious[parentIdx] = append(possibleByPrevious[parentIdx], candidate{StateIndex: i, Reverse: false})
			previousStateID[parentIdx] = parentSlot.Value.StateID
		case slot.Value.ReverseTransitionID == performedTransitionID:
			possibleByPrevious[i] = append(possibleByPrevious[i], candidate{StateIndex: i, Reverse: true})
			previousStateID[i] = slot.Value.StateID
		}
	}

	previousIndex := -1
	if len(previousStateID) > 1 {
		p.log("multiple previous state index possibilities", 1)
		// Prefer a planned origin (state_id below the runtime-learned
		// threshold); among planned origins, the smallest tree index wins,
		// for determinism.
		for idx, id := range previousStateID {
			if id >= state.PlannedStateIDThreshold {
				continue
			}
			if previousIndex < 0 || idx < previousIndex {
				previousIndex = idx
			}
		}
		if previousIndex < 0 {
			for idx := range previousStateID {
				if previousIndex < 0 || idx < previousIndex {
					previousIndex = idx
				}
			}
		}
	} else {
		for idx := range previousStateID {
			previousIndex = idx
		}
	}

	possible := possibleByPrevious[previousIndex]
	if len(possible) == 0 {
		return QueryResult[C]{}, newError(InternalError, "expected result set is empty", nil)
	}

	matches, err := p.matchCandidates(possible, currentConfig, predicate)
	if err != nil {
		return QueryResult[C]{}, err
	}

	if len(matches) > 0 {
		resultIndex, err := p.updateCountsAndPick(possible, matches)
		if err != nil {
			return QueryResult[C]{}, err
		}
		if err := p.Rebuild(); err != nil {
			return QueryResult[C]{}, err
		}
		return p.queryNextAction(resultIndex)
	}

	var childCandidates []candidate
	for _, c := range possible {
		matchIdx := c.StateIndex
		if c.Reverse {
			slot, err := t.At(c.StateIndex)
			if err != nil {
				return QueryResult[C]{}, err
			}
			matchIdx = slot.ParentIndex
		}
		slot, err := t.At(matchIdx)
		if err != nil {
			return QueryResult[C]{}, err
		}
		for _, child := range slot.ChildIndices {
			childCandidates = append(childCandidates, candidate{StateIndex: child, Reverse: false})
		}
	}

	childMatches, err := p.matchCandidates(childCandidates, currentConfig, predicate)
	if err != nil {
		return QueryResult[C]{}, err
	}
	if len(childMatches) > 0 {
		bestIdx, bestDist := -1, policygraph.Unreachable
		for _, c := range childMatches {
			resolved := c.StateIndex
			if c.Reverse {
				slot, err := t.At(c.StateIndex)
				if err != nil {
					return QueryResult[C]{}, err
				}
				resolved = slot.ParentIndex
			}
			if p.dist.Distance[resolved] < bestDist {
				bestIdx, bestDist = resolved, p.dist.Distance[resolved]
			}
		}
		return p.queryNextAction(bestIdx)
	}

	if allowBranchJumping {
		if best := p.findBestMatchingState(currentConfig, predicate); best >= 0 {
			p.log("branch jumping found a best-matching state", 2)
			return p.queryNextAction(best)
		}
		p.log("branch jumping failed to find a matching state", 3)
	}

	_, err = p.synthesizeRuntimeState(previousIndex, possible, performedTransitionID, linkRuntimeStatesToPlannedParent)
	if err != nil {
		return QueryResult[C]{}, err
	}
	if err := p.Rebuild(); err != nil {
		return QueryResult[C]{}, err
	}
	return p.queryNormalBestAction(performedTransitionID, currentConfig, allowBranchJumping, linkRuntimeStatesToPlannedParent, predicate)
}

// matchCandidates applies predicate against each candidate's particle
// positions (using the parent's particles for reverse entries).
func (p *Policy[C]) matchCandidates(candidates []candidate, currentConfig C, predicate ClusterPredicate[C]) ([]candidate, error) {
	var matches []candidate
	for _, c := range candidates {
		particleIdx := c.StateIndex
		if c.Reverse {
			slot, err := p.tree.At(c.StateIndex)
			if err != nil {
				return nil, err
			}
			particleIdx = slot.ParentIndex
		}
		slot, err := p.tree.At(particleIdx)
		if err != nil {
			return nil, err
		}
		if predicate(slot.Value.ParticlePositions, currentConfig) {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// queryNextAction reads the shortest-path predecessor of i and turns it
// into a command.
func (p *Policy[C]) queryNextAction(i int) (QueryResult[C], error) {
	if i < 0 || i >= p.graph.Size() {
		return QueryResult[C]{}, newError(InvalidInput, "current_state_index is out of range", nil)
	}
	resultState, err := p.graph.Value(i)
	if err != nil {
		return QueryResult[C]{}, err
	}
	targetIndex := p.dist.PreviousIndex[i]
	expectedCost := p.dist.Distance[i]
	if targetIndex < 0 {
		return QueryResult[C]{}, newError(NoSolution, "policy no longer has a solution", nil)
	}
	if targetIndex == p.graph.SinkIndex() {
		p.log("already at a goal state - repeating transition to command to our expectation", 3)
		return QueryResult[C]{
			CurrentIndex:       i,
			TransitionID:       resultState.TransitionID,
			Command:            resultState.Expectation,
			ExpectedResult:     resultState.Expectation,
			ExpectedCostToGoal: expectedCost,
			IsReverse:          false,
		}, nil
	}

	targetState, err := p.graph.Value(targetIndex)
	if err != nil {
		return QueryResult[C]{}, err
	}

	switch {
	case resultState.StateID < targetState.StateID:
		p.log("returning forward action", 2)
		return QueryResult[C]{
			CurrentIndex:       i,
			TransitionID:       targetState.TransitionID,
			Command:            targetState.Command,
			ExpectedResult:     targetState.Expectation,
			ExpectedCostToGoal: expectedCost,
			IsReverse:          false,
		}, nil
	case targetState.StateID < resultState.StateID:
		p.log("returning reverse action", 2)
		return QueryResult[C]{
			CurrentIndex:       i,
			TransitionID:       resultState.ReverseTransitionID,
			Command:            targetState.Expectation,
			ExpectedResult:     targetState.Expectation,
			ExpectedCostToGoal: expectedCost,
			IsReverse:          true,
		}, nil
	default:
		return QueryResult[C]{}, newError(InternalError, "target_state_id cannot equal result_state_id", nil)
	}
}
