// Package policy implements PolicyCore: the owner of a PlannerTree, the
// PolicyGraph and ShortestPathResult derived from it, and the operations
// that turn an observed execution outcome into the next commanded action.
//
// A Policy is generic over the configuration type C, exactly like
// state.PlannerState. It never interprets C itself; every operation that
// needs to reason about configurations goes through a caller-supplied
// function value (ClusterPredicate, ConfigSerializer, StatePrinter).
package policy

import (
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/graphbuilder"
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/policygraph"
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/state"
	"github.com/ToyotaResearchInstitute/uncertainty-planning-core/tree"
)

// ClusterPredicate reports whether currentConfig belongs to the cluster
// represented by particles. It MUST be pure and safe to call concurrently
// from multiple goroutines — Policy invokes it from parallel scans during
// cold-start and branch-jump queries, and will produce non-deterministic
// results (or crash) if this contract is violated.
type ClusterPredicate[C any] func(particles []C, currentConfig C) bool

// ConfigSerialize appends cfg's bytes to buf and returns the new buffer
// along with the number of bytes written.
type ConfigSerialize[C any] func(cfg C, buf []byte) ([]byte, uint64)

// ConfigDeserialize reads a configuration beginning at offset in buf,
// returning the configuration and the number of bytes consumed.
type ConfigDeserialize[C any] func(buf []byte, offset uint64) (C, uint64, error)

// LoggingSink receives informational messages; level is 1=warn, 2=info,
// 3=debug/notice. It must never fail and never affects control flow.
type LoggingSink func(message string, level int)

// NopLogger is a LoggingSink that discards every message.
func NopLogger(string, int) {}

// StatePrinter renders a single configuration for PrintHumanReadable.
type StatePrinter[C any] func(C) string

// Parameters bundles the tunables that affect both edge weighting and
// counter updates.
type Parameters struct {
	MarginalEdgeWeight       float64
	ConformantThreshold      float64
	EdgeAttemptCap           uint32
	PolicyActionAttemptCount uint32
}

// Policy owns exactly one PlannerTree, one PolicyGraph, and one
// ShortestPathResult (the derived graph + distances are recomputed whole
// after every tree mutation or parameter change).
type Policy[C any] struct {
	initialized bool

	tree  *tree.PlannerTree[C]
	graph *policygraph.Graph[C]
	dist  policygraph.ShortestPathResult

	goalState state.PlannerState[C]
	params    Parameters

	log LoggingSink

	// lastObservedConfig is the most recent currentConfig passed to
	// QueryBestAction, used as the Configuration/Expectation of any
	// runtime-learned state synthesized in response to it.
	lastObservedConfig C
}

// New validates t and goalState, builds the policy graph, and runs the
// initial shortest-path search from the synthetic goal sink.
func New[C any](
	t *tree.PlannerTree[C],
	goalState state.PlannerState[C],
	marginalEdgeWeight, conformantThreshold float64,
	edgeAttemptCap, policyActionAttemptCount uint32,
	log LoggingSink,
) (*Policy[C], error) {
	if log == nil {
		log = NopLogger
	}
	if t == nil || t.Empty() || !t.CheckLinkage() {
		return nil, newError(InvalidInput, "tree is empty or has invalid linkage", nil)
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
	if err := p.Rebuild(); err != nil {
		return nil, err
	}
	p.initialized = true
	return p, nil
}

// Rebuild runs Build -> Weighten -> Distances, sourcing the shortest-path
// search from the synthetic goal sink. It is called at construction,
// after deserialisation, and after every tree mutation.
func (p *Policy[C]) Rebuild() error {
	g, err := graphbuilder.Build(p.tree, p.goalState)
	if err != nil {
		return translateBuildErr(err)
	}
	g, err = graphbuilder.Weighten(g, p.params.MarginalEdgeWeight, p.params.ConformantThreshold, p.params.EdgeAttemptCap)
	if err != nil {
		return translateBuildErr(err)
	}
	dist, err := graphbuilder.Distances(g, g.SinkIndex())
	if err != nil {
		return translateBuildErr(err)
	}
	p.graph = g
	p.dist = dist
	return nil
}

func translateBuildErr(err error) error {
	switch err {
	case graphbuilder.ErrInvalidInput:
		return newError(InvalidInput, "graph builder rejected input", err)
	case graphbuilder.ErrInternal:
		return newError(InternalError, "graph builder produced an invalid graph", err)
	default:
		return newError(InternalError, "graph builder failed", err)
	}
}

func (p *Policy[C]) checkInitialized() error {
	if !p.initialized {
		return newError(NotInitialised, "policy is not initialised", nil)
	}
	return nil
}

// SetPolicyActionAttemptCount updates the per-update attempt increment
// used by update-count-and-pick.
func (p *Policy[C]) SetPolicyActionAttemptCount(n uint32) {
	p.params.PolicyActionAttemptCount = n
}

// Parameters returns the current tunables.
func (p *Policy[C]) Parameters() Parameters { return p.params }

// Tree returns the underlying PlannerTree.
func (p *Policy[C]) Tree() *tree.PlannerTree[C] { return p.tree }

// Graph returns the derived PolicyGraph.
func (p *Policy[C]) Graph() *policygraph.Graph[C] { return p.graph }

// Distances returns the derived ShortestPathResult.
func (p *Policy[C]) Distances() policygraph.ShortestPathResult { return p.dist }

// Initialized reports whether the policy has been built (via New) or
// restored (via Deserialize).
func (p *Policy[C]) Initialized() bool { return p.initialized }
