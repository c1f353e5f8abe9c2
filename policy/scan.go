package policy

import (
	"math"
	"runtime"
	"sync"
)

// findBestMatchingState scans every non-sink node for cluster membership
// and returns the index of the matching node with the smallest distance
// to the sink, or -1 if none match. Used by both the cold-start query and
// branch jumping.
//
// The scan is data-parallel: node indices are partitioned across a bounded
// worker pool, each worker keeping a thread-local (bestIndex, bestDistance)
// pair with a final serial reduction, mirroring the OpenMP pattern the
// original planner used for the same scan. predicate must be safe to call
// concurrently.
func (p *Policy[C]) findBestMatchingState(currentConfig C, predicate ClusterPredicate[C]) int {
	n := p.graph.SinkIndex() // exclude the synthetic goal sink
	if n == 0 {
		return -1
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	type best struct {
		index int
		dist  float64
	}
	results := make([]best, workers)
	for i := range results {
		results[i] = best{index: -1, dist: math.Inf(1)}
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			localBest := best{index: -1, dist: math.Inf(1)}
			for i := start; i < end; i++ {
				node, err := p.graph.Node(i)
				if err != nil {
					continue
				}
				if !predicate(node.Value.ParticlePositions, currentConfig) {
					continue
				}
				if p.dist.Distance[i] < localBest.dist {
					localBest = best{index: i, dist: p.dist.Distance[i]}
				}
			}
			results[w] = localBest
		}(w, start, end)
	}
	wg.Wait()

	bestIndex, bestDist := -1, math.Inf(1)
	for _, r := range results {
		if r.index >= 0 && r.dist < bestDist {
			bestIndex, bestDist = r.index, r.dist
		}
	}
	return bestIndex
}
