package graphbuilder

// Sibling describes one split outcome competing for the same commanded
// action: its raw per-attempt feasibility, its probability of reversing
// back out if reached, and whether its outcome is nominally independent
// (resamples on retry).
type Sibling struct {
	RawPFeasibility     float64
	ReversePFeasibility float64
	Independent         bool
}

// SimulateRetries runs the split-sibling retry recurrence shared by
// EstimateAttempts and probmaint's effective-probability update:
// repeatedly attempt the action, track the probability mass still
// usefully retrying, and accumulate the probability of having reached the
// target outcome.
//
// It stops as soon as reached crosses threshold (if threshold >= 0) or
// after cap attempts, and reports how many attempts were simulated.
func SimulateRetries(selfRawP float64, siblings []Sibling, cap uint32, threshold float64) (reached float64, attempts uint32) {
	active := 1.0
	for attempt := uint32(1); attempt <= cap; attempt++ {
		reached += active * selfRawP
		if threshold >= 0 && reached >= threshold {
			return reached, attempt
		}
		updated := 0.0
		for _, sib := range siblings {
			if !sib.Independent {
				continue
			}
			reachedOther := active * sib.RawPFeasibility
			updated += reachedOther * sib.ReversePFeasibility
		}
		active = updated
	}
	return reached, cap
}
