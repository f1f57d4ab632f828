package score

import "fmt"

const (
	DefaultThreshold = 90.0
	DefaultStreak    = 3
)

// Policy decides when a lesson is passed: the most recent Streak results must
// all reach Threshold.
type Policy struct {
	Threshold float64
	Streak    int
}

// DefaultPolicy returns the 90%, three-in-a-row policy.
func DefaultPolicy() Policy {
	return Policy{Threshold: DefaultThreshold, Streak: DefaultStreak}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.Threshold <= 0 || p.Threshold > 100 {
		return fmt.Errorf("threshold must be in (0, 100], got %.2f", p.Threshold)
	}
	if p.Streak < 1 {
		return fmt.Errorf("streak must be >= 1, got %d", p.Streak)
	}
	return nil
}

// Decision reports the state of a lesson under a policy.
type Decision struct {
	Passed bool
	// Streak counts trailing results at or above the threshold.
	Streak int
	// Needed is how many more passing results are required.
	Needed int
}

// Evaluate inspects a lesson's accuracies in chronological order.
func (p Policy) Evaluate(accuracies []float64) Decision {
	streak := 0
	for i := len(accuracies) - 1; i >= 0; i-- {
		if accuracies[i] < p.Threshold {
			break
		}
		streak++
	}
	d := Decision{Streak: streak}
	if streak >= p.Streak {
		d.Passed = true
		return d
	}
	d.Needed = p.Streak - streak
	return d
}
