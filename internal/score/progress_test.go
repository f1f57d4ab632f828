package score

import "testing"

func TestPolicyEvaluate(t *testing.T) {
	p := Policy{Threshold: 90, Streak: 3}
	tests := []struct {
		history []float64
		passed  bool
		streak  int
		needed  int
	}{
		{nil, false, 0, 3},
		{[]float64{95, 95}, false, 2, 1},
		{[]float64{95, 90, 99}, true, 3, 0},
		{[]float64{95, 95, 95, 80}, false, 0, 3},
		{[]float64{50, 91, 92, 93, 94}, true, 4, 0},
	}
	for _, tt := range tests {
		d := p.Evaluate(tt.history)
		if d.Passed != tt.passed || d.Streak != tt.streak || d.Needed != tt.needed {
			t.Fatalf("history %v: got %+v", tt.history, d)
		}
	}
}

func TestPolicyValidate(t *testing.T) {
	if err := DefaultPolicy().Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
	if err := (Policy{Threshold: 0, Streak: 1}).Validate(); err == nil {
		t.Fatalf("expected error for zero threshold")
	}
	if err := (Policy{Threshold: 90, Streak: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero streak")
	}
}
