package danger

import (
	"slices"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestHeightRule(t *testing.T) {
	tests := []struct {
		name   string
		height *float64
		want   string
	}{
		{"above limit", f(501), "height > 500m"},
		{"at limit", f(500), ""},
		{"below limit", f(120), ""},
		{"unknown", nil, ""},
	}

	rule := HeightRule{MaxHeightM: 500}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rule.Check(State{Height: tt.height}); got != tt.want {
				t.Errorf("Check() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpeedRule(t *testing.T) {
	tests := []struct {
		name  string
		speed *float64
		want  string
	}{
		{"above limit", f(10.1), "speed > 10m/s"},
		{"at limit", f(10), ""},
		{"unknown", nil, ""},
	}

	rule := SpeedRule{MaxSpeedMs: 10}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rule.Check(State{HorizontalSpeed: tt.speed}); got != tt.want {
				t.Errorf("Check() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifier_AllRulesRun(t *testing.T) {
	c := NewClassifier(HeightRule{MaxHeightM: 500}, SpeedRule{MaxSpeedMs: 10})

	reasons := c.Classify(State{Height: f(600), HorizontalSpeed: f(15)})
	want := []string{"height > 500m", "speed > 10m/s"}
	if !slices.Equal(reasons, want) {
		t.Errorf("Classify() = %v, want %v", reasons, want)
	}
}

func TestClassifier_NoViolations(t *testing.T) {
	c := NewClassifier(HeightRule{MaxHeightM: 500}, SpeedRule{MaxSpeedMs: 10})

	if reasons := c.Classify(State{}); len(reasons) != 0 {
		t.Errorf("Classify(empty state) = %v, want none", reasons)
	}
}

// staticRule proves the rule set is open to new kinds.
type staticRule string

func (r staticRule) Check(State) string { return string(r) }

func TestClassifier_CustomRule(t *testing.T) {
	c := NewClassifier(staticRule("custom violation"), HeightRule{MaxHeightM: 500})

	reasons := c.Classify(State{Height: f(501)})
	want := []string{"custom violation", "height > 500m"}
	if !slices.Equal(reasons, want) {
		t.Errorf("Classify() = %v, want %v", reasons, want)
	}
}

func TestClassifier_FractionalLimit(t *testing.T) {
	rule := SpeedRule{MaxSpeedMs: 12.5}
	if got := rule.Check(State{HorizontalSpeed: f(13)}); got != "speed > 12.5m/s" {
		t.Errorf("Check() = %q, want %q", got, "speed > 12.5m/s")
	}
}
