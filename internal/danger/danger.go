// Package danger classifies a drone's instantaneous kinematic state against
// a configured, ordered set of rules. Each rule inspects the state and
// either returns a human-readable reason or stays silent; the classifier
// collects all fired reasons in rule order.
package danger

import (
	"fmt"
	"strconv"
)

// State is a point-in-time kinematic snapshot built from a single telemetry
// message. Nil fields mean the value was absent or unparseable; rules must
// never fire on an unknown value.
type State struct {
	Height          *float64 // meters above takeoff
	HorizontalSpeed *float64 // m/s
}

// Rule inspects a state and returns a reason string when the state violates
// the rule, or an empty string otherwise. Implementations must be safe for
// concurrent use.
type Rule interface {
	Check(s State) string
}

// HeightRule fires when the reported height strictly exceeds the limit.
type HeightRule struct {
	MaxHeightM float64
}

func (r HeightRule) Check(s State) string {
	if s.Height == nil || *s.Height <= r.MaxHeightM {
		return ""
	}
	return fmt.Sprintf("height > %sm", formatLimit(r.MaxHeightM))
}

// SpeedRule fires when the reported horizontal speed strictly exceeds
// the limit.
type SpeedRule struct {
	MaxSpeedMs float64
}

func (r SpeedRule) Check(s State) string {
	if s.HorizontalSpeed == nil || *s.HorizontalSpeed <= r.MaxSpeedMs {
		return ""
	}
	return fmt.Sprintf("speed > %sm/s", formatLimit(r.MaxSpeedMs))
}

// Classifier evaluates every configured rule against a state. Rules run in
// the order they were given and all of them always run; there is no
// short-circuit on first match.
type Classifier struct {
	rules []Rule
}

// NewClassifier creates a Classifier with the given rules. The rule set is
// open: any Rule implementation can be added without changes here.
func NewClassifier(rules ...Rule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the reasons of all fired rules, in rule order.
// An empty result means the state violates nothing.
func (c *Classifier) Classify(s State) []string {
	var reasons []string
	for _, rule := range c.rules {
		if reason := rule.Check(s); reason != "" {
			reasons = append(reasons, reason)
		}
	}
	return reasons
}

// formatLimit renders a threshold without a trailing ".0" so that
// a limit of 500 reads "500" and 10.5 reads "10.5".
func formatLimit(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
