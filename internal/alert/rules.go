// Package alert checks finished runs against threshold rules such as
// "max_drawdown_pct < -20".
package alert

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/newthinker/replay/internal/core"
)

// Rule defines an alert rule.
type Rule struct {
	Name     string `mapstructure:"name"`
	Expr     string `mapstructure:"expr"`
	Severity string `mapstructure:"severity"`
	Message  string `mapstructure:"message"`
}

// Fired is a rule whose condition held
type Fired struct {
	Rule  Rule
	Value float64
}

// String renders the alert for logs and notifications
func (f Fired) String() string {
	severity := f.Rule.Severity
	if severity == "" {
		severity = "warning"
	}
	msg := fmt.Sprintf("[%s] %s: %s = %g", strings.ToUpper(severity), f.Rule.Name, f.metric(), f.Value)
	if f.Rule.Message != "" {
		msg += " (" + f.Rule.Message + ")"
	}
	return msg
}

func (f Fired) metric() string {
	name, _, _, _ := parse(f.Rule.Expr)
	return name
}

// "metric op value"
var exprPattern = regexp.MustCompile(`^(\w+)\s*(>=|<=|==|!=|>|<)\s*(-?[\d.]+)$`)

func parse(expr string) (metric, op string, threshold float64, err error) {
	matches := exprPattern.FindStringSubmatch(strings.TrimSpace(expr))
	if len(matches) != 4 {
		return "", "", 0, fmt.Errorf("expression %q is not of the form 'metric op value'", expr)
	}
	threshold, err = strconv.ParseFloat(matches[3], 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("expression %q: %w", expr, err)
	}
	return matches[1], matches[2], threshold, nil
}

// Validate checks that the rule is named and its expression parses
func (r Rule) Validate() error {
	if r.Name == "" {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("alert rule without name"))
	}
	if _, _, _, err := parse(r.Expr); err != nil {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("alert %s: %w", r.Name, err))
	}
	return nil
}

// Evaluate evaluates the rule expression against metrics. Unknown metrics
// and malformed expressions never fire.
func (r Rule) Evaluate(metrics map[string]float64) (float64, bool) {
	name, op, threshold, err := parse(r.Expr)
	if err != nil {
		return 0, false
	}
	value, exists := metrics[name]
	if !exists {
		return 0, false
	}

	switch op {
	case ">":
		return value, value > threshold
	case "<":
		return value, value < threshold
	case ">=":
		return value, value >= threshold
	case "<=":
		return value, value <= threshold
	case "==":
		return value, value == threshold
	case "!=":
		return value, value != threshold
	default:
		return value, false
	}
}

// Check returns the rules that fire for metrics, in rule order
func Check(rules []Rule, metrics map[string]float64) []Fired {
	var fired []Fired
	for _, r := range rules {
		if v, ok := r.Evaluate(metrics); ok {
			fired = append(fired, Fired{Rule: r, Value: v})
		}
	}
	return fired
}
