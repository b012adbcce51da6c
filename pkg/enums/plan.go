package enums

import (
	"fmt"
	"strings"
)

// Plan is the cadence of a recurring cleaning subscription.
type Plan string

const (
	PlanWeekly      Plan = "weekly"
	PlanFortnightly Plan = "fortnightly"
)

var validPlans = []Plan{PlanWeekly, PlanFortnightly}

// String implements fmt.Stringer.
func (p Plan) String() string {
	return string(p)
}

// IsValid reports whether the value is a known Plan.
func (p Plan) IsValid() bool {
	for _, candidate := range validPlans {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePlan converts raw input into a Plan, ignoring case and whitespace.
func ParsePlan(value string) (Plan, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPlans {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan %q", value)
}
