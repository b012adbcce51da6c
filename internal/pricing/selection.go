package pricing

import (
	"fmt"

	"github.com/angelmondragon/southside-backend/pkg/enums"
)

// Selection is either a one-off package (Bins) or a subscription Plan.
type Selection struct {
	Bins int
	Plan enums.Plan
}

func ForBins(bins int) Selection { return Selection{Bins: bins} }

func ForPlan(plan enums.Plan) Selection { return Selection{Plan: plan} }

// IsSubscription reports whether the selection names a plan.
func (s Selection) IsSubscription() bool { return s.Plan != "" }

// Validate rejects bin counts outside 1..3 and unknown plans.
func (s Selection) Validate() error {
	if s.IsSubscription() {
		if !s.Plan.IsValid() {
			return fmt.Errorf("unknown plan %q", s.Plan)
		}
		return nil
	}
	if s.Bins < 1 || s.Bins > 3 {
		return fmt.Errorf("bins must be 1, 2 or 3, got %d", s.Bins)
	}
	return nil
}

func (s Selection) String() string {
	if s.IsSubscription() {
		return "plan:" + string(s.Plan)
	}
	return fmt.Sprintf("bins:%d", s.Bins)
}
