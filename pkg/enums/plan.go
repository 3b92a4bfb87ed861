package enums

import "fmt"

// Plan maps to the fisherman_plan enum in Postgres.
type Plan string

const (
	PlanDecouverte Plan = "decouverte"
	PlanPro        Plan = "pro"
	PlanPremium    Plan = "premium"
)

var validPlans = []Plan{PlanDecouverte, PlanPro, PlanPremium}

// monthlyAllocations is the free message grant per plan and calendar month.
var monthlyAllocations = map[Plan]int{
	PlanDecouverte: 10,
	PlanPro:        100,
	PlanPremium:    300,
}

// IsValid checks whether the given plan matches the canonical enum.
func (p Plan) IsValid() bool {
	for _, candidate := range validPlans {
		if candidate == p {
			return true
		}
	}
	return false
}

// MonthlyAllocation returns the free messages granted each month for the plan.
func (p Plan) MonthlyAllocation() int {
	if allocation, ok := monthlyAllocations[p]; ok {
		return allocation
	}
	return monthlyAllocations[PlanDecouverte]
}

// ParsePlan converts raw strings into Plan.
func ParsePlan(value string) (Plan, error) {
	for _, candidate := range validPlans {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid plan %q", value)
}
