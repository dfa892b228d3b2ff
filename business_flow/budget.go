package businessflow

import (
	"math"

	"github.com/dealerdrive/adpilot/utils"
)

// BudgetPlanner converts a total campaign budget into a validated daily spend
type BudgetPlanner interface {
	Plan(totalBudgetCents int64, durationDays int) (*BudgetPlan, error)
}

// BudgetPlannerImpl implements BudgetPlanner with the platform's daily budget floor
type BudgetPlannerImpl struct {
	minDailyBudgetCents int64
}

// NewBudgetPlanner creates a new budget planner
func NewBudgetPlanner(minDailyBudgetCents int64) BudgetPlanner {
	if minDailyBudgetCents <= 0 {
		minDailyBudgetCents = utils.MinDailyBudgetCents
	}
	return &BudgetPlannerImpl{minDailyBudgetCents: minDailyBudgetCents}
}

// Plan splits the total budget across the duration, rounding to whole cents.
// A computed daily budget below the platform floor is a policy error: the budget is
// a customer commitment and is never silently raised.
func (p *BudgetPlannerImpl) Plan(totalBudgetCents int64, durationDays int) (*BudgetPlan, error) {
	if durationDays <= 0 {
		return nil, ErrDurationNotPositive
	}
	if totalBudgetCents <= 0 {
		return nil, ErrBudgetNotPositive
	}

	daily := int64(math.Round(float64(totalBudgetCents) / float64(durationDays)))
	if daily < p.minDailyBudgetCents {
		return nil, ErrDailyBudgetBelowFloor
	}

	return &BudgetPlan{
		DailyBudgetCents: daily,
		DurationDays:     durationDays,
	}, nil
}
