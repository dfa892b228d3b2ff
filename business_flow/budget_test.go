package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetPlanner_SplitsTotalAcrossDuration(t *testing.T) {
	planner := NewBudgetPlanner(100)

	// $300 over 14 days rounds to 2143 cents per day
	plan, err := planner.Plan(30000, 14)
	require.NoError(t, err)
	assert.Equal(t, int64(2143), plan.DailyBudgetCents)
	assert.Equal(t, 14, plan.DurationDays)

	// Round-trip never drifts more than half a cent per day
	drift := plan.DailyBudgetCents*14 - 30000
	assert.LessOrEqual(t, drift, int64(7))
	assert.GreaterOrEqual(t, drift, int64(-7))
}

func TestBudgetPlanner_ExactSplit(t *testing.T) {
	planner := NewBudgetPlanner(100)

	plan, err := planner.Plan(14000, 14)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), plan.DailyBudgetCents)
}

func TestBudgetPlanner_RejectsBudgetBelowFloor(t *testing.T) {
	planner := NewBudgetPlanner(100)

	// $10 over 14 days is 71 cents per day: below the floor, never raised silently
	_, err := planner.Plan(1000, 14)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDailyBudgetBelowFloor)
}

func TestBudgetPlanner_RejectsNonPositiveInputs(t *testing.T) {
	planner := NewBudgetPlanner(100)

	_, err := planner.Plan(0, 14)
	assert.ErrorIs(t, err, ErrBudgetNotPositive)

	_, err = planner.Plan(-500, 14)
	assert.ErrorIs(t, err, ErrBudgetNotPositive)

	_, err = planner.Plan(30000, 0)
	assert.ErrorIs(t, err, ErrDurationNotPositive)

	_, err = planner.Plan(30000, -3)
	assert.ErrorIs(t, err, ErrDurationNotPositive)
}

func TestBudgetPlanner_FloorDefaultsWhenUnset(t *testing.T) {
	planner := NewBudgetPlanner(0)

	// 99 cents per day fails against the default platform floor
	_, err := planner.Plan(99, 1)
	assert.ErrorIs(t, err, ErrDailyBudgetBelowFloor)

	plan, err := planner.Plan(100, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), plan.DailyBudgetCents)
}
