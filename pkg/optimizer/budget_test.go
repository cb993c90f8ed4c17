package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetAccounting(t *testing.T) {
	budget := NewBudget(10)

	assert.True(t, budget.CanAfford(10))
	assert.False(t, budget.CanAfford(11))
	assert.Equal(t, 10, budget.Remaining())
	assert.False(t, budget.Exhausted())

	budget.Spend(4)
	assert.Equal(t, 4, budget.Used())
	assert.Equal(t, 6, budget.Remaining())
	assert.True(t, budget.CanAfford(6))
	assert.False(t, budget.CanAfford(7))

	budget.Spend(6)
	assert.True(t, budget.Exhausted())
	assert.Equal(t, 0, budget.Remaining())
	assert.False(t, budget.CanAfford(1))
	assert.True(t, budget.CanAfford(0))
}

func TestBudgetZeroLimit(t *testing.T) {
	budget := NewBudget(0)
	assert.True(t, budget.Exhausted())
	assert.False(t, budget.CanAfford(1))
}
