package optimizer

// Budget is the monotonically decreasing counter of remaining scoring calls.
// It is owned exclusively by the engine loop; callers check CanAfford before
// issuing calls and Spend the exact number of (candidate, instance) scoring
// operations actually performed. A call that would overshoot the limit is
// simply not issued.
type Budget struct {
	limit int
	used  int
}

// NewBudget creates a budget of at most limit scoring calls.
func NewBudget(limit int) *Budget {
	return &Budget{limit: limit}
}

// CanAfford reports whether n more scoring calls fit within the limit.
func (b *Budget) CanAfford(n int) bool {
	return b.used+n <= b.limit
}

// Spend records n performed scoring calls.
func (b *Budget) Spend(n int) {
	b.used += n
}

// Used returns the number of scoring calls performed so far.
func (b *Budget) Used() int {
	return b.used
}

// Remaining returns the number of scoring calls still available.
func (b *Budget) Remaining() int {
	if b.used >= b.limit {
		return 0
	}
	return b.limit - b.used
}

// Exhausted reports whether no further scoring call can be issued.
func (b *Budget) Exhausted() bool {
	return b.used >= b.limit
}
