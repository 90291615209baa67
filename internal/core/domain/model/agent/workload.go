package agent

import (
	"time"
)

// Load is what the order store knows about one agent: how many unresolved
// orders it currently holds and when it last received one.
type Load struct {
	Assigned       int
	LastAssignedAt *time.Time
}

// Workload combines a Load with the agent capacity.
//
// Utilization comparisons are done on integers (cross-multiplication) so two
// agents with 1/3 and 2/6 always tie.
type Workload struct {
	assigned       int
	maxOrders      int
	lastAssignedAt *time.Time
}

func NewWorkload(load Load, maxOrders int) Workload {
	return Workload{
		assigned:       load.Assigned,
		maxOrders:      maxOrders,
		lastAssignedAt: load.LastAssignedAt,
	}
}

func (w Workload) Assigned() int              { return w.assigned }
func (w Workload) MaxOrders() int             { return w.maxOrders }
func (w Workload) LastAssignedAt() *time.Time { return w.lastAssignedAt }

// HasCapacity reports whether one more order fits.
func (w Workload) HasCapacity() bool {
	return w.assigned < w.maxOrders
}

// Utilization returns assigned/maxOrders in [0, +inf). A zero capacity counts
// as fully used.
func (w Workload) Utilization() float64 {
	if w.maxOrders <= 0 {
		return 1
	}
	return float64(w.assigned) / float64(w.maxOrders)
}

// UtilizationPercent is Utilization scaled to a percentage and rounded to two
// decimals, the form reported by the statistics endpoint.
func (w Workload) UtilizationPercent() float64 {
	return float64(int64(w.Utilization()*10000+0.5)) / 100
}

// CompareUtilization returns -1 when w is less utilized than other, +1 when
// it is more utilized and 0 on a tie.
func (w Workload) CompareUtilization(other Workload) int {
	left := int64(w.assigned) * int64(maxOrOne(other.maxOrders))
	right := int64(other.assigned) * int64(maxOrOne(w.maxOrders))
	switch {
	case left < right:
		return -1
	case left > right:
		return 1
	default:
		return 0
	}
}

func maxOrOne(v int) int {
	if v <= 0 {
		return 1
	}
	return v
}
