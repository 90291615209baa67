// Package agent models the human operators that process orders: follow-up,
// call-center and coordination staff.
//
// The package includes:
//   - Agent: the aggregate root holding identity, role, capacity and liveness
//   - Role: the fixed set of operator roles
//   - Workload: the derived load of an agent (assigned unresolved orders vs capacity)
//
// Key business rules:
//   - maxOrders is a positive per-agent capacity
//   - online is never stored; it is derived from lastActivityAt and a threshold
//   - utilization and last-assigned time are derived from orders, never kept on the agent
package agent
