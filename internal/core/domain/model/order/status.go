package order

import (
	"fmt"
	"strings"

	"backoffice/internal/pkg/errs"
)

// Status is the internal lifecycle state of an order.
//
// Transitions:
//
//	Pending ──> Confirmed ──> Shipped ──┬──> Delivered ──> Returned
//	   │            │            │      ├──> Returned
//	   └────────────┴────────────┴──────┴──> Cancelled
//
// Delivery providers may skip intermediate states (an order can jump from
// Pending straight to Shipped when it is picked up before confirmation).
type Status int

const (
	Unknown Status = iota
	Pending
	Confirmed
	Shipped
	Delivered
	Cancelled
	Returned
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "unknown",
		Pending:   "pending",
		Confirmed: "confirmed",
		Shipped:   "shipped",
		Delivered: "delivered",
		Cancelled: "cancelled",
		Returned:  "returned",
	}
}

// ParseStatus converts the persisted / wire form of a status.
func ParseStatus(s string) (Status, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for status, str := range getStatusStrings() {
		if status != Unknown && str == needle {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return getStatusStrings()[Unknown]
}

func (s Status) Validate() error {
	if _, ok := getStatusStrings()[s]; !ok || s == Unknown {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// IsResolved reports whether the order no longer needs an agent. Resolved
// orders do not count towards an agent's workload.
func (s Status) IsResolved() bool {
	return s == Delivered || s == Cancelled || s == Returned
}

// ResolvedStatuses lists the statuses excluded from workload accounting, in
// the order used by SQL filters.
func ResolvedStatuses() []Status {
	return []Status{Delivered, Cancelled, Returned}
}

// CanTransitionTo reports whether next is reachable from s.
func (s Status) CanTransitionTo(next Status) bool {
	if next.Validate() != nil || s == next {
		return false
	}
	switch s {
	case Pending:
		return next != Pending
	case Confirmed:
		return next == Shipped || next == Delivered || next == Cancelled || next == Returned
	case Shipped:
		return next == Delivered || next == Cancelled || next == Returned
	case Delivered:
		return next == Returned
	default:
		return false
	}
}
