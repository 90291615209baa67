package shipping

import (
	"fmt"
	"sort"

	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/pkg/errs"
)

// MaystroStatusTableVersion identifies the revision of the code table below.
// Bump it whenever a code is added, removed or relabelled.
const MaystroStatusTableVersion = "2024-11"

type statusEntry struct {
	label  string
	status *order.Status
}

func st(s order.Status) *order.Status { return &s }

// maystroStatuses is the only place Maystro codes are interpreted.
var maystroStatuses = map[int]statusEntry{
	4:  {label: "Awaiting pickup"},
	5:  {label: "Pickup failed"},
	6:  {label: "Picked up", status: st(order.Shipped)},
	8:  {label: "In transit", status: st(order.Shipped)},
	9:  {label: "Arrived at hub", status: st(order.Shipped)},
	10: {label: "Out for delivery", status: st(order.Shipped)},
	11: {label: "Delivery attempt failed"},
	12: {label: "Postponed"},
	31: {label: "Ready for return"},
	41: {label: "Delivered", status: st(order.Delivered)},
	42: {label: "Returned to sender", status: st(order.Returned)},
	50: {label: "Cancelled", status: st(order.Cancelled)},
}

// ResolvedStatus is the local reading of a provider status code.
type ResolvedStatus struct {
	Code  int
	Label string
	// Status is the internal lifecycle status implied by the code, nil when
	// the code does not move the lifecycle.
	Status *order.Status
	Known  bool
}

// ResolveMaystroStatus maps a Maystro status code. Unknown codes are kept with
// a label embedding the raw code so they are never silently dropped.
func ResolveMaystroStatus(code int) ResolvedStatus {
	entry, ok := maystroStatuses[code]
	if !ok {
		return ResolvedStatus{Code: code, Label: fmt.Sprintf("Unknown status (code %d)", code)}
	}
	return ResolvedStatus{Code: code, Label: entry.label, Status: entry.status, Known: true}
}

// ShippingUpdate turns a provider record into the order-level update.
func (r ResolvedStatus) ShippingUpdate(trackingNumber string) order.ShippingUpdate {
	return order.ShippingUpdate{
		TrackingNumber: trackingNumber,
		ShippingStatus: r.Label,
		Status:         r.Status,
	}
}

// MaystroStatusCodes returns every known code in ascending order.
func MaystroStatusCodes() []int {
	codes := make([]int, 0, len(maystroStatuses))
	for code := range maystroStatuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// CheckMaystroStatusTableVersion fails when a deployment pinned a different
// table revision than the one compiled in. An empty pin accepts any version.
func CheckMaystroStatusTableVersion(pinned string) error {
	if pinned == "" || pinned == MaystroStatusTableVersion {
		return nil
	}
	return errs.NewVersionIsInvalidError("maystroStatusTable",
		fmt.Errorf("compiled table is %s, deployment expects %s", MaystroStatusTableVersion, pinned))
}
