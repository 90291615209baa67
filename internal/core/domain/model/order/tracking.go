package order

import "strings"

// CorruptedTrackingNumber is the placeholder a faulty sync wrote into
// thousands of orders. It is never a real parcel number.
const CorruptedTrackingNumber = "1762961157040242"

// IsCorruptedTrackingNumber reports whether tn is the known-bad sentinel.
func IsCorruptedTrackingNumber(tn string) bool {
	return strings.TrimSpace(tn) == CorruptedTrackingNumber
}
