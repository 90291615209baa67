// Package order provides the Order aggregate of the back office: an
// e-commerce order ingested from the order source, assigned once to an agent
// and tracked through a delivery provider.
//
// The package includes:
//   - Order: identity, assignment state and shipping state
//   - Status: the internal lifecycle (pending, confirmed, shipped, delivered, cancelled, returned)
//   - ShippingUpdate: a change pulled from or pushed by a delivery provider
//
// Key business rules:
//   - an order is assigned at most once; the assignment never changes afterwards
//   - the shipping account, once bound, is immutable
//   - the corrupted tracking sentinel never survives a shipping update
//   - delivered, cancelled and returned orders are resolved and leave agent workloads
package order
