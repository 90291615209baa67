package ports

import "errors"

var (
	// ErrConcurrentUpdate is wrapped by adapters when the store aborted a
	// transaction because of a deadlock or serialization failure. The whole
	// unit of work can be retried.
	ErrConcurrentUpdate = errors.New("concurrent update, retry the operation")

	// ErrDuplicate is wrapped by adapters on unique-key violations.
	ErrDuplicate = errors.New("duplicate record")

	// ErrShippingAccountMismatch is returned when a write scoped to one
	// shipping account matched no row because the order belongs to another.
	ErrShippingAccountMismatch = errors.New("order does not belong to the shipping account")
)
