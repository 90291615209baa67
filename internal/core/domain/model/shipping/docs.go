// Package shipping models delivery-provider integrations.
//
// A shipping Account is one set of provider credentials plus the identifier
// namespace its orders live in. Every order synchronized under an account's
// credentials must be bound to that account; the synchronizer enforces it.
//
// The Maystro status table is the single authoritative mapping from provider
// status codes to local labels. It is versioned so a deployment can pin the
// table it was validated against.
package shipping
