// Package kernel holds the value objects shared by every aggregate of the back
// office: identifiers and the parsing helpers used when they cross a boundary
// (HTTP paths, provider payloads, database rows).
//
// Values in this package are immutable and safe for concurrent use.
package kernel
