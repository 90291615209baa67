// Package errs holds the typed errors shared by the domain and the use cases.
//
// Every type unwraps to one sentinel, so callers classify with errors.Is
// (the HTTP adapter maps ErrObjectNotFound to 404 and the ErrValueIs*
// family to 400) and read the detail fields with errors.As.
package errs
