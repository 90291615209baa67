// Package services provides domain services that span several aggregates of
// the back office.
//
// The package includes:
//   - AgentSelector: ranks agents for an unassigned order by load and fairness
package services
