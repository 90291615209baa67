package commands

import (
	"errors"

	"backoffice/internal/pkg/guard"
)

var ErrReconcileCorruptedTrackingCommandIsNotConstructed = errors.New(
	"ReconcileCorruptedTrackingCommand must be created via NewReconcileCorruptedTrackingCommand constructor",
)

// ReconcileCorruptedTrackingCommand repairs every order carrying the
// corrupted tracking sentinel.
type ReconcileCorruptedTrackingCommand struct {
	guard guard.ConstructorGuard
}

func NewReconcileCorruptedTrackingCommand() ReconcileCorruptedTrackingCommand {
	return ReconcileCorruptedTrackingCommand{guard: guard.NewConstructorGuard()}
}

func (c ReconcileCorruptedTrackingCommand) Validate() error {
	return c.guard.Validate(ErrReconcileCorruptedTrackingCommandIsNotConstructed)
}
