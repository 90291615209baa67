package commands

import (
	"errors"

	"backoffice/internal/pkg/errs"
	"backoffice/internal/pkg/guard"
)

// MaxAutoAssignLimit bounds one auto-assignment run.
const MaxAutoAssignLimit = 1000

var ErrAutoAssignOrdersCommandIsNotConstructed = errors.New(
	"AutoAssignOrdersCommand must be created via NewAutoAssignOrdersCommand constructor",
)

// AutoAssignOrdersCommand asks for the most recent limit unassigned orders to
// be distributed across agents.
type AutoAssignOrdersCommand struct {
	limit        int
	allowOffline bool

	guard guard.ConstructorGuard
}

func NewAutoAssignOrdersCommand(limit int, allowOffline bool) (AutoAssignOrdersCommand, error) {
	if limit < 1 || limit > MaxAutoAssignLimit {
		return AutoAssignOrdersCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxAutoAssignLimit)
	}

	return AutoAssignOrdersCommand{
		limit:        limit,
		allowOffline: allowOffline,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c *AutoAssignOrdersCommand) Limit() int         { return c.limit }
func (c *AutoAssignOrdersCommand) AllowOffline() bool { return c.allowOffline }

func (c *AutoAssignOrdersCommand) Validate() error {
	return c.guard.Validate(ErrAutoAssignOrdersCommandIsNotConstructed)
}
