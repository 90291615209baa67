package commands

import (
	"errors"

	"backoffice/internal/pkg/errs"
	"backoffice/internal/pkg/guard"
)

var ErrSyncActiveAccountsCommandIsNotConstructed = errors.New(
	"SyncActiveAccountsCommand must be created via NewSyncActiveAccountsCommand constructor",
)

// SyncActiveAccountsCommand runs an account-scoped sync for every active
// account of a bulk-capable provider.
type SyncActiveAccountsCommand struct {
	maxOrdersPerAccount int

	guard guard.ConstructorGuard
}

func NewSyncActiveAccountsCommand(maxOrdersPerAccount int) (SyncActiveAccountsCommand, error) {
	if maxOrdersPerAccount < 1 || maxOrdersPerAccount > MaxSyncOrders {
		return SyncActiveAccountsCommand{}, errs.NewValueIsOutOfRangeError(
			"maxOrdersPerAccount", maxOrdersPerAccount, 1, MaxSyncOrders,
		)
	}
	return SyncActiveAccountsCommand{maxOrdersPerAccount: maxOrdersPerAccount, guard: guard.NewConstructorGuard()}, nil
}

func (c *SyncActiveAccountsCommand) MaxOrdersPerAccount() int { return c.maxOrdersPerAccount }

func (c *SyncActiveAccountsCommand) Validate() error {
	return c.guard.Validate(ErrSyncActiveAccountsCommandIsNotConstructed)
}
