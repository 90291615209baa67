package commands

import (
	"errors"
	"strings"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/errs"
	"backoffice/internal/pkg/guard"
)

// MaxSyncOrders bounds the candidates of one sync run.
const MaxSyncOrders = 10000

var ErrSyncTrackingNumbersCommandIsNotConstructed = errors.New(
	"SyncTrackingNumbersCommand must be created via NewSyncTrackingNumbersCommand constructor",
)

// SyncTrackingNumbersCommand reconciles the orders of exactly one shipping
// account with its provider. The account id is the partition key of the run
// and cannot be omitted.
//
// Example:
//
//	cmd, err := NewSyncTrackingNumbersCommand(accountID, 500)
//	if err != nil {
//	    return err
//	}
//	cmd = cmd.WithStore("store-1")
//	result, err := handler.Handle(ctx, cmd)
type SyncTrackingNumbersCommand struct {
	accountID      kernel.UUID
	maxOrders      int
	storeID        *string
	trackingNumber *string

	guard guard.ConstructorGuard
}

func NewSyncTrackingNumbersCommand(accountID kernel.UUID, maxOrders int) (SyncTrackingNumbersCommand, error) {
	if err := accountID.Validate(); err != nil {
		return SyncTrackingNumbersCommand{}, errs.NewValueIsRequiredErrorWithCause("shippingAccountId", err)
	}
	if maxOrders < 1 || maxOrders > MaxSyncOrders {
		return SyncTrackingNumbersCommand{}, errs.NewValueIsOutOfRangeError("maxOrders", maxOrders, 1, MaxSyncOrders)
	}

	return SyncTrackingNumbersCommand{
		accountID: accountID,
		maxOrders: maxOrders,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// WithStore narrows the run to one store. An empty id leaves it unchanged.
func (c SyncTrackingNumbersCommand) WithStore(storeID string) SyncTrackingNumbersCommand {
	if storeID = strings.TrimSpace(storeID); storeID != "" {
		c.storeID = &storeID
	}
	return c
}

// WithTrackingNumber narrows the run to orders carrying tn. Resolved orders
// are then included so a bad value can be repaired on delivered orders too.
func (c SyncTrackingNumbersCommand) WithTrackingNumber(tn string) SyncTrackingNumbersCommand {
	if tn = strings.TrimSpace(tn); tn != "" {
		c.trackingNumber = &tn
	}
	return c
}

func (c *SyncTrackingNumbersCommand) AccountID() kernel.UUID  { return c.accountID }
func (c *SyncTrackingNumbersCommand) MaxOrders() int          { return c.maxOrders }
func (c *SyncTrackingNumbersCommand) StoreID() *string        { return c.storeID }
func (c *SyncTrackingNumbersCommand) TrackingNumber() *string { return c.trackingNumber }

func (c *SyncTrackingNumbersCommand) Validate() error {
	return c.guard.Validate(ErrSyncTrackingNumbersCommandIsNotConstructed)
}
