package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"

	"go.uber.org/multierr"
)

// TrackingSyncer runs one account-scoped sync. SyncTrackingNumbersCommandHandler implements it.
type TrackingSyncer interface {
	Handle(ctx context.Context, command SyncTrackingNumbersCommand) (SyncResult, error)
}

// SkippedAccount is an account whose corrupted orders this path cannot repair.
type SkippedAccount struct {
	AccountID kernel.UUID
	Name      string
	Provider  string
	Orders    int
	Reason    string
}

type AccountFailure struct {
	AccountID kernel.UUID
	Orders    int
	Error     string
}

type ReconcileResult struct {
	TotalCorrupted       int
	OrdersWithoutAccount int
	Synced               []SyncResult
	Skipped              []SkippedAccount
	Failures             []AccountFailure
	Interrupted          bool
}

// ReconcileCorruptedTrackingCommandHandler groups sentinel orders by shipping
// account and runs an account-scoped sync for each bulk-capable account. One
// account failing never stops the others.
type ReconcileCorruptedTrackingCommandHandler struct {
	uowFactory ShippingUoWFactory
	syncer     TrackingSyncer
	logger     *slog.Logger
}

func NewReconcileCorruptedTrackingCommandHandler(
	uowFactory ShippingUoWFactory, syncer TrackingSyncer, logger *slog.Logger,
) ReconcileCorruptedTrackingCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return ReconcileCorruptedTrackingCommandHandler{
		uowFactory: uowFactory,
		syncer:     syncer,
		logger:     logger.With("component", "reconcile-corrupted"),
	}
}

func (h ReconcileCorruptedTrackingCommandHandler) Handle(
	ctx context.Context, command ReconcileCorruptedTrackingCommand,
) (ReconcileResult, error) {
	result := ReconcileResult{
		Synced:   make([]SyncResult, 0),
		Skipped:  make([]SkippedAccount, 0),
		Failures: make([]AccountFailure, 0),
	}
	if err := command.Validate(); err != nil {
		return result, err
	}

	uow := h.uowFactory.Create()
	corrupted, err := uow.OrderRepository().ListByTrackingNumber(ctx, order.CorruptedTrackingNumber)
	if err != nil {
		return result, err
	}
	result.TotalCorrupted = len(corrupted)

	groups := make(map[kernel.UUID]int)
	for _, o := range corrupted {
		if o.ShippingAccountID() == nil {
			result.OrdersWithoutAccount++
			continue
		}
		groups[*o.ShippingAccountID()]++
	}
	if result.OrdersWithoutAccount > 0 {
		h.logger.WarnContext(ctx, "corrupted orders without shipping account cannot be repaired",
			slog.Int("orders", result.OrdersWithoutAccount))
	}

	accountIDs := make([]kernel.UUID, 0, len(groups))
	for id := range groups {
		accountIDs = append(accountIDs, id)
	}
	sort.Slice(accountIDs, func(i, j int) bool { return accountIDs[i].Compare(accountIDs[j]) < 0 })

	accountRepo := uow.ShippingAccountRepository()
	var failures error
	for _, accountID := range accountIDs {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}
		count := groups[accountID]

		account, err := accountRepo.Get(ctx, accountID)
		if err != nil {
			failures = multierr.Append(failures, fmt.Errorf("account %s: %w", accountID, err))
			result.Failures = append(result.Failures, AccountFailure{AccountID: accountID, Orders: count, Error: err.Error()})
			continue
		}

		reason := ""
		switch {
		case !account.Provider().SupportsBulkLookup():
			reason = fmt.Sprintf("provider %s does not support bulk lookups", account.Provider())
		case !account.IsActive():
			reason = "account is inactive"
		}
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedAccount{
				AccountID: accountID,
				Name:      account.Name(),
				Provider:  account.Provider().String(),
				Orders:    count,
				Reason:    reason,
			})
			continue
		}

		cmd, err := NewSyncTrackingNumbersCommand(accountID, min(count, MaxSyncOrders))
		if err != nil {
			return result, err
		}
		synced, err := h.syncer.Handle(ctx, cmd.WithTrackingNumber(order.CorruptedTrackingNumber))
		if err != nil {
			failures = multierr.Append(failures, fmt.Errorf("account %s: %w", accountID, err))
			result.Failures = append(result.Failures, AccountFailure{AccountID: accountID, Orders: count, Error: err.Error()})
			continue
		}
		result.Synced = append(result.Synced, synced)
	}

	if failures != nil {
		h.logger.ErrorContext(ctx, "some shipping accounts failed to reconcile",
			slog.Int("accounts", len(multierr.Errors(failures))), slog.Any("error", failures))
	}
	h.logger.InfoContext(ctx, "corrupted tracking reconciliation finished",
		slog.Int("corrupted", result.TotalCorrupted),
		slog.Int("without_account", result.OrdersWithoutAccount),
		slog.Int("synced_accounts", len(result.Synced)),
		slog.Int("skipped_accounts", len(result.Skipped)),
	)
	return result, nil
}
