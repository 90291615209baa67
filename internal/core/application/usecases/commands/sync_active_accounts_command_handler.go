package commands

import (
	"context"
	"fmt"
	"log/slog"

	"backoffice/internal/core/domain/model/shipping"

	"go.uber.org/multierr"
)

type SyncActiveAccountsResult struct {
	Accounts []SyncResult
	Failures []AccountFailure
}

// SyncActiveAccountsCommandHandler syncs active Maystro accounts one after
// the other. Accounts never share a run, so one account's orders are never
// looked up with another account's credentials.
type SyncActiveAccountsCommandHandler struct {
	uowFactory ShippingUoWFactory
	syncer     TrackingSyncer
	logger     *slog.Logger
}

func NewSyncActiveAccountsCommandHandler(
	uowFactory ShippingUoWFactory, syncer TrackingSyncer, logger *slog.Logger,
) SyncActiveAccountsCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return SyncActiveAccountsCommandHandler{
		uowFactory: uowFactory,
		syncer:     syncer,
		logger:     logger.With("component", "sync-active-accounts"),
	}
}

// Handle returns the combined error of the failed accounts alongside the
// result, so callers see partial success.
func (h SyncActiveAccountsCommandHandler) Handle(
	ctx context.Context, command SyncActiveAccountsCommand,
) (SyncActiveAccountsResult, error) {
	result := SyncActiveAccountsResult{Accounts: make([]SyncResult, 0), Failures: make([]AccountFailure, 0)}
	if err := command.Validate(); err != nil {
		return result, err
	}

	provider := shipping.Maystro
	accounts, err := h.uowFactory.Create().ShippingAccountRepository().ListActive(ctx, &provider)
	if err != nil {
		return result, err
	}

	var combined error
	for _, account := range accounts {
		if err = ctx.Err(); err != nil {
			return result, multierr.Append(combined, err)
		}

		cmd, cmdErr := NewSyncTrackingNumbersCommand(account.ID(), command.MaxOrdersPerAccount())
		if cmdErr != nil {
			return result, cmdErr
		}

		synced, syncErr := h.syncer.Handle(ctx, cmd)
		if syncErr != nil {
			h.logger.ErrorContext(ctx, "account sync failed",
				slog.String("shipping_account_id", account.ID().String()), slog.Any("error", syncErr))
			result.Failures = append(result.Failures, AccountFailure{AccountID: account.ID(), Error: syncErr.Error()})
			combined = multierr.Append(combined, fmt.Errorf("account %s: %w", account.ID(), syncErr))
			continue
		}
		result.Accounts = append(result.Accounts, synced)
	}

	h.logger.InfoContext(ctx, "active accounts synced",
		slog.Int("accounts", len(accounts)),
		slog.Int("failed", len(result.Failures)),
	)
	return result, combined
}
