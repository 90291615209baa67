package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/domain/model/shipping"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/metrics"
)

const (
	// DefaultSyncBatchSize is the number of references sent in one provider lookup.
	DefaultSyncBatchSize = 100

	// maxSyncDetails caps the sample returned for observability.
	maxSyncDetails = 20
)

var (
	ErrShippingAccountInactive = errors.New("shipping account is inactive")
	ErrProviderNotBulkCapable  = errors.New("provider does not support bulk lookups")
)

// SyncDetail is one updated order in the returned sample.
type SyncDetail struct {
	Reference      string
	Status         string
	TrackingNumber string
}

// SyncResult counts what one run did. Every candidate lands in exactly one of
// Updated, Unchanged, NotFound, Errors or SkippedForeignAccount, unless the
// run was interrupted.
type SyncResult struct {
	AccountID             kernel.UUID
	Candidates            int
	Updated               int
	Unchanged             int
	NotFound              int
	Errors                int
	SkippedForeignAccount int
	// ForeignAfterBatch counts orders found bound to another account by the
	// check that follows every batch. They were never written.
	ForeignAfterBatch int
	Interrupted       bool
	Details           []SyncDetail
}

// SyncTrackingNumbersCommandHandler pulls tracking numbers and statuses for
// one account's orders from its provider, in bulk.
//
// Account isolation is enforced three times: the candidate query is scoped by
// account, every candidate is re-checked in memory before any provider call,
// and every write is conditioned on the stored account. A batch is followed by
// a store-side check that none of its orders moved to another account.
type SyncTrackingNumbersCommandHandler struct {
	uowFactory ShippingUoWFactory
	providers  ports.DeliveryProviderFactory
	batchSize  int
	metrics    *metrics.SyncMetrics
	logger     *slog.Logger
}

func NewSyncTrackingNumbersCommandHandler(
	uowFactory ShippingUoWFactory,
	providers ports.DeliveryProviderFactory,
	batchSize int,
	m *metrics.SyncMetrics,
	logger *slog.Logger,
) SyncTrackingNumbersCommandHandler {
	if batchSize < 1 {
		batchSize = DefaultSyncBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return SyncTrackingNumbersCommandHandler{
		uowFactory: uowFactory,
		providers:  providers,
		batchSize:  batchSize,
		metrics:    m,
		logger:     logger.With("component", "tracking-sync"),
	}
}

// Handle returns an error only when the run could not start: unknown or
// unusable account, or a failed candidate query. Provider and write failures
// are counted per order.
func (h SyncTrackingNumbersCommandHandler) Handle(ctx context.Context, command SyncTrackingNumbersCommand) (SyncResult, error) {
	result := SyncResult{AccountID: command.AccountID(), Details: make([]SyncDetail, 0)}
	if err := command.Validate(); err != nil {
		return result, err
	}

	result, err := h.run(ctx, command, result)
	h.record(result, err)
	return result, err
}

func (h SyncTrackingNumbersCommandHandler) run(
	ctx context.Context, command SyncTrackingNumbersCommand, result SyncResult,
) (SyncResult, error) {
	// Every statement below is a single-row or read-only query; the sync
	// holds no transaction across provider calls.
	uow := h.uowFactory.Create()
	orderRepo := uow.OrderRepository()
	accountID := command.AccountID()
	logger := h.logger.With(slog.String("shipping_account_id", accountID.String()))

	account, err := uow.ShippingAccountRepository().Get(ctx, accountID)
	if err != nil {
		return result, err
	}
	if !account.IsActive() {
		return result, fmt.Errorf("%w: %s", ErrShippingAccountInactive, account.Name())
	}
	if !account.Provider().SupportsBulkLookup() {
		return result, fmt.Errorf("%w: %s", ErrProviderNotBulkCapable, account.Provider())
	}

	candidates, err := orderRepo.ListForTrackingSync(ctx, ports.TrackingSyncFilter{
		AccountID:      accountID,
		StoreID:        command.StoreID(),
		TrackingNumber: command.TrackingNumber(),
		Limit:          command.MaxOrders(),
	})
	if err != nil {
		return result, err
	}
	result.Candidates = len(candidates)

	owned := make([]*order.Order, 0, len(candidates))
	for _, o := range candidates {
		if !o.BelongsToShippingAccount(accountID) {
			result.SkippedForeignAccount++
			logger.ErrorContext(ctx, "candidate order belongs to another shipping account, excluded",
				slog.String("order_id", o.ID().String()),
				slog.String("reference", o.ExternalReference()),
				slog.Any("order_shipping_account_id", o.ShippingAccountID()),
			)
			continue
		}
		owned = append(owned, o)
	}
	if len(owned) == 0 {
		return result, nil
	}

	provider, err := h.providers.ForAccount(account)
	if err != nil {
		return result, err
	}

	for start := 0; start < len(owned); start += h.batchSize {
		if ctx.Err() != nil {
			result.Interrupted = true
			logger.WarnContext(ctx, "tracking sync interrupted", slog.Int("remaining", len(owned)-start))
			break
		}

		batch := owned[start:min(start+h.batchSize, len(owned))]
		h.syncBatch(ctx, logger, provider, orderRepo, accountID, batch, &result)
	}

	logger.InfoContext(ctx, "tracking sync finished",
		slog.Int("candidates", result.Candidates),
		slog.Int("updated", result.Updated),
		slog.Int("unchanged", result.Unchanged),
		slog.Int("not_found", result.NotFound),
		slog.Int("errors", result.Errors),
		slog.Int("skipped_foreign_account", result.SkippedForeignAccount),
	)
	return result, nil
}

func (h SyncTrackingNumbersCommandHandler) syncBatch(
	ctx context.Context,
	logger *slog.Logger,
	provider ports.DeliveryProvider,
	orderRepo ports.OrderRepository,
	accountID kernel.UUID,
	batch []*order.Order,
	result *SyncResult,
) {
	byRef := make(map[string][]*order.Order, len(batch))
	refs := make([]string, 0, len(batch))
	ids := make([]kernel.UUID, 0, len(batch))
	for _, o := range batch {
		ref := o.ExternalReference()
		if _, seen := byRef[ref]; !seen {
			refs = append(refs, ref)
		}
		byRef[ref] = append(byRef[ref], o)
		ids = append(ids, o.ID())
	}

	records, err := provider.LookupOrders(ctx, refs)
	if err != nil {
		result.Errors += len(batch)
		logger.ErrorContext(ctx, "provider lookup failed for batch",
			slog.Int("batch_size", len(batch)), slog.Any("error", err))
		return
	}

	found := make(map[string]shipping.ProviderRecord, len(records))
	for _, rec := range records {
		if _, requested := byRef[rec.ExternalReference]; !requested {
			continue
		}
		if _, dup := found[rec.ExternalReference]; !dup {
			found[rec.ExternalReference] = rec
		}
	}

	for _, ref := range refs {
		rec, ok := found[ref]
		for _, o := range byRef[ref] {
			if !ok {
				result.NotFound++
				h.clearCorrupted(ctx, logger, orderRepo, accountID, o)
				continue
			}
			h.apply(ctx, logger, orderRepo, accountID, o, rec, result)
		}
	}

	foreign, err := orderRepo.ForeignAccountOrders(ctx, ids, accountID)
	if err != nil {
		logger.ErrorContext(ctx, "post-batch account check failed", slog.Any("error", err))
		return
	}
	if len(foreign) > 0 {
		result.ForeignAfterBatch += len(foreign)
		logger.ErrorContext(ctx, "orders of the batch are bound to another shipping account",
			slog.Any("order_ids", foreign))
	}
}

func (h SyncTrackingNumbersCommandHandler) apply(
	ctx context.Context,
	logger *slog.Logger,
	orderRepo ports.OrderRepository,
	accountID kernel.UUID,
	o *order.Order,
	rec shipping.ProviderRecord,
	result *SyncResult,
) {
	resolved := shipping.ResolveMaystroStatus(rec.StatusCode)
	if !resolved.Known {
		logger.WarnContext(ctx, "unknown provider status code",
			slog.Int("code", rec.StatusCode), slog.String("reference", o.ExternalReference()))
	}

	if !o.ApplyShippingUpdate(resolved.ShippingUpdate(rec.TrackingNumber)) {
		result.Unchanged++
		return
	}

	if err := orderRepo.UpdateShipping(ctx, o, accountID); err != nil {
		result.Errors++
		level := slog.LevelWarn
		if errors.Is(err, ports.ErrShippingAccountMismatch) {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "order shipping update not written",
			slog.String("order_id", o.ID().String()), slog.Any("error", err))
		return
	}

	result.Updated++
	if len(result.Details) < maxSyncDetails {
		result.Details = append(result.Details, SyncDetail{
			Reference:      o.ExternalReference(),
			Status:         o.ShippingStatus(),
			TrackingNumber: o.TrackingNumber(),
		})
	}
}

// clearCorrupted drops a sentinel tracking number the provider cannot
// replace. An empty tracking number is recoverable, the sentinel is not.
func (h SyncTrackingNumbersCommandHandler) clearCorrupted(
	ctx context.Context,
	logger *slog.Logger,
	orderRepo ports.OrderRepository,
	accountID kernel.UUID,
	o *order.Order,
) {
	if !o.HasCorruptedTrackingNumber() || !o.ApplyShippingUpdate(order.ShippingUpdate{}) {
		return
	}
	if err := orderRepo.UpdateShipping(ctx, o, accountID); err != nil {
		logger.WarnContext(ctx, "corrupted tracking number not cleared",
			slog.String("order_id", o.ID().String()), slog.Any("error", err))
	}
}

func (h SyncTrackingNumbersCommandHandler) record(result SyncResult, err error) {
	h.metrics.AddOrders(metrics.SyncUpdated, result.Updated)
	h.metrics.AddOrders(metrics.SyncUnchanged, result.Unchanged)
	h.metrics.AddOrders(metrics.SyncNotFound, result.NotFound)
	h.metrics.AddOrders(metrics.SyncError, result.Errors)
	h.metrics.AddOrders(metrics.SyncSkippedForeignAccount, result.SkippedForeignAccount)

	switch {
	case err != nil:
		h.metrics.IncRun(metrics.RunFailed)
	case result.Interrupted:
		h.metrics.IncRun(metrics.RunInterrupted)
	default:
		h.metrics.IncRun(metrics.RunCompleted)
	}
}
