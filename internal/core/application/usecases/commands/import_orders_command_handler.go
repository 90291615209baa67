package commands

import (
	"context"
	"fmt"
	"log/slog"

	"backoffice/internal/core/ports"
)

// OrderIngester stores one source order. IngestOrderCommandHandler implements it.
type OrderIngester interface {
	Handle(ctx context.Context, command IngestOrderCommand) (IngestResult, error)
}

type ImportResult struct {
	Pages          int
	Imported       int
	Existing       int
	Failed         int
	StoppedAtKnown bool
}

// ImportOrdersCommandHandler pages the order source newest first and stops at
// the first reference already stored: everything older was imported before.
type ImportOrdersCommandHandler struct {
	source     ports.OrderSource
	uowFactory OrderUoWFactory
	ingester   OrderIngester
	logger     *slog.Logger
}

func NewImportOrdersCommandHandler(
	source ports.OrderSource, uowFactory OrderUoWFactory, ingester OrderIngester, logger *slog.Logger,
) ImportOrdersCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return ImportOrdersCommandHandler{
		source:     source,
		uowFactory: uowFactory,
		ingester:   ingester,
		logger:     logger.With("component", "import-orders"),
	}
}

func (h ImportOrdersCommandHandler) Handle(ctx context.Context, command ImportOrdersCommand) (ImportResult, error) {
	var result ImportResult
	if err := command.Validate(); err != nil {
		return result, err
	}

	for page := 1; page <= command.MaxPages(); page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		batch, err := h.source.FetchOrders(ctx, page)
		if err != nil {
			return result, fmt.Errorf("fetch page %d: %w", page, err)
		}
		result.Pages++

		known, err := h.knownReferences(ctx, batch.Orders)
		if err != nil {
			return result, err
		}

		for _, src := range batch.Orders {
			if known[src.StoreID][src.Reference] {
				result.StoppedAtKnown = true
				break
			}
			h.ingest(ctx, src, &result)
		}

		if result.StoppedAtKnown || !batch.HasNext {
			break
		}
	}

	h.logger.InfoContext(ctx, "order import finished",
		slog.Int("pages", result.Pages),
		slog.Int("imported", result.Imported),
		slog.Int("existing", result.Existing),
		slog.Int("failed", result.Failed),
		slog.Bool("stopped_at_known", result.StoppedAtKnown),
	)
	return result, nil
}

func (h ImportOrdersCommandHandler) ingest(ctx context.Context, src ports.SourceOrder, result *ImportResult) {
	cmd, err := NewIngestOrderCommand(src.StoreID, src.Reference, src.CreatedAt)
	if err != nil {
		result.Failed++
		h.logger.WarnContext(ctx, "source order rejected", slog.String("reference", src.Reference), slog.Any("error", err))
		return
	}

	res, err := h.ingester.Handle(ctx, cmd)
	switch {
	case err != nil:
		result.Failed++
		h.logger.ErrorContext(ctx, "source order not stored", slog.String("reference", src.Reference), slog.Any("error", err))
	case res.Created:
		result.Imported++
	default:
		result.Existing++
	}
}

// knownReferences looks a whole page up with one query per store.
func (h ImportOrdersCommandHandler) knownReferences(ctx context.Context, orders []ports.SourceOrder) (map[string]map[string]bool, error) {
	byStore := make(map[string][]string)
	for _, o := range orders {
		byStore[o.StoreID] = append(byStore[o.StoreID], o.Reference)
	}

	repo := h.uowFactory.Create().OrderRepository()
	known := make(map[string]map[string]bool, len(byStore))
	for storeID, refs := range byStore {
		found, err := repo.KnownReferences(ctx, storeID, refs)
		if err != nil {
			return nil, err
		}
		known[storeID] = make(map[string]bool, len(found))
		for _, ref := range found {
			known[storeID][ref] = true
		}
	}
	return known, nil
}
