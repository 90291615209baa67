package commands

import (
	"context"
	"log/slog"

	"backoffice/internal/core/domain/model/kernel"
)

// OrderAssigner assigns one order. AssignOrderCommandHandler implements it.
type OrderAssigner interface {
	Handle(ctx context.Context, command AssignOrderCommand) (AssignmentResult, error)
}

// AutoAssignResult aggregates one run. Interrupted is set when the context was
// cancelled before every order was attempted.
type AutoAssignResult struct {
	TotalProcessed        int
	SuccessfulAssignments int
	FailedAssignments     int
	Details               []AssignmentResult
	Interrupted           bool
}

// AutoAssignOrdersCommandHandler serves the backlog oldest first, one order at
// a time, so agents fill up in the same order a human would hand work out.
// A failed order never stops the run.
type AutoAssignOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	assigner   OrderAssigner
	logger     *slog.Logger
}

func NewAutoAssignOrdersCommandHandler(
	uowFactory OrderUoWFactory, assigner OrderAssigner, logger *slog.Logger,
) AutoAssignOrdersCommandHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return AutoAssignOrdersCommandHandler{
		uowFactory: uowFactory,
		assigner:   assigner,
		logger:     logger.With("component", "auto-assign"),
	}
}

func (h AutoAssignOrdersCommandHandler) Handle(ctx context.Context, command AutoAssignOrdersCommand) (AutoAssignResult, error) {
	result := AutoAssignResult{Details: make([]AssignmentResult, 0)}
	if err := command.Validate(); err != nil {
		return result, err
	}

	// The backlog is read outside a transaction: every order is re-checked
	// by the assignment itself.
	orders, err := h.uowFactory.Create().OrderRepository().ListUnassigned(ctx, command.Limit())
	if err != nil {
		return result, err
	}

	for _, o := range orders {
		if ctx.Err() != nil {
			result.Interrupted = true
			h.logger.WarnContext(ctx, "auto-assignment interrupted",
				slog.Int("processed", result.TotalProcessed), slog.Int("remaining", len(orders)-result.TotalProcessed))
			break
		}

		detail := h.assignOne(ctx, o.ID(), command.AllowOffline())
		result.TotalProcessed++
		if detail.Success {
			result.SuccessfulAssignments++
		} else {
			result.FailedAssignments++
		}
		result.Details = append(result.Details, detail)
	}

	h.logger.InfoContext(ctx, "auto-assignment finished",
		slog.Int("total", result.TotalProcessed),
		slog.Int("successful", result.SuccessfulAssignments),
		slog.Int("failed", result.FailedAssignments),
	)
	return result, nil
}

func (h AutoAssignOrdersCommandHandler) assignOne(ctx context.Context, orderID kernel.UUID, allowOffline bool) AssignmentResult {
	cmd, err := NewAssignOrderCommand(orderID, allowOffline)
	if err != nil {
		return AssignmentResult{OrderID: orderID, Reason: ReasonOrderNotFound}
	}

	res, err := h.assigner.Handle(ctx, cmd)
	if err != nil {
		h.logger.ErrorContext(ctx, "order assignment failed",
			slog.String("order_id", orderID.String()), slog.Any("error", err))
		return AssignmentResult{OrderID: orderID, Reason: ReasonAssignmentError}
	}
	return res
}
