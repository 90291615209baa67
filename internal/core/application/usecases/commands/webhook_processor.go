package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/core/domain/model/shipping"
	"backoffice/internal/core/domain/model/webhook"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"
)

// Reasons recorded on ignored webhook events.
const (
	ReasonDuplicateDelivery  = "duplicate delivery"
	ReasonNoOrderReference   = "payload carries no order reference"
	ReasonNoStatusCode       = "payload carries no status code"
	ReasonNoMaystroOrder     = "no order bound to a Maystro account"
	ReasonAmbiguousReference = "reference matches several Maystro orders"
	ReasonOrderAlreadyKnown  = "order already known"
)

// WebhookOutcome tells how one delivery or retry ended.
type WebhookOutcome struct {
	EventID   *kernel.UUID
	Status    webhook.Status
	Duplicate bool
	Reason    string
}

type maystroWebhookPayload struct {
	Data struct {
		ExternalOrderID flexString `json:"external_order_id"`
		TrackingNumber  string     `json:"tracking_number"`
		Status          int        `json:"status"`
	} `json:"data"`
}

type ecoManagerWebhookPayload struct {
	Data struct {
		StoreID   flexString `json:"store_id"`
		Reference flexString `json:"reference"`
		CreatedAt time.Time  `json:"created_at"`
	} `json:"data"`
}

// webhookProcessor applies stored events. It is shared by first delivery and
// administrator retries so both go through the same rules.
type webhookProcessor struct {
	uowFactory WebhookUoWFactory
	ingester   OrderIngester
	now        func() time.Time
	logger     *slog.Logger
}

func (p webhookProcessor) inTx(ctx context.Context, fn func(uow WebhookUoW) error) error {
	uow := p.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := fn(uow); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func (p webhookProcessor) record(ctx context.Context, e *webhook.Event) error {
	return p.inTx(ctx, func(uow WebhookUoW) error {
		return uow.WebhookEventRepository().Add(ctx, e)
	})
}

// run counts an attempt, applies the event and stores how it ended. The
// returned error only reports a failure to store the outcome.
func (p webhookProcessor) run(ctx context.Context, e *webhook.Event) (WebhookOutcome, error) {
	if err := e.StartAttempt(); err != nil {
		return WebhookOutcome{}, err
	}

	reason, applyErr := p.apply(ctx, e)
	switch {
	case applyErr != nil:
		e.MarkFailed(applyErr)
		p.logger.WarnContext(ctx, "webhook event failed",
			"event_id", e.ID().String(), "source", e.Source(), "attempt", e.Attempts(), "error", applyErr)
	case reason != "":
		e.MarkIgnored(reason, p.now())
	default:
		e.MarkProcessed(p.now())
	}

	if err := p.inTx(ctx, func(uow WebhookUoW) error {
		return uow.WebhookEventRepository().Update(ctx, e)
	}); err != nil {
		return WebhookOutcome{}, fmt.Errorf("store webhook outcome: %w", err)
	}

	id := e.ID()
	return WebhookOutcome{EventID: &id, Status: e.Status(), Reason: e.LastError()}, nil
}

func (p webhookProcessor) apply(ctx context.Context, e *webhook.Event) (string, error) {
	switch e.Source() {
	case webhook.SourceMaystro:
		return p.applyMaystro(ctx, e)
	case webhook.SourceEcoManager:
		return p.applyEcoManager(ctx, e)
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("source", fmt.Errorf("%q has no processor", e.Source()))
	}
}

// applyMaystro updates the single order the delivery refers to, and only when
// that order is bound to a Maystro account.
func (p webhookProcessor) applyMaystro(ctx context.Context, e *webhook.Event) (string, error) {
	var payload maystroWebhookPayload
	if err := json.Unmarshal(e.Payload(), &payload); err != nil {
		return "", errs.NewValueIsInvalidErrorWithCause("payload", err)
	}

	ref := string(payload.Data.ExternalOrderID)
	tracking := strings.TrimSpace(payload.Data.TrackingNumber)
	switch {
	case ref == "" && tracking == "":
		return ReasonNoOrderReference, nil
	case payload.Data.Status == 0:
		return ReasonNoStatusCode, nil
	}
	update := shipping.ResolveMaystroStatus(payload.Data.Status).ShippingUpdate(tracking)

	var reason string
	err := p.inTx(ctx, func(uow WebhookUoW) error {
		orders := uow.OrderRepository()

		var candidates []*order.Order
		var err error
		if ref != "" {
			candidates, err = orders.FindByExternalReference(ctx, ref)
		} else {
			candidates, err = orders.ListByTrackingNumber(ctx, tracking)
		}
		if err != nil {
			return err
		}

		target, accountID, err := maystroBound(ctx, uow.ShippingAccountRepository(), candidates)
		switch {
		case err != nil:
			return err
		case len(target) == 0:
			reason = ReasonNoMaystroOrder
			return nil
		case len(target) > 1:
			reason = ReasonAmbiguousReference
			return nil
		}

		if !target[0].ApplyShippingUpdate(update) {
			return nil
		}
		return orders.UpdateShipping(ctx, target[0], accountID)
	})

	return reason, err
}

// maystroBound keeps the candidates bound to a Maystro account. accountID is
// the account of the first kept order.
func maystroBound(
	ctx context.Context, accounts ports.ShippingAccountRepository, candidates []*order.Order,
) ([]*order.Order, kernel.UUID, error) {
	providers := make(map[kernel.UUID]shipping.Provider)
	var kept []*order.Order
	var accountID kernel.UUID

	for _, o := range candidates {
		id := o.ShippingAccountID()
		if id == nil {
			continue
		}

		provider, ok := providers[*id]
		if !ok {
			account, err := accounts.Get(ctx, *id)
			if err != nil {
				return nil, kernel.UUID{}, err
			}
			provider = account.Provider()
			providers[*id] = provider
		}

		if provider == shipping.Maystro {
			if len(kept) == 0 {
				accountID = *id
			}
			kept = append(kept, o)
		}
	}

	return kept, accountID, nil
}

func (p webhookProcessor) applyEcoManager(ctx context.Context, e *webhook.Event) (string, error) {
	var payload ecoManagerWebhookPayload
	if err := json.Unmarshal(e.Payload(), &payload); err != nil {
		return "", errs.NewValueIsInvalidErrorWithCause("payload", err)
	}
	if payload.Data.Reference == "" {
		return ReasonNoOrderReference, nil
	}

	cmd, err := NewIngestOrderCommand(string(payload.Data.StoreID), string(payload.Data.Reference), payload.Data.CreatedAt)
	if err != nil {
		return "", err
	}

	res, err := p.ingester.Handle(ctx, cmd)
	if err != nil {
		return "", err
	}
	if !res.Created {
		return ReasonOrderAlreadyKnown, nil
	}

	return "", nil
}
