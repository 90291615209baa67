package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"backoffice/internal/core/domain/model/webhook"
	"backoffice/internal/pkg/errs"
	"backoffice/internal/pkg/guard"
)

var ErrReceiveWebhookCommandIsNotConstructed = errors.New(
	"ReceiveWebhookCommand must be created via NewReceiveWebhookCommand constructor",
)

// flexString accepts both JSON strings and bare numbers. EcoManager sends
// numeric ids where Maystro sends strings.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	default:
		*s = flexString(b)
		return nil
	}
}

// webhookEnvelope is the part every provider delivery shares.
type webhookEnvelope struct {
	ID    flexString `json:"id"`
	Type  string     `json:"type"`
	Event string     `json:"event"`
}

// ReceiveWebhookCommand is one signed delivery accepted by the HTTP layer.
type ReceiveWebhookCommand struct {
	source      webhook.Source
	deliveryKey string
	eventType   string
	payload     []byte

	guard guard.ConstructorGuard
}

// NewReceiveWebhookCommand reads the delivery id and event type from payload.
// A delivery without id is processed but cannot be deduplicated.
func NewReceiveWebhookCommand(source webhook.Source, payload []byte) (ReceiveWebhookCommand, error) {
	src, err := webhook.ParseSource(string(source))
	if err != nil {
		return ReceiveWebhookCommand{}, err
	}

	var env webhookEnvelope
	if err = json.Unmarshal(payload, &env); err != nil {
		return ReceiveWebhookCommand{}, errs.NewValueIsInvalidErrorWithCause("payload", err)
	}

	eventType := strings.TrimSpace(env.Type)
	if eventType == "" {
		eventType = strings.TrimSpace(env.Event)
	}
	if eventType == "" {
		return ReceiveWebhookCommand{}, errs.NewValueIsRequiredError("type")
	}

	return ReceiveWebhookCommand{
		source:      src,
		deliveryKey: string(env.ID),
		eventType:   eventType,
		payload:     append([]byte(nil), payload...),
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c *ReceiveWebhookCommand) Source() webhook.Source { return c.source }
func (c *ReceiveWebhookCommand) DeliveryKey() string    { return c.deliveryKey }
func (c *ReceiveWebhookCommand) EventType() string      { return c.eventType }
func (c *ReceiveWebhookCommand) Payload() []byte        { return c.payload }

func (c *ReceiveWebhookCommand) Validate() error {
	return c.guard.Validate(ErrReceiveWebhookCommandIsNotConstructed)
}
