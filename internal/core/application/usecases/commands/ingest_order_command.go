package commands

import (
	"errors"
	"strings"
	"time"

	"backoffice/internal/pkg/errs"
	"backoffice/internal/pkg/guard"
)

var ErrIngestOrderCommandIsNotConstructed = errors.New(
	"IngestOrderCommand must be created via NewIngestOrderCommand constructor",
)

// IngestOrderCommand carries one order published by the order source.
type IngestOrderCommand struct {
	storeID   string
	reference string
	createdAt time.Time

	guard guard.ConstructorGuard
}

// NewIngestOrderCommand uses the current time when the source sent none.
func NewIngestOrderCommand(storeID, reference string, createdAt time.Time) (IngestOrderCommand, error) {
	storeID = strings.TrimSpace(storeID)
	reference = strings.TrimSpace(reference)
	if err := errors.Join(requireValue("storeId", storeID), requireValue("reference", reference)); err != nil {
		return IngestOrderCommand{}, err
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return IngestOrderCommand{
		storeID:   storeID,
		reference: reference,
		createdAt: createdAt,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c *IngestOrderCommand) StoreID() string      { return c.storeID }
func (c *IngestOrderCommand) Reference() string    { return c.reference }
func (c *IngestOrderCommand) CreatedAt() time.Time { return c.createdAt }

func (c *IngestOrderCommand) Validate() error {
	return c.guard.Validate(ErrIngestOrderCommandIsNotConstructed)
}

func requireValue(name, value string) error {
	if value == "" {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}
