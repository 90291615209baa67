package commands

import (
	"errors"
	"time"

	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var ErrUpdateCommissionSettingsCommandIsNotConstructed = errors.New(
	"UpdateCommissionSettingsCommand must be created via NewUpdateCommissionSettingsCommand constructor",
)

type UpdateCommissionSettingsCommand struct {
	commission settings.Commission

	guard guard.ConstructorGuard
}

func NewUpdateCommissionSettingsCommand(
	confirmationFee, deliveryFee decimal.Decimal, currency string,
) (UpdateCommissionSettingsCommand, error) {
	c, err := settings.NewCommission(confirmationFee, deliveryFee, currency, time.Now())
	if err != nil {
		return UpdateCommissionSettingsCommand{}, err
	}
	return UpdateCommissionSettingsCommand{commission: c, guard: guard.NewConstructorGuard()}, nil
}

func (c *UpdateCommissionSettingsCommand) Commission() settings.Commission { return c.commission }

func (c *UpdateCommissionSettingsCommand) Validate() error {
	return c.guard.Validate(ErrUpdateCommissionSettingsCommandIsNotConstructed)
}
