package settings

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"backoffice/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used until an administrator saves commission settings.
const DefaultCurrency = "DZD"

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// Commission is the default amount paid to agents per confirmed and per
// delivered order.
type Commission struct {
	confirmationFee decimal.Decimal
	deliveryFee     decimal.Decimal
	currency        string
	updatedAt       time.Time
}

// NewCommission validates and builds commission settings. Fees are rounded
// to two decimals.
func NewCommission(confirmationFee, deliveryFee decimal.Decimal, currency string, updatedAt time.Time) (Commission, error) {
	c := Commission{updatedAt: updatedAt.UTC()}

	if err := errors.Join(
		c.setConfirmationFee(confirmationFee),
		c.setDeliveryFee(deliveryFee),
		c.setCurrency(currency),
	); err != nil {
		return Commission{}, err
	}

	return c, nil
}

// DefaultCommission is what GET returns before anything was saved.
func DefaultCommission() Commission {
	return Commission{
		confirmationFee: decimal.Zero,
		deliveryFee:     decimal.Zero,
		currency:        DefaultCurrency,
	}
}

func (c Commission) ConfirmationFee() decimal.Decimal { return c.confirmationFee }
func (c Commission) DeliveryFee() decimal.Decimal     { return c.deliveryFee }
func (c Commission) Currency() string                 { return c.currency }
func (c Commission) UpdatedAt() time.Time             { return c.updatedAt }

// PerDeliveredOrder is what one order earns its agent once it is delivered.
func (c Commission) PerDeliveredOrder() decimal.Decimal {
	return c.confirmationFee.Add(c.deliveryFee)
}

func (c *Commission) setConfirmationFee(v decimal.Decimal) error {
	if v.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("confirmationFee", fmt.Errorf("%s is negative", v))
	}
	c.confirmationFee = v.Round(2)
	return nil
}

func (c *Commission) setDeliveryFee(v decimal.Decimal) error {
	if v.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("deliveryFee", fmt.Errorf("%s is negative", v))
	}
	c.deliveryFee = v.Round(2)
	return nil
}

func (c *Commission) setCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if !currencyPattern.MatchString(currency) {
		return errs.NewValueIsInvalidErrorWithCause("currency", fmt.Errorf("%q is not an ISO 4217 code", currency))
	}
	c.currency = currency
	return nil
}
