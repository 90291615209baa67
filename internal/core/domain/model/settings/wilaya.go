package settings

import (
	"errors"
	"strings"

	"backoffice/internal/pkg/errs"
)

const (
	MinWilayaCode   = 1
	MaxWilayaCode   = 58
	MaxDeliveryDays = 30
)

// Wilaya is the delivery-delay configuration of one Algerian province.
type Wilaya struct {
	code         int
	name         string
	deliveryDays int
	active       bool
}

func NewWilaya(code int, name string, deliveryDays int, active bool) (Wilaya, error) {
	w := Wilaya{active: active}

	if err := errors.Join(
		w.setCode(code),
		w.setName(name),
		w.setDeliveryDays(deliveryDays),
	); err != nil {
		return Wilaya{}, err
	}

	return w, nil
}

func (w Wilaya) Code() int         { return w.code }
func (w Wilaya) Name() string      { return w.name }
func (w Wilaya) DeliveryDays() int { return w.deliveryDays }
func (w Wilaya) IsActive() bool    { return w.active }

// ValidateWilayaCode checks a code received on its own, e.g. as a path parameter.
func ValidateWilayaCode(code int) error {
	if code < MinWilayaCode || code > MaxWilayaCode {
		return errs.NewValueIsOutOfRangeError("code", code, MinWilayaCode, MaxWilayaCode)
	}
	return nil
}

func (w *Wilaya) setCode(code int) error {
	if err := ValidateWilayaCode(code); err != nil {
		return err
	}
	w.code = code
	return nil
}

func (w *Wilaya) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	w.name = name
	return nil
}

func (w *Wilaya) setDeliveryDays(days int) error {
	if days < 0 || days > MaxDeliveryDays {
		return errs.NewValueIsOutOfRangeError("deliveryDays", days, 0, MaxDeliveryDays)
	}
	w.deliveryDays = days
	return nil
}
