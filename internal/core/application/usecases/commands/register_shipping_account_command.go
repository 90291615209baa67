package commands

import (
	"errors"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/shipping"
	"backoffice/internal/pkg/guard"
)

var ErrRegisterShippingAccountCommandIsNotConstructed = errors.New(
	"RegisterShippingAccountCommand must be created via NewRegisterShippingAccountCommand constructor",
)

type RegisterShippingAccountCommand struct {
	accountID kernel.UUID
	name      string
	provider  shipping.Provider
	token     string
	baseURL   string

	guard guard.ConstructorGuard
}

func NewRegisterShippingAccountCommand(
	name string, provider shipping.Provider, token, baseURL string,
) (RegisterShippingAccountCommand, error) {
	if err := provider.Validate(); err != nil {
		return RegisterShippingAccountCommand{}, err
	}

	return RegisterShippingAccountCommand{
		accountID: kernel.NewUUID(),
		name:      name,
		provider:  provider,
		token:     token,
		baseURL:   baseURL,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

func (c *RegisterShippingAccountCommand) AccountID() kernel.UUID      { return c.accountID }
func (c *RegisterShippingAccountCommand) Name() string                { return c.name }
func (c *RegisterShippingAccountCommand) Provider() shipping.Provider { return c.provider }
func (c *RegisterShippingAccountCommand) Token() string               { return c.token }
func (c *RegisterShippingAccountCommand) BaseURL() string             { return c.baseURL }

func (c *RegisterShippingAccountCommand) Validate() error {
	return c.guard.Validate(ErrRegisterShippingAccountCommandIsNotConstructed)
}
