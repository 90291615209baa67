package shipping

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/pkg/errs"
)

// ErrAccountIsNotConstructed is returned when an Account was not created via NewAccount.
var ErrAccountIsNotConstructed = errors.New("Account must be created via NewAccount constructor")

// Account holds the credentials of one delivery-provider integration.
type Account struct {
	id        kernel.UUID
	name      string
	provider  Provider
	token     string
	baseURL   string
	active    bool
	createdAt time.Time

	isConstructed bool
}

// NewAccount creates an active account. baseURL must be an absolute http(s) URL.
func NewAccount(id kernel.UUID, name string, provider Provider, token, baseURL string, createdAt time.Time) (*Account, error) {
	a := &Account{
		active:        true,
		createdAt:     createdAt.UTC(),
		isConstructed: true,
	}

	if err := errors.Join(
		a.setID(id),
		a.setName(name),
		a.setProvider(provider),
		a.setToken(token),
		a.setBaseURL(baseURL),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// RestoreAccount rebuilds an account from persistence.
func RestoreAccount(
	id kernel.UUID,
	name string,
	provider Provider,
	token, baseURL string,
	active bool,
	createdAt time.Time,
) (*Account, error) {
	a, err := NewAccount(id, name, provider, token, baseURL, createdAt)
	if err != nil {
		return nil, err
	}
	a.active = active
	return a, nil
}

func (a *Account) Validate() error {
	if a == nil || !a.isConstructed {
		return ErrAccountIsNotConstructed
	}
	return nil
}

func (a *Account) ID() kernel.UUID      { return a.id }
func (a *Account) Name() string         { return a.name }
func (a *Account) Provider() Provider   { return a.provider }
func (a *Account) Token() string        { return a.token }
func (a *Account) BaseURL() string      { return a.baseURL }
func (a *Account) IsActive() bool       { return a.active }
func (a *Account) CreatedAt() time.Time { return a.createdAt }

func (a *Account) Deactivate() {
	a.active = false
}

func (a *Account) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	a.id = id
	return nil
}

func (a *Account) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	a.name = name
	return nil
}

func (a *Account) setProvider(p Provider) error {
	if err := p.Validate(); err != nil {
		return err
	}
	a.provider = p
	return nil
}

func (a *Account) setToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errs.NewValueIsRequiredError("token")
	}
	a.token = token
	return nil
}

func (a *Account) setBaseURL(raw string) error {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errs.NewValueIsInvalidErrorWithCause("baseUrl", fmt.Errorf("%q is not an absolute http(s) URL", raw))
	}
	a.baseURL = raw
	return nil
}
