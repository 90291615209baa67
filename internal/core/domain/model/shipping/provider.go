package shipping

import (
	"fmt"
	"strings"

	"backoffice/internal/pkg/errs"
)

// Provider is the delivery company behind an account.
type Provider int

const (
	UnknownProvider Provider = iota
	Maystro
	Yalidine
	ZRExpress
)

func getProviderStrings() map[Provider]string {
	return map[Provider]string{
		UnknownProvider: "unknown",
		Maystro:         "maystro",
		Yalidine:        "yalidine",
		ZRExpress:       "zr_express",
	}
}

func ParseProvider(s string) (Provider, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for p, str := range getProviderStrings() {
		if p != UnknownProvider && str == needle {
			return p, nil
		}
	}
	return UnknownProvider, errs.NewValueIsInvalidErrorWithCause("provider", fmt.Errorf("%q is not a supported provider", s))
}

func (p Provider) String() string {
	if str, ok := getProviderStrings()[p]; ok {
		return str
	}
	return getProviderStrings()[UnknownProvider]
}

func (p Provider) Validate() error {
	if _, ok := getProviderStrings()[p]; !ok || p == UnknownProvider {
		return errs.NewValueIsInvalidErrorWithCause("provider", fmt.Errorf("%d is not a supported provider", p))
	}
	return nil
}

// SupportsBulkLookup reports whether the provider API can resolve many
// external references in one request. Only those accounts can be synced.
func (p Provider) SupportsBulkLookup() bool {
	return p == Maystro
}
