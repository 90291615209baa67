package ports

import (
	"context"

	"backoffice/internal/core/domain/model/settings"
)

// SettingsRepository stores the singleton commission settings and the
// per-wilaya delivery settings.
type SettingsRepository interface {
	// GetCommission returns errs.ErrObjectNotFound until settings were saved once.
	GetCommission(ctx context.Context) (settings.Commission, error)
	SaveCommission(ctx context.Context, c settings.Commission) error

	GetWilaya(ctx context.Context, code int) (settings.Wilaya, error)
	// SaveWilaya inserts or replaces the setting for w.Code().
	SaveWilaya(ctx context.Context, w settings.Wilaya) error
	// DeleteWilaya returns errs.ErrObjectNotFound if nothing was deleted.
	DeleteWilaya(ctx context.Context, code int) error
}
