package commands

import (
	"context"
	"errors"
	"fmt"

	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/core/ports"
	"backoffice/internal/pkg/errs"
)

// UpdateCommissionSettingsCommandHandler replaces the singleton commission row.
type UpdateCommissionSettingsCommandHandler struct {
	uowFactory SettingsUoWFactory
}

func NewUpdateCommissionSettingsCommandHandler(uowFactory SettingsUoWFactory) UpdateCommissionSettingsCommandHandler {
	return UpdateCommissionSettingsCommandHandler{uowFactory: uowFactory}
}

func (h UpdateCommissionSettingsCommandHandler) Handle(
	ctx context.Context, command UpdateCommissionSettingsCommand,
) (settings.Commission, error) {
	if err := command.Validate(); err != nil {
		return settings.Commission{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return settings.Commission{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.SettingsRepository().SaveCommission(ctx, command.Commission()); err != nil {
		return settings.Commission{}, err
	}
	if err := uow.Commit(ctx); err != nil {
		return settings.Commission{}, err
	}

	return command.Commission(), nil
}

// SaveWilayaSettingCommandHandler creates or updates one wilaya setting.
// Creating an existing code wraps ports.ErrDuplicate; updating a missing one
// returns errs.ErrObjectNotFound.
type SaveWilayaSettingCommandHandler struct {
	uowFactory SettingsUoWFactory
}

func NewSaveWilayaSettingCommandHandler(uowFactory SettingsUoWFactory) SaveWilayaSettingCommandHandler {
	return SaveWilayaSettingCommandHandler{uowFactory: uowFactory}
}

func (h SaveWilayaSettingCommandHandler) Handle(ctx context.Context, command SaveWilayaSettingCommand) (settings.Wilaya, error) {
	if err := command.Validate(); err != nil {
		return settings.Wilaya{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return settings.Wilaya{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.SettingsRepository()
	w := command.Wilaya()

	_, err := repo.GetWilaya(ctx, w.Code())
	switch {
	case err == nil && !command.MustExist():
		return settings.Wilaya{}, fmt.Errorf("%w: wilaya %d", ports.ErrDuplicate, w.Code())
	case err != nil && (command.MustExist() || !errors.Is(err, errs.ErrObjectNotFound)):
		return settings.Wilaya{}, err
	}

	if err = repo.SaveWilaya(ctx, w); err != nil {
		return settings.Wilaya{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return settings.Wilaya{}, err
	}

	return w, nil
}

type DeleteWilayaSettingCommandHandler struct {
	uowFactory SettingsUoWFactory
}

func NewDeleteWilayaSettingCommandHandler(uowFactory SettingsUoWFactory) DeleteWilayaSettingCommandHandler {
	return DeleteWilayaSettingCommandHandler{uowFactory: uowFactory}
}

func (h DeleteWilayaSettingCommandHandler) Handle(ctx context.Context, command DeleteWilayaSettingCommand) error {
	if err := command.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.SettingsRepository().DeleteWilaya(ctx, command.Code()); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
