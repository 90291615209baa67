package commands

import (
	"errors"

	"backoffice/internal/core/domain/model/settings"
	"backoffice/internal/pkg/guard"
)

var ErrSaveWilayaSettingCommandIsNotConstructed = errors.New(
	"SaveWilayaSettingCommand must be created via NewSaveWilayaSettingCommand constructor",
)

// SaveWilayaSettingCommand creates or updates the setting of one wilaya.
// mustExist distinguishes an update (PUT) from a creation (POST).
type SaveWilayaSettingCommand struct {
	wilaya    settings.Wilaya
	mustExist bool

	guard guard.ConstructorGuard
}

func NewSaveWilayaSettingCommand(code int, name string, deliveryDays int, active, mustExist bool) (SaveWilayaSettingCommand, error) {
	w, err := settings.NewWilaya(code, name, deliveryDays, active)
	if err != nil {
		return SaveWilayaSettingCommand{}, err
	}
	return SaveWilayaSettingCommand{wilaya: w, mustExist: mustExist, guard: guard.NewConstructorGuard()}, nil
}

func (c *SaveWilayaSettingCommand) Wilaya() settings.Wilaya { return c.wilaya }
func (c *SaveWilayaSettingCommand) MustExist() bool         { return c.mustExist }

func (c *SaveWilayaSettingCommand) Validate() error {
	return c.guard.Validate(ErrSaveWilayaSettingCommandIsNotConstructed)
}

var ErrDeleteWilayaSettingCommandIsNotConstructed = errors.New(
	"DeleteWilayaSettingCommand must be created via NewDeleteWilayaSettingCommand constructor",
)

type DeleteWilayaSettingCommand struct {
	code int

	guard guard.ConstructorGuard
}

func NewDeleteWilayaSettingCommand(code int) (DeleteWilayaSettingCommand, error) {
	if err := settings.ValidateWilayaCode(code); err != nil {
		return DeleteWilayaSettingCommand{}, err
	}
	return DeleteWilayaSettingCommand{code: code, guard: guard.NewConstructorGuard()}, nil
}

func (c *DeleteWilayaSettingCommand) Code() int { return c.code }

func (c *DeleteWilayaSettingCommand) Validate() error {
	return c.guard.Validate(ErrDeleteWilayaSettingCommandIsNotConstructed)
}
