package commands

import (
	"errors"

	"backoffice/internal/pkg/errs"
	"backoffice/internal/pkg/guard"
)

// MaxImportPages bounds one pull import.
const MaxImportPages = 100

var ErrImportOrdersCommandIsNotConstructed = errors.New(
	"ImportOrdersCommand must be created via NewImportOrdersCommand constructor",
)

// ImportOrdersCommand pulls new orders from the order source, newest first,
// for at most maxPages pages.
type ImportOrdersCommand struct {
	maxPages int

	guard guard.ConstructorGuard
}

func NewImportOrdersCommand(maxPages int) (ImportOrdersCommand, error) {
	if maxPages < 1 || maxPages > MaxImportPages {
		return ImportOrdersCommand{}, errs.NewValueIsOutOfRangeError("maxPages", maxPages, 1, MaxImportPages)
	}
	return ImportOrdersCommand{maxPages: maxPages, guard: guard.NewConstructorGuard()}, nil
}

func (c *ImportOrdersCommand) MaxPages() int { return c.maxPages }

func (c *ImportOrdersCommand) Validate() error {
	return c.guard.Validate(ErrImportOrdersCommandIsNotConstructed)
}
