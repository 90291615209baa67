package queries

import (
	"context"
	"errors"
	"time"

	"backoffice/internal/core/domain/model/kernel"
	"backoffice/internal/core/domain/model/order"
	"backoffice/internal/pkg/guard"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrListShippingAccountsQueryIsNotConstructed = errors.New(
	"ListShippingAccountsQuery must be created via NewListShippingAccountsQuery constructor",
)

type ListShippingAccountsQuery struct {
	guard guard.ConstructorGuard
}

func NewListShippingAccountsQuery() ListShippingAccountsQuery {
	return ListShippingAccountsQuery{guard: guard.NewConstructorGuard()}
}

func (q ListShippingAccountsQuery) Validate() error {
	return q.guard.Validate(ErrListShippingAccountsQueryIsNotConstructed)
}

// ShippingAccountView never carries the API token.
type ShippingAccountView struct {
	ID               kernel.UUID
	Name             string
	Provider         string
	BaseURL          string
	Active           bool
	CreatedAt        time.Time
	Orders           int
	CorruptedOrders  int
	UnresolvedOrders int
}

type ListShippingAccountsQueryHandler struct {
	db *gorm.DB
}

func NewListShippingAccountsQueryHandler(db *gorm.DB) ListShippingAccountsQueryHandler {
	return ListShippingAccountsQueryHandler{db: db}
}

func (h ListShippingAccountsQueryHandler) Handle(ctx context.Context, query ListShippingAccountsQuery) ([]ShippingAccountView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	unresolved, unresolvedArgs, err := sq.NotEq{"status": resolvedStatusNames()}.ToSql()
	if err != nil {
		return nil, err
	}

	counts, args, err := psql.
		Select("shipping_account_id", "COUNT(*) AS orders").
		Column(sq.Expr("COUNT(*) FILTER (WHERE tracking_number = ?) AS corrupted", order.CorruptedTrackingNumber)).
		Column(sq.Expr("COUNT(*) FILTER (WHERE "+unresolved+") AS unresolved", unresolvedArgs...)).
		From("orders").
		Where(sq.NotEq{"shipping_account_id": nil}).
		GroupBy("shipping_account_id").
		ToSql()
	if err != nil {
		return nil, err
	}

	sqlText, _, err := psql.
		Select("s.id", "s.name", "s.provider", "s.base_url", "s.active", "s.created_at",
			"COALESCE(c.orders, 0)", "COALESCE(c.corrupted, 0)", "COALESCE(c.unresolved, 0)").
		From("shipping_accounts s").
		LeftJoin("(" + counts + ") c ON c.shipping_account_id = s.id").
		OrderBy("s.name", "s.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(sqlText, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]ShippingAccountView, 0)
	for rows.Next() {
		var view ShippingAccountView
		var id uuid.UUID
		if err = rows.Scan(&id, &view.Name, &view.Provider, &view.BaseURL, &view.Active, &view.CreatedAt,
			&view.Orders, &view.CorruptedOrders, &view.UnresolvedOrders); err != nil {
			return nil, err
		}
		if view.ID, err = toKernelUUID(id); err != nil {
			return nil, err
		}
		accounts = append(accounts, view)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

