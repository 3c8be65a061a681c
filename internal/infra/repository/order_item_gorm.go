package repository

import (
	"context"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderItemGormRepository struct {
	db *gorm.DB
}

func NewOrderItemGormRepository(db *gorm.DB) *OrderItemGormRepository {
	return &OrderItemGormRepository{db: db}
}

func (r *OrderItemGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id asc").Find(&items).Error
	if err != nil {
		return []model.OrderItem{}, err
	}
	return items, nil
}

type orderItemRow struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	Quantity    int64
	UnitPrice   decimal.Decimal
	ProductName string
	ProductSKU  string
	Currency    string
}

// products は is_deleted を見ない（削除済み商品の明細も名前を出す）
func (r *OrderItemGormRepository) ListDetailedByOrderID(ctx context.Context, orderID int64) ([]repo.OrderItemDetail, error) {
	var rows []orderItemRow
	err := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select(`oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
			COALESCE(p.name, '') AS product_name,
			COALESCE(p.sku, '') AS product_sku,
			COALESCE(p.currency, '') AS currency`).
		Joins("LEFT JOIN products AS p ON p.id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		Order("oi.id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]repo.OrderItemDetail, 0, len(rows))
	for _, row := range rows {
		out = append(out, repo.OrderItemDetail{
			OrderItem: model.OrderItem{
				ID:        row.ID,
				OrderID:   row.OrderID,
				ProductID: row.ProductID,
				Quantity:  row.Quantity,
				UnitPrice: row.UnitPrice,
			},
			ProductName: row.ProductName,
			ProductSKU:  row.ProductSKU,
			Currency:    row.Currency,
		})
	}
	return out, nil
}
