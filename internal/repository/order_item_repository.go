package repository

import (
	"context"

	"backoffice/internal/domain/model"
)

// 明細 + 商品情報（商品名/SKU/通貨）
type OrderItemDetail struct {
	model.OrderItem
	ProductName string
	ProductSKU  string
	Currency    string
}

type OrderItemRepository interface {
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error)
	// 論理削除された商品でも名前は引く（過去の明細のため）
	ListDetailedByOrderID(ctx context.Context, orderID int64) ([]OrderItemDetail, error)
}
