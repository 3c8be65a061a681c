package repository

import (
	"context"

	"backoffice/internal/domain/model"
)

// 追記専用。更新・削除のメソッドは用意しない。
type OrderHistoryRepository interface {
	Append(ctx context.Context, h *model.OrderHistory) error
	//新しい順
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderHistory, error)
}
