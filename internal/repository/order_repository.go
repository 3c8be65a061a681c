package repository

import (
	"context"
	"time"

	"backoffice/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	Code   string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// ステータス更新で書き込む値
type OrderStatusChange struct {
	OrderID   int64
	Status    model.OrderStatus
	AdminNote *string
	ActorID   int64
	At        time.Time
}

// 論理削除済みの注文はどのメソッドも返さない（ErrNotFound）。
type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	FindByCode(ctx context.Context, code string) (model.Order, error)
	// トランザクション内で行ロックを取って読む
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	UpdateStatus(ctx context.Context, ch OrderStatusChange) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
