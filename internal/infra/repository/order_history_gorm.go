package repository

import (
	"context"

	"backoffice/internal/domain/model"

	"gorm.io/gorm"
)

type OrderHistoryGormRepository struct {
	db *gorm.DB
}

func NewOrderHistoryGormRepository(db *gorm.DB) *OrderHistoryGormRepository {
	return &OrderHistoryGormRepository{db: db}
}

func (r *OrderHistoryGormRepository) Append(ctx context.Context, h *model.OrderHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

// 新しい順。同時刻なら id の大きい方を先に
func (r *OrderHistoryGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderHistory, error) {
	var list []model.OrderHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("changed_at desc").
		Order("id desc").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
