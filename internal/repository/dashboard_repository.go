package repository

import (
	"context"
	"time"

	"backoffice/internal/domain/model"

	"github.com/shopspring/decimal"
)

type StatusCount struct {
	Status model.OrderStatus
	Count  int64
}

// 集計専用（読み取りのみ）
type DashboardRepository interface {
	CountOrdersByStatus(ctx context.Context, from, to *time.Time) ([]StatusCount, error)
	// delivered の合計金額（通貨ごと）
	RevenueByCurrency(ctx context.Context, from, to *time.Time) (map[string]decimal.Decimal, error)
}
