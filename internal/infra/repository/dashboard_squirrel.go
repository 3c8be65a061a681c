package repository

import (
	"context"
	"fmt"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 集計クエリは squirrel で組み立てて gorm の Raw で流す。
// プレースホルダは gorm に合わせて ? のまま。
type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func ordersInRange(b sq.SelectBuilder, from, to *time.Time) sq.SelectBuilder {
	b = b.Where(sq.Eq{"is_deleted": false})
	if from != nil {
		b = b.Where(sq.GtOrEq{"created_at": *from})
	}
	if to != nil {
		b = b.Where(sq.LtOrEq{"created_at": *to})
	}
	return b
}

func (r *DashboardRepository) CountOrdersByStatus(ctx context.Context, from, to *time.Time) ([]repo.StatusCount, error) {
	query, args, err := ordersInRange(
		sq.Select("status", "COUNT(*) AS count").From("orders"), from, to).
		GroupBy("status").
		OrderBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build status count query: %w", err)
	}

	var rows []struct {
		Status model.OrderStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]repo.StatusCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, repo.StatusCount{Status: row.Status, Count: row.Count})
	}
	return out, nil
}

func (r *DashboardRepository) RevenueByCurrency(ctx context.Context, from, to *time.Time) (map[string]decimal.Decimal, error) {
	query, args, err := ordersInRange(
		sq.Select("currency", "COALESCE(SUM(total), 0) AS amount").From("orders"), from, to).
		Where(sq.Eq{"status": model.OrderStatusDelivered}).
		GroupBy("currency").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build revenue query: %w", err)
	}

	var rows []struct {
		Currency string
		Amount   decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	out := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		out[row.Currency] = row.Amount
	}
	return out, nil
}
