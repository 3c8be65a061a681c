package repository

import (
	"backoffice/internal/domain/model"
	"context"
)

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Sort       string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	// is_deleted を無視して取得（削除確認・履歴表示用）
	FindByIDIncludingDeleted(ctx context.Context, id int64) (model.Product, error)
	// 有効な商品が何件このカテゴリにいるか
	CountByCategory(ctx context.Context, categoryID int64) (int64, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error
}
