package repository

import (
	"context"

	"backoffice/internal/domain/model"
)

type ReviewListFilter struct {
	Page      int
	Limit     int
	ProductID *int64
	Approved  *bool
}

type ReviewRepository interface {
	List(ctx context.Context, f ReviewListFilter) ([]model.Review, int64, error)
	FindByID(ctx context.Context, id int64) (model.Review, error)
	Update(ctx context.Context, r model.Review) error
	SetApproved(ctx context.Context, id int64, approved bool) error
	SoftDelete(ctx context.Context, id int64) error
}
