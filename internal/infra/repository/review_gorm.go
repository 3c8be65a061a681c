package repository

import (
	"context"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"gorm.io/gorm"
)

type ReviewGormRepository struct {
	db *gorm.DB
}

func NewReviewGormRepository(db *gorm.DB) *ReviewGormRepository {
	return &ReviewGormRepository{db: db}
}

func (r *ReviewGormRepository) List(ctx context.Context, f repo.ReviewListFilter) ([]model.Review, int64, error) {
	limit, offset := paginate(f.Page, f.Limit, 100, 20)

	q := r.db.WithContext(ctx).Model(&model.Review{}).Scopes(notDeleted(""))
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}
	if f.Approved != nil {
		q = q.Where("is_approved = ?", *f.Approved)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Review
	if err := q.Order("created_at desc").Order("id desc").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *ReviewGormRepository) FindByID(ctx context.Context, id int64) (model.Review, error) {
	var rv model.Review
	if err := r.db.WithContext(ctx).Scopes(notDeleted("")).Where("id = ?", id).First(&rv).Error; err != nil {
		return model.Review{}, translateError(err)
	}
	return rv, nil
}

// 管理画面からは本文の修正だけ
func (r *ReviewGormRepository) Update(ctx context.Context, rv model.Review) error {
	res := r.db.WithContext(ctx).Model(&model.Review{}).
		Scopes(notDeleted("")).
		Where("id = ?", rv.ID).
		Updates(map[string]interface{}{
			"rating": rv.Rating,
			"title":  rv.Title,
			"body":   rv.Body,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewGormRepository) SetApproved(ctx context.Context, id int64, approved bool) error {
	res := r.db.WithContext(ctx).Model(&model.Review{}).
		Scopes(notDeleted("")).
		Where("id = ?", id).
		Update("is_approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ReviewGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&model.Review{}).
		Scopes(notDeleted("")).
		Where("id = ?", id).
		Updates(softDeleteColumns(time.Now()))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
