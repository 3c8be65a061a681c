package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"gorm.io/gorm"
)

type InvoiceGormRepository struct {
	db *gorm.DB
}

func NewInvoiceGormRepository(db *gorm.DB) *InvoiceGormRepository {
	return &InvoiceGormRepository{db: db}
}

func (r *InvoiceGormRepository) List(ctx context.Context, f repo.InvoiceListFilter) ([]model.Invoice, int64, error) {
	limit, offset := paginate(f.Page, f.Limit, 100, 20)

	q := r.db.WithContext(ctx).Model(&model.Invoice{}).Scopes(notDeleted(""))

	//番号・注文コード・顧客名
	if strings.TrimSpace(f.Q) != "" {
		like := likePattern(f.Q)
		q = q.Where("number ILIKE ? OR order_code ILIKE ? OR customer_name ILIKE ?", like, like, like)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Invoice
	if err := q.Order("issued_at desc").Order("id desc").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *InvoiceGormRepository) FindByID(ctx context.Context, id int64) (model.Invoice, error) {
	var inv model.Invoice
	if err := r.db.WithContext(ctx).Scopes(notDeleted("")).Where("id = ?", id).First(&inv).Error; err != nil {
		return model.Invoice{}, translateError(err)
	}
	return inv, nil
}

func (r *InvoiceGormRepository) FindByOrderCode(ctx context.Context, orderCode string) (model.Invoice, bool, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).
		Scopes(notDeleted("")).
		Where("order_code = ?", orderCode).
		Order("issued_at desc").
		Order("id desc").
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Invoice{}, false, nil
	}
	if err != nil {
		return model.Invoice{}, false, err
	}
	return inv, true, nil
}

func (r *InvoiceGormRepository) Create(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	if err := r.db.WithContext(ctx).Create(&inv).Error; err != nil {
		return model.Invoice{}, translateError(err)
	}
	return inv, nil
}

func (r *InvoiceGormRepository) Update(ctx context.Context, inv model.Invoice) error {
	res := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Scopes(notDeleted("")).
		Where("id = ?", inv.ID).
		Updates(map[string]interface{}{
			"order_code":      inv.OrderCode,
			"customer_name":   inv.CustomerName,
			"customer_email":  inv.CustomerEmail,
			"billing_address": inv.BillingAddress,
			"amount":          inv.Amount,
			"currency":        inv.Currency,
			"status":          inv.Status,
			"issued_at":       inv.IssuedAt,
			"due_at":          inv.DueAt,
			"notes":           inv.Notes,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *InvoiceGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&model.Invoice{}).
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
