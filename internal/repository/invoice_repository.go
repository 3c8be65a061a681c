package repository

import (
	"context"

	"backoffice/internal/domain/model"
)

type InvoiceListFilter struct {
	Page   int
	Limit  int
	Q      string
	Status string
}

type InvoiceRepository interface {
	List(ctx context.Context, f InvoiceListFilter) ([]model.Invoice, int64, error)
	FindByID(ctx context.Context, id int64) (model.Invoice, error)
	// 注文コードで最新の請求書。無ければ found=false
	FindByOrderCode(ctx context.Context, orderCode string) (model.Invoice, bool, error)
	Create(ctx context.Context, inv model.Invoice) (model.Invoice, error)
	Update(ctx context.Context, inv model.Invoice) error
	SoftDelete(ctx context.Context, id int64) error
}
