package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceUsecase struct {
	invoices  repo.InvoiceRepository
	auditRepo repo.AuditLogRepository
	now       func() time.Time
}

func NewInvoiceUsecase(invoices repo.InvoiceRepository, auditRepo repo.AuditLogRepository) *InvoiceUsecase {
	return &InvoiceUsecase{invoices: invoices, auditRepo: auditRepo, now: time.Now}
}

// INV-YYYYMMDD-XXXXXXXX
func newInvoiceNumber(now time.Time) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), strings.ToUpper(id[:8]))
}

type InvoiceInput struct {
	Number         string
	OrderCode      *string
	CustomerName   string
	CustomerEmail  string
	BillingAddress string
	Amount         decimal.Decimal
	Currency       string
	Status         string
	IssuedAt       *time.Time
	DueAt          *time.Time
	Notes          string
}

func (u *InvoiceUsecase) toInvoice(in InvoiceInput) (model.Invoice, error) {
	if strings.TrimSpace(in.CustomerName) == "" {
		return model.Invoice{}, NewHTTPError(http.StatusBadRequest, "customer_name required")
	}
	if in.Amount.IsNegative() {
		return model.Invoice{}, NewHTTPError(http.StatusBadRequest, "amount must be >= 0")
	}
	if len(strings.TrimSpace(in.Currency)) != 3 {
		return model.Invoice{}, NewHTTPError(http.StatusBadRequest, "invalid currency")
	}

	status := model.InvoiceStatusDraft
	if in.Status != "" {
		status = model.InvoiceStatus(in.Status)
		if !status.Valid() {
			return model.Invoice{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	issuedAt := u.now()
	if in.IssuedAt != nil {
		issuedAt = *in.IssuedAt
	}
	if in.DueAt != nil && in.DueAt.Before(issuedAt) {
		return model.Invoice{}, NewHTTPError(http.StatusBadRequest, "due_at must be after issued_at")
	}

	//注文コードは自由入力（注文と一致しなくてもよい）
	var orderCode *string
	if in.OrderCode != nil {
		if s := strings.TrimSpace(*in.OrderCode); s != "" {
			orderCode = &s
		}
	}

	return model.Invoice{
		Number:         strings.TrimSpace(in.Number),
		OrderCode:      orderCode,
		CustomerName:   strings.TrimSpace(in.CustomerName),
		CustomerEmail:  strings.TrimSpace(in.CustomerEmail),
		BillingAddress: in.BillingAddress,
		Amount:         in.Amount,
		Currency:       strings.ToUpper(strings.TrimSpace(in.Currency)),
		Status:         status,
		IssuedAt:       issuedAt,
		DueAt:          in.DueAt,
		Notes:          in.Notes,
	}, nil
}

type ListInvoicesInput struct {
	Page   int
	Limit  int
	Q      string
	Status string
}

func (u *InvoiceUsecase) List(ctx context.Context, in ListInvoicesInput) (ListOutput[model.Invoice], error) {
	if err := checkPaging(in.Page, in.Limit); err != nil {
		return ListOutput[model.Invoice]{}, err
	}
	if in.Status != "" && !model.InvoiceStatus(in.Status).Valid() {
		return ListOutput[model.Invoice]{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	items, total, err := u.invoices.List(ctx, repo.InvoiceListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Q:      strings.TrimSpace(in.Q),
		Status: in.Status,
	})
	if err != nil {
		return ListOutput[model.Invoice]{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ListOutput[model.Invoice]{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *InvoiceUsecase) Get(ctx context.Context, id int64) (model.Invoice, error) {
	if id <= 0 {
		return model.Invoice{}, NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	inv, err := u.invoices.FindByID(ctx, id)
	if err != nil {
		return model.Invoice{}, repoError(err)
	}
	return inv, nil
}

func (u *InvoiceUsecase) Create(ctx context.Context, in InvoiceInput) (model.Invoice, error) {
	inv, err := u.toInvoice(in)
	if err != nil {
		return model.Invoice{}, err
	}
	if inv.Number == "" {
		inv.Number = newInvoiceNumber(u.now())
	}

	created, err := u.invoices.Create(ctx, inv)
	if errors.Is(err, repo.ErrConflict) {
		return model.Invoice{}, NewHTTPError(http.StatusConflict, "invoice number already exists")
	}
	if err != nil {
		return model.Invoice{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *InvoiceUsecase) Update(ctx context.Context, id int64, in InvoiceInput) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	inv, err := u.toInvoice(in)
	if err != nil {
		return err
	}
	inv.ID = id
	return repoError(u.invoices.Update(ctx, inv))
}

func (u *InvoiceUsecase) Delete(ctx context.Context, adminUserID int64, id int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid invoice id")
	}
	if err := u.invoices.SoftDelete(ctx, id); err != nil {
		return repoError(err)
	}
	if err := u.auditRepo.Create(ctx, softDeleteAudit(adminUserID, model.AuditResourceInvoice, id)); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// コピーを下書きで作る。番号・発行日は新しく、IDは共有しない
func (u *InvoiceUsecase) Duplicate(ctx context.Context, id int64) (model.Invoice, error) {
	src, err := u.Get(ctx, id)
	if err != nil {
		return model.Invoice{}, err
	}

	now := u.now()
	cp := src
	cp.ID = 0
	cp.Number = newInvoiceNumber(now)
	cp.Status = model.InvoiceStatusDraft
	cp.IssuedAt = now
	cp.SoftDelete = model.SoftDelete{}
	cp.CreatedAt = time.Time{}
	cp.UpdatedAt = time.Time{}
	if src.DueAt != nil {
		due := now.Add(src.DueAt.Sub(src.IssuedAt))
		cp.DueAt = &due
	}

	created, err := u.invoices.Create(ctx, cp)
	if err != nil {
		return model.Invoice{}, repoError(err)
	}
	return created, nil
}
