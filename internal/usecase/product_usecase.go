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

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo  repo.ProductRepository
	categoryRepo repo.CategoryRepository
	auditRepo    repo.AuditLogRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
	}
}

// GET /admin/productsの入力DTO
type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	Sort       string
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ListOutput[model.Product], error) {
	if err := checkPaging(in.Page, in.Limit); err != nil {
		return ListOutput[model.Product]{}, err
	}
	if len(in.Q) > 100 {
		return ListOutput[model.Product]{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "name_asc":
	default:
		return ListOutput[model.Product]{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		Sort:       in.Sort,
	})
	if err != nil {
		return ListOutput[model.Product]{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ListOutput[model.Product]{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) Get(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, repoError(err)
	}
	return p, nil
}

type ProductInput struct {
	CategoryID  *int64
	Name        string
	SKU         string
	Description string
	Price       decimal.Decimal
	Currency    string
	Stock       int64
	IsActive    bool
}

func (u *ProductUsecase) validate(ctx context.Context, in ProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if strings.TrimSpace(in.SKU) == "" {
		return NewHTTPError(http.StatusBadRequest, "sku required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	if len(strings.TrimSpace(in.Currency)) != 3 {
		return NewHTTPError(http.StatusBadRequest, "invalid currency")
	}

	//カテゴリは削除されていないものだけ
	if in.CategoryID != nil {
		if _, err := u.categoryRepo.FindByID(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "category not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}
	return nil
}

func toProduct(in ProductInput) model.Product {
	return model.Product{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		SKU:         strings.TrimSpace(in.SKU),
		Description: in.Description,
		Price:       in.Price,
		Currency:    strings.ToUpper(strings.TrimSpace(in.Currency)),
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	}
}

func (u *ProductUsecase) Create(ctx context.Context, adminUserID int64, in ProductInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validate(ctx, in); err != nil {
		return model.Product{}, err
	}

	now := time.Now()
	p := toProduct(in)
	p.CreatedAt = now
	p.UpdatedAt = now

	created, err := u.productRepo.Create(ctx, p)
	if errors.Is(err, repo.ErrConflict) {
		return model.Product{}, NewHTTPError(http.StatusConflict, "sku already exists")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *ProductUsecase) Update(ctx context.Context, adminUserID int64, productID int64, in ProductInput) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := u.validate(ctx, in); err != nil {
		return err
	}

	p := toProduct(in)
	p.ID = productID

	err := u.productRepo.Update(ctx, p)
	if errors.Is(err, repo.ErrConflict) {
		return NewHTTPError(http.StatusConflict, "sku already exists")
	}
	return repoError(err)
}

// 論理削除。行は残る
func (u *ProductUsecase) Delete(ctx context.Context, adminUserID int64, productID int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	if err := u.productRepo.SoftDelete(ctx, productID); err != nil {
		return repoError(err)
	}

	//監査ログ（削除）
	if err := u.auditRepo.Create(ctx, softDeleteAudit(adminUserID, model.AuditResourceProduct, productID)); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func softDeleteAudit(actor int64, rt model.AuditResourceType, id int64) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  actor,
		Action:       model.AuditActionDelete,
		ResourceType: rt,
		ResourceID:   id,
		BeforeJSON:   `{"is_deleted":false}`,
		AfterJSON:    fmt.Sprintf(`{"is_deleted":true,"resource":%q}`, rt),
		CreatedAt:    time.Now(),
	}
}
