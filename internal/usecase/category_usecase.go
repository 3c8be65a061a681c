package usecase

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type CategoryUsecase struct {
	categories repo.CategoryRepository
	tx         repo.TransactionManager
}

func NewCategoryUsecase(categories repo.CategoryRepository, tx repo.TransactionManager) *CategoryUsecase {
	return &CategoryUsecase{categories: categories, tx: tx}
}

type CategoryInput struct {
	Name        string
	Slug        string
	Description string
}

func (in CategoryInput) check() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if !slugPattern.MatchString(strings.TrimSpace(in.Slug)) {
		return NewHTTPError(http.StatusBadRequest, "invalid slug")
	}
	return nil
}

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	list, err := u.categories.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return list, nil
}

func (u *CategoryUsecase) Get(ctx context.Context, id int64) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid category id")
	}
	c, err := u.categories.FindByID(ctx, id)
	if err != nil {
		return model.Category{}, repoError(err)
	}
	return c, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	if err := in.check(); err != nil {
		return model.Category{}, err
	}
	c, err := u.categories.Create(ctx, model.Category{
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Category{}, NewHTTPError(http.StatusConflict, "slug already exists")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, in CategoryInput) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid category id")
	}
	if err := in.check(); err != nil {
		return err
	}
	err := u.categories.Update(ctx, model.Category{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Slug:        strings.TrimSpace(in.Slug),
		Description: in.Description,
	})
	if errors.Is(err, repo.ErrConflict) {
		return NewHTTPError(http.StatusConflict, "slug already exists")
	}
	return repoError(err)
}

// 有効な商品が残っているカテゴリは消せない（409、カテゴリはそのまま）
func (u *CategoryUsecase) Delete(ctx context.Context, adminUserID int64, id int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Categories().FindByID(ctx, id); err != nil {
			return repoError(err)
		}

		n, err := r.Products().CountByCategory(ctx, id)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if n > 0 {
			return NewHTTPError(http.StatusConflict, "category has products")
		}

		if err := r.Categories().SoftDelete(ctx, id); err != nil {
			return repoError(err)
		}
		if err := r.AuditLogs().Create(ctx, softDeleteAudit(adminUserID, model.AuditResourceCategory, id)); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
}
