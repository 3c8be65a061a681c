package usecase

import (
	"context"
	"net/http"
	"strings"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"
)

type ReviewUsecase struct {
	reviews   repo.ReviewRepository
	auditRepo repo.AuditLogRepository
}

func NewReviewUsecase(reviews repo.ReviewRepository, auditRepo repo.AuditLogRepository) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, auditRepo: auditRepo}
}

type ListReviewsInput struct {
	Page      int
	Limit     int
	ProductID *int64
	Approved  *bool
}

func (u *ReviewUsecase) List(ctx context.Context, in ListReviewsInput) (ListOutput[model.Review], error) {
	if err := checkPaging(in.Page, in.Limit); err != nil {
		return ListOutput[model.Review]{}, err
	}
	items, total, err := u.reviews.List(ctx, repo.ReviewListFilter{
		Page:      in.Page,
		Limit:     in.Limit,
		ProductID: in.ProductID,
		Approved:  in.Approved,
	})
	if err != nil {
		return ListOutput[model.Review]{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ListOutput[model.Review]{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

type ReviewUpdateInput struct {
	Rating int
	Title  string
	Body   string
}

func (u *ReviewUsecase) Update(ctx context.Context, id int64, in ReviewUpdateInput) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid review id")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return NewHTTPError(http.StatusBadRequest, "rating must be 1..5")
	}
	return repoError(u.reviews.Update(ctx, model.Review{
		ID:     id,
		Rating: in.Rating,
		Title:  strings.TrimSpace(in.Title),
		Body:   in.Body,
	}))
}

// 承認 / 承認取り消し
func (u *ReviewUsecase) SetApproved(ctx context.Context, id int64, approved bool) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid review id")
	}
	return repoError(u.reviews.SetApproved(ctx, id, approved))
}

func (u *ReviewUsecase) Delete(ctx context.Context, adminUserID int64, id int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid review id")
	}
	if err := u.reviews.SoftDelete(ctx, id); err != nil {
		return repoError(err)
	}
	if err := u.auditRepo.Create(ctx, softDeleteAudit(adminUserID, model.AuditResourceReview, id)); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
