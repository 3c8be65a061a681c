package usecase

import (
	"context"
	"time"

	"backoffice/internal/domain/model"
	repo "backoffice/internal/repository"
)

type ListAuditLogsInput struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

type AuditLogUsecase struct {
	repo repo.AuditLogRepository
}

func NewAuditLogUsecase(r repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{repo: r}
}

func (u *AuditLogUsecase) List(ctx context.Context, in ListAuditLogsInput) (ListOutput[model.AuditLog], error) {
	if err := checkPaging(in.Page, in.Limit); err != nil {
		return ListOutput[model.AuditLog]{}, err
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Page:        in.Page,
		Limit:       in.Limit,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		f.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		f.ResourceType = &rt
	}

	logs, total, err := u.repo.List(ctx, f)
	if err != nil {
		return ListOutput[model.AuditLog]{}, repoError(err)
	}
	return ListOutput[model.AuditLog]{Items: logs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}
