package usecase

import (
	"context"
	"net/http"

	"grocery/internal/domain/model"
	repo "grocery/internal/repository"
)

type AuditUsecase struct {
	logs repo.AuditLogRepository
}

func NewAuditUsecase(logs repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{logs: logs}
}

type ListAuditLogsInput struct {
	Action       string
	ResourceType string
	ResourceID   *int64
	Limit        int
	Offset       int
}

func (u *AuditUsecase) List(ctx context.Context, actor model.Identity, in ListAuditLogsInput) ([]model.AuditLog, error) {
	if !actor.IsAdmin() {
		return nil, forbidden()
	}
	if in.Limit < 0 || in.Limit > 200 || in.Offset < 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid paging")
	}

	f := repo.AuditLogFilter{
		ResourceID: in.ResourceID,
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	if in.Action != "" {
		a := model.AuditAction(in.Action)
		f.Action = &a
	}
	if in.ResourceType != "" {
		rt := model.AuditResourceType(in.ResourceType)
		f.ResourceType = &rt
	}

	logs, err := u.logs.List(ctx, f)
	if err != nil {
		return nil, internalError(ctx, "audit.list", err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
