package handler

import (
	"net/http"

	"backoffice/internal/authz"
	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAuditLogHandler(uc *usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(admin *echo.Group, guard Guard) {
	admin.GET("/audit-logs", h.list, guard(authz.CapUsersRead))
}

// GET /admin/audit-logs?actor_user_id=&action=&resource_type=&resource_id=&from=&to=
func (h *AuditLogHandler) list(c echo.Context) error {
	page, limit, err := paging(c, 50)
	if err != nil {
		return writeError(c, err)
	}
	actor, err := queryInt64(c, "actor_user_id")
	if err != nil {
		return writeError(c, err)
	}
	resourceID, err := queryInt64(c, "resource_id")
	if err != nil {
		return writeError(c, err)
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListAuditLogsInput{
		Page:         page,
		Limit:        limit,
		ActorUserID:  actor,
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   resourceID,
		From:         from,
		To:           to,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
