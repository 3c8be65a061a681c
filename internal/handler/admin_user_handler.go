package handler

import (
	"net/http"

	"backoffice/internal/authz"
	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

type UserCreateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=255"`
	Password string `json:"password" validate:"required,min=8"`
}

type UserUpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

type RoleRequest struct {
	Role string `json:"role" form:"role" validate:"required,oneof=superadmin admin editor"`
}

type AdminUserHandler struct {
	uc *usecase.UserUsecase
}

func NewAdminUserHandler(uc *usecase.UserUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

// ロール変更・削除の権限は usecase 側でも確認する
func (h *AdminUserHandler) RegisterRoutes(admin *echo.Group, guard Guard) {
	admin.GET("/users", h.list, guard(authz.CapUsersRead))
	admin.GET("/users/:id", h.detail, guard(authz.CapUsersRead))
	admin.POST("/users", h.create, guard(authz.CapRolesManage))
	admin.PUT("/users/:id", h.update, guard(authz.CapRolesManage))
	admin.DELETE("/users/:id", h.delete)
	admin.POST("/users/:id/roles", h.assignRole)
	admin.DELETE("/users/:id/roles/:role", h.revokeRole)
}

func (h *AdminUserHandler) list(c echo.Context) error {
	page, limit, err := paging(c, 20)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), usecase.ListUsersInput{Page: page, Limit: limit, Q: c.QueryParam("q")})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	u, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AdminUserHandler) create(c echo.Context) error {
	var req UserCreateRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	u, err := h.uc.Create(c.Request().Context(), usecase.CreateUserInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *AdminUserHandler) update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req UserUpdateRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	u, err := h.uc.Update(c.Request().Context(), id, usecase.UpdateUserInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AdminUserHandler) delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	if err := h.uc.Delete(c.Request().Context(), actorID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminUserHandler) assignRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req RoleRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	out, err := h.uc.AssignRole(c.Request().Context(), actorID, id, req.Role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) revokeRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	out, err := h.uc.RevokeRole(c.Request().Context(), actorID, id, c.Param("role"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
