package handler

import (
	"net/http"

	"backoffice/internal/authz"
	"backoffice/internal/domain/model"
	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	reader  *usecase.OrderUsecase
	updater *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(reader *usecase.OrderUsecase, updater *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{reader: reader, updater: updater}
}

type OrderStatusUpdateRequest struct {
	Status string  `json:"status" form:"status" validate:"required"`
	Note   *string `json:"note" form:"note" validate:"omitempty,max=2000"`
}

type orderDetailResponse struct {
	usecase.OrderDetail
	AllowedNext []model.OrderStatus `json:"allowed_next"`
}

func (h *AdminOrderHandler) RegisterRoutes(admin *echo.Group, guard Guard) {
	admin.GET("/orders", h.list, guard(authz.CapOrdersRead))
	admin.GET("/orders/:ref", h.detail, guard(authz.CapOrdersRead))
	admin.PUT("/orders/:ref/status", h.updateStatus, guard(authz.CapOrdersWrite))
	// フォームPOSTからも使う
	admin.POST("/orders/:ref/status", h.updateStatus, guard(authz.CapOrdersWrite))
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, err := paging(c, 50)
	if err != nil {
		return writeError(c, err)
	}

	userID, err := queryInt64(c, "user_id")
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

	out, err := h.reader.List(c.Request().Context(), usecase.OrderListInput{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		Code:   c.QueryParam("code"),
		UserID: userID,
		From:   from,
		To:     to,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// :ref は数字ならid、それ以外は注文コード
func (h *AdminOrderHandler) detail(c echo.Context) error {
	detail, found, err := h.reader.Get(c.Request().Context(), c.Param("ref"))
	if err != nil {
		return writeError(c, err)
	}
	if !found {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "order not found"})
	}

	return c.JSON(http.StatusOK, orderDetailResponse{
		OrderDetail: detail,
		AllowedNext: h.updater.AllowedNext(detail.Order.Status),
	})
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	var req OrderStatusUpdateRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}

	// 操作した管理者ID（changed_by / updated_by）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	res, err := h.updater.UpdateStatus(
		c.Request().Context(),
		adminID,
		c.Param("ref"),
		usecase.AdminUpdateOrderStatusInput{Status: req.Status, Note: req.Note},
	)
	if err != nil {
		return writeError(c, err)
	}

	// メール失敗でも200（notification.success=false）
	return c.JSON(http.StatusOK, res)
}
