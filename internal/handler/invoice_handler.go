package handler

import (
	"net/http"
	"time"

	"backoffice/internal/authz"
	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type InvoiceRequest struct {
	Number         string          `json:"number" validate:"max=64"`
	OrderCode      *string         `json:"order_code" validate:"omitempty,max=64"`
	CustomerName   string          `json:"customer_name" validate:"required,max=255"`
	CustomerEmail  string          `json:"customer_email" validate:"omitempty,email"`
	BillingAddress string          `json:"billing_address"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency" validate:"required,len=3"`
	Status         string          `json:"status" validate:"omitempty,oneof=draft issued paid void"`
	IssuedAt       *time.Time      `json:"issued_at"`
	DueAt          *time.Time      `json:"due_at"`
	Notes          string          `json:"notes"`
}

func (r InvoiceRequest) input() usecase.InvoiceInput {
	return usecase.InvoiceInput(r)
}

type InvoiceHandler struct {
	uc *usecase.InvoiceUsecase
}

func NewInvoiceHandler(uc *usecase.InvoiceUsecase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

func (h *InvoiceHandler) RegisterRoutes(admin *echo.Group, guard Guard) {
	g := admin.Group("/invoices", guard(authz.CapInvoicesWrite))
	g.GET("", h.list)
	g.GET("/:id", h.detail)
	g.POST("", h.create)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/duplicate", h.duplicate)
}

func (h *InvoiceHandler) list(c echo.Context) error {
	page, limit, err := paging(c, 20)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), usecase.ListInvoicesInput{
		Page:   page,
		Limit:  limit,
		Q:      c.QueryParam("q"),
		Status: c.QueryParam("status"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InvoiceHandler) detail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	inv, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *InvoiceHandler) create(c echo.Context) error {
	var req InvoiceRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	inv, err := h.uc.Create(c.Request().Context(), req.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *InvoiceHandler) update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req InvoiceRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Update(c.Request().Context(), id, req.input()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *InvoiceHandler) delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	if err := h.uc.Delete(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *InvoiceHandler) duplicate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	inv, err := h.uc.Duplicate(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, inv)
}
