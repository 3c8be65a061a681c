package handler

import (
	"net/http"

	"backoffice/internal/authz"
	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReviewUpdateRequest struct {
	Rating int    `json:"rating" validate:"min=1,max=5"`
	Title  string `json:"title" validate:"max=255"`
	Body   string `json:"body"`
}

type ReviewApprovalRequest struct {
	Approved bool `json:"approved"`
}

type ReviewHandler struct {
	uc *usecase.ReviewUsecase
}

func NewReviewHandler(uc *usecase.ReviewUsecase) *ReviewHandler {
	return &ReviewHandler{uc: uc}
}

func (h *ReviewHandler) RegisterRoutes(admin *echo.Group, guard Guard) {
	g := admin.Group("/reviews", guard(authz.CapReviewsModerate))
	g.GET("", h.list)
	g.PUT("/:id", h.update)
	g.POST("/:id/approval", h.setApproval)
	g.DELETE("/:id", h.delete)
}

func (h *ReviewHandler) list(c echo.Context) error {
	page, limit, err := paging(c, 20)
	if err != nil {
		return writeError(c, err)
	}
	productID, err := queryInt64(c, "product_id")
	if err != nil {
		return writeError(c, err)
	}
	approved, err := queryBool(c, "approved")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), usecase.ListReviewsInput{
		Page:      page,
		Limit:     limit,
		ProductID: productID,
		Approved:  approved,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReviewHandler) update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req ReviewUpdateRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Update(c.Request().Context(), id, usecase.ReviewUpdateInput(req)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *ReviewHandler) setApproval(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req ReviewApprovalRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.SetApproved(c.Request().Context(), id, req.Approved); err != nil {
		return writeError(c, err)
	}
	msg := "unapproved"
	if req.Approved {
		msg = "approved"
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: msg})
}

func (h *ReviewHandler) delete(c echo.Context) error {
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
