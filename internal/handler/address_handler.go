package handler

import (
	"net/http"

	"backoffice/internal/authz"
	"backoffice/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AddressRequest struct {
	Recipient  string `json:"recipient" validate:"required,max=255"`
	Line1      string `json:"line1" validate:"required,max=255"`
	Line2      string `json:"line2" validate:"max=255"`
	City       string `json:"city" validate:"required,max=255"`
	Region     string `json:"region" validate:"max=255"`
	PostalCode string `json:"postal_code" validate:"required,max=20"`
	Country    string `json:"country" validate:"required,len=2"`
	Phone      string `json:"phone" validate:"max=30"`
}

type AddressHandler struct {
	uc *usecase.AddressUsecase
}

func NewAddressHandler(uc *usecase.AddressUsecase) *AddressHandler {
	return &AddressHandler{uc: uc}
}

// /admin/users/:user_id/addresses
func (h *AddressHandler) RegisterRoutes(admin *echo.Group, guard Guard) {
	g := admin.Group("/users/:user_id/addresses")
	g.GET("", h.List, guard(authz.CapUsersRead))
	g.GET("/:id", h.Get, guard(authz.CapUsersRead))
	g.POST("", h.Create, guard(authz.CapAddressesWrite))
	g.PUT("/:id", h.Update, guard(authz.CapAddressesWrite))
	g.DELETE("/:id", h.Delete, guard(authz.CapAddressesWrite))
	g.POST("/:id/default", h.SetDefault, guard(authz.CapAddressesWrite))
}

func (h *AddressHandler) List(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}

	list, err := h.uc.List(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, list)
}

func (h *AddressHandler) Get(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	a, err := h.uc.Get(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *AddressHandler) Create(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}

	var req AddressRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}

	created, err := h.uc.Create(c.Request().Context(), userID, usecase.AddressInput(req))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

func (h *AddressHandler) Update(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req AddressRequest
	if err := bindValid(c, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.uc.Update(c.Request().Context(), userID, id, usecase.AddressInput(req)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "updated"})
}

func (h *AddressHandler) Delete(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Delete(c.Request().Context(), actorID, userID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AddressHandler) SetDefault(c echo.Context) error {
	userID, err := pathID(c, "user_id")
	if err != nil {
		return writeError(c, err)
	}
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.SetDefault(c.Request().Context(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "default set"})
}
