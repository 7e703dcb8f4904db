package handle

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"whos-got-my-order/internal/floor/api/http/middleware"
	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/app/services"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

type OrderHandler struct {
	lifecycle *services.LifecycleService
	mylog     logger.Logger
}

func NewOrderHandler(lifecycle *services.LifecycleService, mylog logger.Logger) *OrderHandler {
	return &OrderHandler{lifecycle: lifecycle, mylog: mylog}
}

func (h *OrderHandler) Create(c echo.Context) error {
	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	order, err := h.lifecycle.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.CreateOrderResponse{
		OrderID: order.ID,
		Status:  order.Status,
		Total:   order.Total,
	})
}

func (h *OrderHandler) Transition(c echo.Context) error {
	var req dto.TransitionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	to, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	actorID, actorRole := middleware.Actor(c)
	order, err := h.lifecycle.Transition(c.Request().Context(), c.Param("id"), to, actorID, actorRole)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	actorID, actorRole := middleware.Actor(c)
	order, err := h.lifecycle.Cancel(c.Request().Context(), c.Param("id"), actorID, actorRole)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Reassign(c echo.Context) error {
	var req dto.ReassignRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	_, actorRole := middleware.Actor(c)
	order, err := h.lifecycle.Reassign(c.Request().Context(), c.Param("id"), role, req.StaffID, actorRole)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) FlagComplaint(c echo.Context) error {
	_, actorRole := middleware.Actor(c)
	order, err := h.lifecycle.FlagComplaint(c.Request().Context(), c.Param("id"), actorRole)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// writeError maps the typed core errors to HTTP statuses, keeping the
// explanatory detail the services attach.
func writeError(c echo.Context, err error) error {
	var invalid *core.InvalidTransitionError
	var claimed *core.AlreadyClaimedError

	switch {
	case errors.Is(err, core.ErrNotFound):
		return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not found", Detail: err.Error()})
	case errors.Is(err, core.ErrForbidden):
		return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "forbidden", Detail: err.Error()})
	case errors.As(err, &invalid):
		return c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "invalid transition", Detail: err.Error()})
	case errors.As(err, &claimed):
		return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "already claimed", Detail: err.Error()})
	case errors.Is(err, core.ErrConflict):
		return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "conflict", Detail: err.Error()})
	case errors.Is(err, core.ErrTableNotOccupied), errors.Is(err, core.ErrEmptyOrder),
		errors.Is(err, core.ErrItemUnavailable), errors.Is(err, core.ErrInvalidPayment):
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order", Detail: err.Error()})
	case errors.Is(err, core.ErrStoreUnavailable):
		return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "store unavailable"})
	}
	return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
}
