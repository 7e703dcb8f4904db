package handle

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"whos-got-my-order/internal/floor/app/services"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/pkg/logger"
)

type PaymentHandler struct {
	payments *services.PaymentService
	mylog    logger.Logger
}

func NewPaymentHandler(payments *services.PaymentService, mylog logger.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, mylog: mylog}
}

func (h *PaymentHandler) Record(c echo.Context) error {
	var req dto.RecordPaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.OrderID == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "order_id is required"})
	}

	payment, paymentStatus, err := h.payments.Record(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, dto.RecordPaymentResponse{
		PaymentID:     payment.ID,
		PaymentStatus: paymentStatus,
	})
}
