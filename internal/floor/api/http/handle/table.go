package handle

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

type TableHandler struct {
	tables core.TableStore
	mylog  logger.Logger
}

func NewTableHandler(tables core.TableStore, mylog logger.Logger) *TableHandler {
	return &TableHandler{tables: tables, mylog: mylog}
}

func (h *TableHandler) List(c echo.Context) error {
	tables, err := h.tables.ListTables(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, tables)
}

func (h *TableHandler) UpdateStatus(c echo.Context) error {
	var req dto.UpdateTableRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}
	status, err := models.ParseTableStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	}

	if err := h.tables.UpdateTableStatus(c.Request().Context(), c.Param("id"), status); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
