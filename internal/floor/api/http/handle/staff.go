package handle

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"whos-got-my-order/internal/floor/api/http/middleware"
	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/app/services"
	"whos-got-my-order/internal/floor/config"
	"whos-got-my-order/internal/floor/domain/dto"
	"whos-got-my-order/pkg/logger"
)

type StaffHandler struct {
	staff   core.StaffStore
	metrics *services.MetricsService
	auth    config.Auth
	mylog   logger.Logger
}

func NewStaffHandler(staff core.StaffStore, metrics *services.MetricsService, auth config.Auth, mylog logger.Logger) *StaffHandler {
	return &StaffHandler{staff: staff, metrics: metrics, auth: auth, mylog: mylog}
}

// Login verifies staff credentials and issues an access token. The core
// never sees tokens; it receives the actor id and role the middleware
// extracts.
func (h *StaffHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
	}

	staff, err := h.staff.GetStaffByEmail(c.Request().Context(), req.Email)
	if err != nil {
		// same answer for unknown email and bad password
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(staff.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "invalid credentials"})
	}

	ttl := time.Duration(h.auth.TokenTTLMins) * time.Minute
	token, err := middleware.IssueToken(h.auth.JWTSecret, staff, ttl)
	if err != nil {
		h.mylog.Action("issue_token_failed").Error("failed to sign token", err)
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}

	return c.JSON(http.StatusOK, dto.LoginResponse{Token: token, Role: staff.Role})
}

func (h *StaffHandler) Metrics(c echo.Context) error {
	snapshot, err := h.metrics.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}

// RefreshMetrics forces a full recompute, the reconciliation path.
func (h *StaffHandler) RefreshMetrics(c echo.Context) error {
	snapshot, err := h.metrics.Refresh(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, snapshot)
}
