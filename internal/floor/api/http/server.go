package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"whos-got-my-order/internal/floor/api/http/handle"
	appmw "whos-got-my-order/internal/floor/api/http/middleware"
	"whos-got-my-order/internal/floor/adapter/broker"
	"whos-got-my-order/internal/floor/adapter/cache"
	database "whos-got-my-order/internal/floor/adapter/db"
	"whos-got-my-order/internal/floor/app/core"
	"whos-got-my-order/internal/floor/app/services"
	"whos-got-my-order/internal/floor/config"
	"whos-got-my-order/internal/floor/domain/models"
	"whos-got-my-order/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	echo  *echo.Echo
	cfg   *config.Config
	mylog logger.Logger

	db     *database.DB
	mb     core.EventPublisher
	ctx    context.Context
	appCtx context.Context
}

func NewServer(ctx, appCtx context.Context, cfg *config.Config, mylog logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return &Server{
		echo:   e,
		cfg:    cfg,
		mylog:  mylog,
		ctx:    ctx,
		appCtx: appCtx,
	}
}

// Run wires the adapters and services, registers routes and starts
// listening. It returns when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	db, err := database.Start(s.appCtx, s.cfg.DB, s.mylog)
	if err != nil {
		mylog.Action("db_connection_failed").Error("Failed to connect to database", err)
		return err
	}
	s.db = db
	mylog.Action("db_connected").Info("Successful database connection")

	mb, err := broker.New(s.cfg.RMQ, s.mylog)
	if err != nil {
		mylog.Action("mb_connection_failed").Error("Failed to connect to message broker", err)
		return err
	}
	s.mb = mb
	mylog.Action("mb_connected").Info("Successful message broker connection")

	s.configure()

	mylog.Info("server is running", "port", s.cfg.HTTP.Port)
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(fmt.Sprintf(":%d", s.cfg.HTTP.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Stop shuts the HTTP listener and the adapters down in order.
func (s *Server) Stop(ctx context.Context) error {
	s.mylog.Action("graceful_shutdown_started").Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		s.mylog.Action("graceful_shutdown_failed").Error("Failed to shut down HTTP server gracefully", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mylog.Action("db_close_failed").Error("Failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Action("db_closed").Info("Database closed")
	}

	if s.mb != nil {
		if err := s.mb.Close(); err != nil {
			s.mylog.Action("mb_close_failed").Error("Failed to close message broker", err)
			return fmt.Errorf("mb close: %w", err)
		}
		s.mylog.Action("mb_closed").Info("Message broker closed")
	}

	s.mylog.Action("graceful_shutdown_completed").Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) configure() {
	orderRepo := database.NewOrderRepo(s.db, s.mylog)
	paymentRepo := database.NewPaymentRepo(s.db, s.mylog)
	tableRepo := database.NewTableRepo(s.db)
	staffRepo := database.NewStaffRepo(s.db)
	menuRepo := database.NewMenuRepo(s.db)

	var metricsCache core.MetricsCache
	if c := cache.New(s.cfg.Redis); c != nil {
		metricsCache = c
		s.mylog.Action("cache_connected").Info("Metrics cache enabled")
	} else {
		s.mylog.Action("cache_disabled").Warn("Metrics cache unavailable, reads fall through to the database")
	}

	metricsService := services.NewMetricsService(orderRepo, paymentRepo, staffRepo, metricsCache, s.mylog)
	lifecycleService := services.NewLifecycleService(orderRepo, paymentRepo, tableRepo, menuRepo, s.mb, metricsService, s.mylog)
	paymentService := services.NewPaymentService(orderRepo, paymentRepo, s.mylog)

	orderHandler := handle.NewOrderHandler(lifecycleService, s.mylog)
	paymentHandler := handle.NewPaymentHandler(paymentService, s.mylog)
	staffHandler := handle.NewStaffHandler(staffRepo, metricsService, s.cfg.Auth, s.mylog)
	tableHandler := handle.NewTableHandler(tableRepo, s.mylog)

	s.echo.POST("/auth/login", staffHandler.Login)

	api := s.echo.Group("", appmw.JWTAuth(s.cfg.Auth.JWTSecret))
	api.POST("/orders", orderHandler.Create)
	api.POST("/orders/:id/status", orderHandler.Transition)
	api.POST("/orders/:id/cancel", orderHandler.Cancel)
	api.POST("/orders/:id/complaint", orderHandler.FlagComplaint,
		appmw.RequireRole(models.RoleWaiter, models.RoleAdmin))
	api.POST("/orders/:id/reassign", orderHandler.Reassign,
		appmw.RequireRole(models.RoleAdmin))

	api.POST("/payments", paymentHandler.Record,
		appmw.RequireRole(models.RoleCashier, models.RoleAdmin))

	api.GET("/staff/:id/metrics", staffHandler.Metrics)
	api.POST("/staff/:id/metrics/refresh", staffHandler.RefreshMetrics,
		appmw.RequireRole(models.RoleAdmin))

	api.GET("/tables", tableHandler.List)
	api.PATCH("/tables/:id/status", tableHandler.UpdateStatus,
		appmw.RequireRole(models.RoleWaiter, models.RoleAdmin))
}
