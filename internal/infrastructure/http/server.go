package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/dheerajsingh9334/mern-Blog/internal/adapter/handler/http"
	"github.com/dheerajsingh9334/mern-Blog/internal/config"
	"github.com/dheerajsingh9334/mern-Blog/internal/middleware/audit"
	"github.com/dheerajsingh9334/mern-Blog/internal/middleware/auth"
	"github.com/dheerajsingh9334/mern-Blog/pkg/logger"
)

// Services are the use cases exposed over HTTP
type Services struct {
	Ingest        handlers.EventIngester
	Plans         handlers.PlanRegistry
	Subscriptions handlers.SubscriptionManager
	Ledger        handlers.Ledger
	Payouts       handlers.PayoutManager
	// Audit is optional; without it operator actions are not recorded
	Audit handlers.AuditTrail
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	services Services
}

func NewServer(cfg *config.Config, log *zap.Logger, services Services) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		services: services,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Address()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	webhookHandler := handlers.NewWebhookHandler(s.logger, s.services.Ingest)
	plansHandler := handlers.NewPlansHandler(s.logger, s.services.Plans)
	subscriptionHandler := handlers.NewSubscriptionHandler(s.logger, s.services.Subscriptions)
	earningsHandler := handlers.NewEarningsHandler(s.logger, s.services.Ledger, s.services.Payouts)
	adminHandler := handlers.NewAdminHandler(s.logger, s.services.Ledger, s.services.Payouts)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}

	// Webhook route (outside API versioning)
	s.echo.POST("/webhook", webhookHandler.HandleWebhook)

	v1 := s.echo.Group("/api/v1")

	// Public routes: plan browsing
	v1.GET("/plans", plansHandler.GetPlans)
	v1.GET("/plans/:id/versions", plansHandler.GetPlanVersions)
	v1.GET("/plans/:id/versions/:version", plansHandler.GetPlanVersion)

	protected := v1.Group("", auth.JWTMiddleware(jwtConfig))

	subscriptions := protected.Group("/subscriptions")
	subscriptions.POST("", subscriptionHandler.CreateSubscription)
	subscriptions.GET("", subscriptionHandler.ListSubscriptions)
	subscriptions.GET("/:id", subscriptionHandler.GetSubscription)
	subscriptions.GET("/:id/transitions", subscriptionHandler.ListTransitions)
	subscriptions.DELETE("/:id", subscriptionHandler.CancelSubscription)

	earnings := protected.Group("/earnings")
	earnings.GET("/balance", earningsHandler.GetBalance)
	earnings.GET("/entries", earningsHandler.GetEntries)
	earnings.GET("/eligibility", earningsHandler.GetEligibility)
	earnings.POST("/payouts", earningsHandler.RequestPayout)
	earnings.GET("/payouts", earningsHandler.ListPayouts)
	earnings.GET("/payout-account", earningsHandler.GetPayoutAccount)
	earnings.PUT("/payout-account", earningsHandler.SetPayoutAccount)

	// Operator routes
	internal := v1.Group("/internal", auth.JWTMiddleware(jwtConfig), auth.RequireRole(auth.RoleAdmin, s.logger))
	if s.services.Audit != nil {
		internal.Use(audit.Middleware(s.services.Audit))
		internal.GET("/audit-log", handlers.NewAuditHandler(s.logger, s.services.Audit).ListAuditLog)
	}
	internal.POST("/plans", plansHandler.CreatePlan)
	internal.DELETE("/plans/:id", plansHandler.RetirePlan)
	internal.GET("/payouts/:id", adminHandler.GetPayout)
	internal.POST("/payouts/:id/settle", adminHandler.SettlePayout)
	internal.POST("/payouts/:id/reject", adminHandler.RejectPayout)
	internal.POST("/webhook-events/replay", webhookHandler.ReplayEvents)
	internal.GET("/webhook-events", webhookHandler.ListEvents)
	internal.POST("/ledger/adjustments", adminHandler.AdjustLedger)
	internal.POST("/ledger/entries/:sequence/reverse", adminHandler.ReverseEntry)
	internal.GET("/ledger/authors/:authorId/balance", adminHandler.GetAuthorBalance)
}
