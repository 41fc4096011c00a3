// Package server wires the HTTP routes and owns the server lifecycle.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/harshal20m/storeratings/internal/auth"
	"github.com/harshal20m/storeratings/internal/config"
	"github.com/harshal20m/storeratings/internal/handler"
	"github.com/harshal20m/storeratings/internal/middleware"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

// Server is the HTTP front of the store ratings service.
type Server struct {
	config *config.Config
	logger *zap.Logger
	engine *gin.Engine
	http   *http.Server
}

// New builds the gin engine, middleware chain and route table.
func New(cfg *config.Config, logger *zap.Logger, repo ratings.Repository, jwtManager *auth.JWTManager) (*Server, error) {
	gin.SetMode(cfg.Server.Mode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))

	if cfg.CORS.Enabled {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     cfg.CORS.AllowedMethods,
			AllowHeaders:     cfg.CORS.AllowedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
		}))
	}

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		metrics := middleware.NewMetricsMiddleware(registry)
		engine.Use(metrics.Handler())
		engine.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	if cfg.Tracing.Enabled {
		tm, err := middleware.NewTracingMiddleware(&cfg.Tracing)
		if err != nil {
			return nil, err
		}
		engine.Use(tm.Handler())
	}

	h := handler.New(logger, repo, auth.NewPasswordHasher(), jwtManager)
	authMW := middleware.NewAuthMiddleware(jwtManager, logger)
	registerRoutes(engine, h, authMW)

	return &Server{
		config: cfg,
		logger: logger,
		engine: engine,
		http: &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      engine,
			ReadTimeout:  cfg.Server.ReadTimeout.Std(),
			WriteTimeout: cfg.Server.WriteTimeout.Std(),
			IdleTimeout:  cfg.Server.IdleTimeout.Std(),
		},
	}, nil
}

func registerRoutes(engine *gin.Engine, h *handler.Handler, authMW *middleware.AuthMiddleware) {
	engine.GET("/health", h.Health)

	api := engine.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.PUT("/password", authMW.RequireAuth(), h.UpdatePassword)
	}

	users := api.Group("/users", authMW.RequireAuth(), authMW.RequireRole(ratings.RoleAdmin))
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.POST("", h.CreateUser)
	}

	stores := api.Group("/stores", authMW.RequireAuth())
	{
		stores.GET("", h.ListStores)
		stores.GET("/my-store", authMW.RequireRole(ratings.RoleStoreOwner), h.GetMyStore)
		stores.POST("", authMW.RequireRole(ratings.RoleAdmin), h.CreateStore)
	}

	ratingsGroup := api.Group("/ratings", authMW.RequireAuth(), authMW.RequireRole(ratings.RoleUser))
	{
		ratingsGroup.POST("", h.SubmitRating)
		ratingsGroup.GET("/store/:storeId", h.GetMyRating)
	}

	dashboard := api.Group("/dashboard", authMW.RequireAuth(), authMW.RequireRole(ratings.RoleAdmin))
	{
		dashboard.GET("/stats", h.DashboardStats)
	}
}

// Start begins serving. It blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("http server starting", zap.String("address", s.config.Server.Address))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http server stopping")
	return s.http.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}
