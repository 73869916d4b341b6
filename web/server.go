package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mgijax/wts/closure"
	"github.com/mgijax/wts/config"
	"github.com/mgijax/wts/service"
	"github.com/mgijax/wts/web/handlers"
	"github.com/mgijax/wts/web/middleware"
)

type Server struct {
	router  *gin.Engine
	svc     *service.DependencyService
	limiter *middleware.ClientRateLimiter
	logger  *zap.Logger
	config  *config.Config
}

func NewServer(svc *service.DependencyService, logger *zap.Logger, config *config.Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestMiddleware(logger))

	server := &Server{
		router: router,
		svc:    svc,
		limiter: middleware.NewClientRateLimiter(middleware.RateLimiterConfig{
			WritesPerMinute: config.WritesPerMinute,
			RebuildsPerHour: config.RebuildsPerHour,
			BurstSize:       config.RateLimitBurst,
			CleanupInterval: 10 * time.Minute,
		}, logger),
		logger: logger,
		config: config,
	}

	server.setupRoutes()
	return server
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	deps := handlers.NewDependencyHandler(s.svc, closure.RelationshipType(s.config.DependsOnType))
	admin := handlers.NewAdminHandler(s.svc)
	writes := middleware.RateLimitMiddleware(s.limiter, middleware.LimitWrite)

	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	records := s.router.Group("/records")
	{
		records.POST("", writes, deps.CreateRecord)
		records.GET("/:id/dependencies", deps.Dependencies)
		records.PUT("/:id/dependencies", writes, deps.SetDependencies)
		records.POST("/:id/dependencies/:target", writes, deps.AddDependency)
		records.DELETE("/:id/dependencies/:target", writes, deps.RemoveDependency)
		records.GET("/:id/dependents", deps.Dependents)
		records.GET("/:id/check", deps.CheckDependencies)
		records.GET("/:id/tree", deps.Tree)
	}

	adminGroup := s.router.Group("/admin/closure")
	{
		adminGroup.POST("/rebuild", middleware.RateLimitMiddleware(s.limiter, middleware.LimitRebuild), admin.Rebuild)
		adminGroup.GET("/status", admin.Status)
	}
}

func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting web server", zap.String("address", addr))
	defer s.limiter.Stop()

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Web server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()

	s.logger.Info("Shutting down web server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
