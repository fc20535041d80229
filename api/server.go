package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/costwatch/costwatch/api/handlers"
	"github.com/costwatch/costwatch/api/middleware"
	"github.com/costwatch/costwatch/api/websocket"
	"github.com/costwatch/costwatch/internal/metrics"
	"github.com/costwatch/costwatch/internal/runtime"
	"github.com/costwatch/costwatch/internal/store"
	"github.com/costwatch/costwatch/pkg/config"
	"github.com/costwatch/costwatch/pkg/models"
	"github.com/gin-gonic/gin"
)

// Deps collects everything the HTTP surface reads from.
type Deps struct {
	Store   store.TimeSeriesStore
	Runtime runtime.Runtime
	Runner  handlers.CycleRunner
	Metrics *metrics.Metrics
	Events  <-chan *models.Event
	Mode    string
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     config.APIConfig
	deps       Deps
	wsHub      *websocket.Hub
	wsBridge   *websocket.EventBridge
}

func NewServer(cfg config.APIConfig, deps Deps) *Server {
	if deps.Mode == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	wsHub := websocket.NewHub()

	s := &Server{
		router: router,
		config: cfg,
		deps:   deps,
		wsHub:  wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	if deps.Events != nil {
		s.wsBridge = websocket.NewEventBridge(wsHub, deps.Events)
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.TraceID())

	if s.config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(s.config.RateLimit, time.Minute)
		s.router.Use(middleware.RateLimit(rateLimiter))
	}
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.deps.Store, s.deps.Runtime)
	samplesHandler := handlers.NewSamplesHandler(s.deps.Store, s.config)
	scanHandler := handlers.NewScanHandler(s.deps.Runner)

	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)

	s.router.GET("/samples", samplesHandler.GetSamples)
	s.router.GET("/containers/:id/trend", samplesHandler.GetTrend)
	s.router.GET("/security-events", samplesHandler.GetSecurityEvents)

	s.router.POST("/scan", scanHandler.Scan)

	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	if s.deps.Metrics != nil {
		s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}
