package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ali-shihab/marketreplay/api"
	"github.com/ali-shihab/marketreplay/internal/config"
	"github.com/ali-shihab/marketreplay/internal/engine"
	"github.com/ali-shihab/marketreplay/internal/infrastructure"
	"github.com/ali-shihab/marketreplay/internal/push"
	"github.com/ali-shihab/marketreplay/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App defines the application structure and its dependencies
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	NC         *nats.Conn
	JS         nats.JetStreamContext
	Cache      *storage.ScheduleCache
	Loader     *engine.ScheduleLoader
	BuildPool  *engine.BuildPool
	Gateway    *push.Gateway
	HTTPServer *http.Server
}

// NewApp creates a new application instance
func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := infrastructure.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &App{
		Config: &cfg,
		Logger: logger,
	}, nil
}

// Init initializes all application components
func (a *App) Init(ctx context.Context) error {
	// 1. NATS
	nc, js, err := infrastructure.InitNATS(a.Config.NatsURL, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	a.NC = nc
	a.JS = js

	// 2. Schedule cache and loader
	a.Cache = storage.NewScheduleCache(a.Config.CacheDir)
	a.Loader = engine.NewScheduleLoader(a.Cache, a.Logger)
	a.BuildPool = engine.NewBuildPool(4, 64, a.Loader, a.Logger)

	// 3. Services
	a.Gateway = push.NewGateway(js, a.Logger)

	return nil
}

// Run starts the application services and the HTTP server
func (a *App) Run(ctx context.Context) error {
	a.BuildPool.Start(ctx)

	router, err := a.setupRouter()
	if err != nil {
		return err
	}

	a.HTTPServer = &http.Server{
		Addr:    ":" + a.Config.Port,
		Handler: router,
	}

	go func() {
		a.Logger.Info("starting http server", zap.String("port", a.Config.Port))
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	return a.waitForShutdown()
}

// waitForShutdown handles graceful shutdown signals
func (a *App) waitForShutdown() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	a.Logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.NC.Close()

	return nil
}

// setupRouter configures the Gin router and its routes
func (a *App) setupRouter() (*gin.Engine, error) {
	r := gin.Default()

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	apiHandler, err := api.NewHandler(api.HandlerOptions{
		Loader:      a.Loader,
		Cache:       a.Cache,
		Pool:        a.BuildPool,
		JS:          a.JS,
		Logger:      a.Logger,
		DataDir:     a.Config.DataDir,
		MarketOpen:  a.Config.MarketOpen,
		MarketClose: a.Config.MarketClose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build api handler: %w", err)
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/replay", apiHandler.RunReplay)
		v1.POST("/cache/warm", apiHandler.WarmCache)
		v1.GET("/schedule/:symbol", apiHandler.GetSchedule)
	}

	r.GET("/ws", func(c *gin.Context) {
		a.Gateway.ServeHTTP(c.Writer, c.Request)
	})

	return r, nil
}
