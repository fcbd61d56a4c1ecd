// internal/api/router.go
package api

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Corphon/StyleCritic/internal/config"
	"github.com/Corphon/StyleCritic/internal/di"
	"github.com/Corphon/StyleCritic/internal/services"
	"github.com/Corphon/StyleCritic/internal/utils"
	"github.com/gin-gonic/gin"
)

// RouterOptions tunes the engine independently of the handler.
type RouterOptions struct {
	DebugMode          bool
	StaticDir          string
	RateLimitPerMinute int
}

// SetupRouter 配置HTTP路由, resolving every collaborator from the container.
func SetupRouter(container *di.Container) (*gin.Engine, error) {
	cfg, err := di.Resolve[*config.Config](container, di.ServiceConfig)
	if err != nil {
		return nil, fmt.Errorf("config not initialized: %w", err)
	}
	critic, err := di.Resolve[services.Critic](container, di.ServiceCritique)
	if err != nil {
		return nil, fmt.Errorf("critique service not initialized: %w", err)
	}
	progress, err := di.Resolve[*services.ProgressService](container, di.ServiceProgress)
	if err != nil {
		return nil, fmt.Errorf("progress service not initialized: %w", err)
	}
	metrics, err := di.Resolve[*utils.AnalysisMetrics](container, di.ServiceMetrics)
	if err != nil {
		return nil, fmt.Errorf("metrics not initialized: %w", err)
	}
	logger, err := di.Resolve[*utils.Logger](container, di.ServiceLogger)
	if err != nil {
		logger = utils.GetLogger()
	}

	handler := NewHandler(HandlerOptions{
		Critic:   critic,
		Progress: progress,
		Metrics:  metrics,
		Logger:   logger,
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
	})

	return NewRouter(handler, RouterOptions{
		DebugMode:          cfg.DebugMode,
		StaticDir:          cfg.StaticDir,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}), nil
}

// NewRouter wires the routes onto a fresh engine.
func NewRouter(h *Handler, opts RouterOptions) *gin.Engine {
	if opts.DebugMode {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(h.logger, h.metrics))
	r.Use(corsMiddleware())

	limiter := RateLimitMiddleware(NewRateLimiter(opts.RateLimitPerMinute, time.Minute), h.responses)

	r.GET("/health", h.Health)
	r.POST("/analyze", limiter, h.Analyze)
	r.GET("/ws/analyze", limiter, h.AnalyzeWebSocket)

	api := r.Group("/api")
	{
		api.POST("/analyze", limiter, h.Analyze)
		api.GET("/metrics", h.Metrics)
	}

	// 静态文件服务
	if info, err := os.Stat(opts.StaticDir); opts.StaticDir != "" && err == nil && info.IsDir() {
		files := http.FileServer(http.Dir(opts.StaticDir))
		r.NoRoute(func(c *gin.Context) {
			if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
				h.notFound(c)
				return
			}
			files.ServeHTTP(c.Writer, c.Request)
		})
	} else {
		r.NoRoute(h.notFound)
	}

	return r
}
