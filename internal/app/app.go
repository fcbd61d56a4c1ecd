// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/Corphon/StyleCritic/internal/api"
	"github.com/Corphon/StyleCritic/internal/browser"
	"github.com/Corphon/StyleCritic/internal/cache"
	"github.com/Corphon/StyleCritic/internal/config"
	"github.com/Corphon/StyleCritic/internal/di"
	"github.com/Corphon/StyleCritic/internal/llm"
	"github.com/Corphon/StyleCritic/internal/render"
	"github.com/Corphon/StyleCritic/internal/scoring"
	"github.com/Corphon/StyleCritic/internal/services"
	"github.com/Corphon/StyleCritic/internal/utils"

	// provider registrations
	_ "github.com/Corphon/StyleCritic/internal/llm/providers/anthropic"
	_ "github.com/Corphon/StyleCritic/internal/llm/providers/openai"
)

const (
	shutdownTimeout        = 30 * time.Second
	metricsReportInterval  = 5 * time.Minute
	trackerCleanupInterval = time.Minute
	trackerMaxAge          = 10 * time.Minute
)

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// App 应用程序实例
type App struct {
	config    *config.Config
	container *di.Container
	router    http.Handler
	server    httpServer
	stopChan  chan os.Signal
}

var (
	instance   *App
	instanceMu sync.Mutex
)

// GetApp 获取应用实例
func GetApp() *App {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = &App{
			container: di.GetContainer(),
			stopChan:  make(chan os.Signal, 1),
		}
	}
	return instance
}

// Initialize sets up logging, services and the HTTP server for cfg.
func Initialize(cfg *config.Config) error {
	a := GetApp()
	a.config = cfg

	if err := initLogger(cfg.LogDir, cfg.LogLevel); err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}

	if err := InitServices(a.container, cfg); err != nil {
		return fmt.Errorf("初始化服务失败: %w", err)
	}

	router, err := api.SetupRouter(a.container)
	if err != nil {
		return fmt.Errorf("设置路由失败: %w", err)
	}
	a.router = router
	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// initLogger opens a dated log file under logDir.
func initLogger(logDir, level string) error {
	if logDir == "" {
		logDir = "logs"
	}
	logFile := filepath.Join(logDir, fmt.Sprintf("%s-%s.log", config.AppName, time.Now().Format("2006-01-02")))
	if err := utils.InitLogger(logFile); err != nil {
		return err
	}
	utils.GetLogger().SetLogLevel(utils.ParseLogLevel(level))
	return nil
}

// InitServices builds the analysis pipeline and registers every piece in container.
func InitServices(container *di.Container, cfg *config.Config) error {
	logger := utils.GetLogger()
	metrics := utils.NewAnalysisMetrics()

	container.Register(di.ServiceConfig, cfg)
	container.Register(di.ServiceLogger, logger)
	container.Register(di.ServiceMetrics, metrics)

	provider, err := llm.GetProvider(cfg.LLMProvider, map[string]string{
		"api_key":       cfg.LLMAPIKey,
		"default_model": cfg.LLMModel,
		"base_url":      cfg.LLMBaseURL,
	})
	if err != nil {
		return fmt.Errorf("llm provider %s: %w", cfg.LLMProvider, err)
	}
	container.Register(di.ServiceTextClient, provider)

	backend, err := cache.New(cache.Options{Backend: cfg.CacheBackend, RedisURL: cfg.RedisURL})
	if err != nil {
		return fmt.Errorf("generation cache: %w", err)
	}
	if backend != nil {
		container.Register(di.ServiceCache, backend)
	}

	generator := services.NewGenerationService(provider, services.GenerationOptions{
		Model:   cfg.LLMModel,
		Timeout: cfg.GenerationTimeout,
		Retry: services.RetryPolicy{
			MaxAttempts:  cfg.RetryMaxAttempts,
			DefaultDelay: cfg.RetryDefaultDelay,
			MaxDelay:     cfg.RetryMaxDelay,
		},
		Cache:    backend,
		CacheTTL: cfg.CacheTTL,
		Metrics:  metrics,
		Logger:   logger,
	})
	container.Register(di.ServiceGenerator, generator)

	scorer, err := scoring.New(cfg.ScoringMode)
	if err != nil {
		return err
	}
	container.Register(di.ServiceScorer, scorer)

	renderer := render.New()
	container.Register(di.ServiceRenderer, renderer)

	analyzer := services.NewAnalyzerService(generator, scorer, services.AnalyzerOptions{
		Prompts:        cfg.Prompts,
		MaxPromptChars: cfg.MaxPromptChars,
		Parallel:       cfg.ParallelCategories,
		Renderer:       renderer,
	})
	container.Register(di.ServiceAnalyzer, analyzer)

	chrome := browser.NewChrome(browser.Options{
		RemoteURL: cfg.ChromeRemoteURL,
		UserAgent: cfg.ChromeUserAgent,
	})
	container.Register(di.ServiceBrowser, chrome)

	extractor := services.NewExtractorService(chrome, cfg.NavigationTimeout, metrics)
	container.Register(di.ServiceExtractor, extractor)

	container.Register(di.ServiceCritique, services.NewCritiqueService(extractor, analyzer, cfg.RequestTimeout, metrics))
	container.Register(di.ServiceProgress, services.NewProgressService())

	logger.Info("services initialized", map[string]interface{}{
		"provider":      cfg.LLMProvider,
		"model":         cfg.LLMModel,
		"scoring_mode":  cfg.ScoringMode,
		"cache_backend": cfg.CacheBackend,
		"parallel":      cfg.ParallelCategories,
		"remote_chrome": cfg.ChromeRemoteURL != "",
		"services":      len(container.Names()),
	})
	return nil
}

// Run serves until SIGINT/SIGTERM or a server failure, then shuts down gracefully.
func Run() error {
	a := GetApp()
	if a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	logger := utils.GetLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.startBackground(ctx)

	signal.Notify(a.stopChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(a.stopChan)

	serveErr := make(chan error, 1)
	go func() {
		if a.config != nil {
			logger.Info("server listening", map[string]interface{}{"port": a.config.Port})
		}
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case sig := <-a.stopChan:
		logger.Info("shutdown requested", map[string]interface{}{"signal": sig.String()})
	case runErr = <-serveErr:
		logger.Error("server failed", map[string]interface{}{"error": runErr.Error()})
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("server shutdown: %w", err)
	}

	a.cleanup()
	logger.Info("server stopped", nil)
	return runErr
}

// startBackground runs the periodic metrics report and tracker cleanup until ctx ends.
func (a *App) startBackground(ctx context.Context) {
	if metrics, err := di.Resolve[*utils.AnalysisMetrics](a.container, di.ServiceMetrics); err == nil {
		metrics.StartMetricsCollection(ctx, metricsReportInterval)
	}

	progress, err := di.Resolve[*services.ProgressService](a.container, di.ServiceProgress)
	if err != nil {
		return
	}
	go func() {
		ticker := time.NewTicker(trackerCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				progress.CleanupCompletedTasks(trackerMaxAge)
			}
		}
	}()
}

// cleanup releases the cache connection and the log file.
func (a *App) cleanup() {
	logger := utils.GetLogger()
	if a.container != nil {
		if backend, err := di.Resolve[cache.Backend](a.container, di.ServiceCache); err == nil {
			if err := backend.Close(); err != nil {
				logger.Warn("closing generation cache failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
	_ = logger.Close()
}

// GetConfig 获取应用配置
func (a *App) GetConfig() *config.Config {
	return a.config
}

// IsDebugMode 检查是否处于调试模式
func IsDebugMode() bool {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	return instance != nil && instance.config != nil && instance.config.DebugMode
}
