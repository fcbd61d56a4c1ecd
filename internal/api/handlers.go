// internal/api/handlers.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Corphon/StyleCritic/internal/errors"
	"github.com/Corphon/StyleCritic/internal/llm"
	"github.com/Corphon/StyleCritic/internal/models"
	"github.com/Corphon/StyleCritic/internal/services"
	"github.com/Corphon/StyleCritic/internal/utils"
	"github.com/gin-gonic/gin"
)

// Handler 处理API请求
type Handler struct {
	critic    services.Critic
	progress  *services.ProgressService
	metrics   *utils.AnalysisMetrics
	responses *ResponseHelper
	logger    *utils.Logger
	provider  string
	model     string
	startTime time.Time
}

// HandlerOptions names the collaborators a Handler serves.
type HandlerOptions struct {
	Critic   services.Critic
	Progress *services.ProgressService
	Metrics  *utils.AnalysisMetrics
	Logger   *utils.Logger
	// Provider and Model are reported by /health.
	Provider string
	Model    string
}

// NewHandler 创建API处理器
func NewHandler(opts HandlerOptions) *Handler {
	if opts.Progress == nil {
		opts.Progress = services.NewProgressService()
	}
	if opts.Metrics == nil {
		opts.Metrics = utils.NewAnalysisMetrics()
	}
	if opts.Logger == nil {
		opts.Logger = utils.GetLogger()
	}
	return &Handler{
		critic:    opts.Critic,
		progress:  opts.Progress,
		metrics:   opts.Metrics,
		responses: NewResponseHelper(opts.Logger),
		logger:    opts.Logger,
		provider:  opts.Provider,
		model:     opts.Model,
		startTime: time.Now(),
	}
}

// Analyze renders the posted URL and answers with the full critique.
func (h *Handler) Analyze(c *gin.Context) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		h.responses.FromError(c, errors.NewInvalidInputError(msgURLRequired, err))
		return
	}

	resp, err := h.critic.Critique(c.Request.Context(), req, requestID(c), nil)
	if err != nil {
		h.responses.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Health reports liveness, the configured generation backend and the providers compiled in.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"provider":  h.provider,
		"model":     h.model,
		"providers": llm.ListProviders(),
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Metrics exposes the in-process counters, gauges and histograms.
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Collector().GetMetrics())
}

func (h *Handler) notFound(c *gin.Context) {
	h.responses.Error(c, http.StatusNotFound, ErrorNotFound, msgRouteNotFound)
}
